package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cannaconvert/account-server-go/internal/model"
)

// TransactionFilter narrows admin transaction listings. Zero values match all.
type TransactionFilter struct {
	UserID string
	Type   string
	Since  *time.Time
	Until  *time.Time
}

type CreditRepository interface {
	FindAccount(ctx context.Context, userID string) (*model.CreditAccount, error)
	CreateAccount(ctx context.Context, userID string, balance int64) (*model.CreditAccount, error)
	// UpsertBalance atomically increments the stored balance, creating the
	// account row when it does not exist yet. Safe under concurrent first
	// touches: the insert and the increment resolve in a single statement.
	UpsertBalance(ctx context.Context, userID string, amount int64) (*model.CreditAccount, error)
	// DeductBalance atomically decrements the stored balance, guarded so it
	// never goes negative. Returns nil if the account is missing or the
	// balance is insufficient.
	DeductBalance(ctx context.Context, userID string, amount int64) (*model.CreditAccount, error)
	InsertTransaction(ctx context.Context, params model.CreateTransactionParams) (*model.CreditTransaction, error)
	FindTransactionByIdempotencyKey(ctx context.Context, userID, key string) (*model.CreditTransaction, error)
	FindTransactionsByUser(ctx context.Context, userID string, limit, offset int) ([]model.CreditTransaction, error)
	FindTransactions(ctx context.Context, filter TransactionFilter, limit, offset int) ([]model.CreditTransaction, int, error)
	// WithTx returns a new repository bound to the given transaction
	WithTx(tx *sqlx.Tx) CreditRepository
}

// creditDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type creditDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type creditRepo struct {
	db creditDB
}

func NewCreditRepository(db *sqlx.DB) CreditRepository {
	return &creditRepo{db: db}
}

func (r *creditRepo) WithTx(tx *sqlx.Tx) CreditRepository {
	return &creditRepo{db: tx}
}

func (r *creditRepo) FindAccount(ctx context.Context, userID string) (*model.CreditAccount, error) {
	var account model.CreditAccount
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM credit_accounts WHERE user_id = $1
	`, userID)
	return HandleNotFound(&account, err)
}

func (r *creditRepo) CreateAccount(ctx context.Context, userID string, balance int64) (*model.CreditAccount, error) {
	var account model.CreditAccount
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO credit_accounts (user_id, balance)
		VALUES ($1, $2)
		RETURNING *
	`, userID, balance)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *creditRepo) UpsertBalance(ctx context.Context, userID string, amount int64) (*model.CreditAccount, error) {
	var account model.CreditAccount
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO credit_accounts (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			balance = credit_accounts.balance + EXCLUDED.balance,
			updated_at = NOW()
		RETURNING *
	`, userID, amount)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *creditRepo) DeductBalance(ctx context.Context, userID string, amount int64) (*model.CreditAccount, error) {
	var account model.CreditAccount
	err := r.db.GetContext(ctx, &account, `
		UPDATE credit_accounts SET
			balance = balance - $2,
			updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING *
	`, userID, amount)
	return HandleNotFound(&account, err)
}

func (r *creditRepo) InsertTransaction(ctx context.Context, params model.CreateTransactionParams) (*model.CreditTransaction, error) {
	var txn model.CreditTransaction
	err := r.db.GetContext(ctx, &txn, `
		INSERT INTO credit_transactions (id, user_id, amount, type, description, metadata, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.ID, params.UserID, params.Amount, params.Type, params.Description, params.Metadata, params.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *creditRepo) FindTransactionByIdempotencyKey(ctx context.Context, userID, key string) (*model.CreditTransaction, error) {
	var txn model.CreditTransaction
	err := r.db.GetContext(ctx, &txn, `
		SELECT * FROM credit_transactions
		WHERE user_id = $1 AND idempotency_key = $2
	`, userID, key)
	return HandleNotFound(&txn, err)
}

func (r *creditRepo) FindTransactionsByUser(ctx context.Context, userID string, limit, offset int) ([]model.CreditTransaction, error) {
	transactions := []model.CreditTransaction{}
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *creditRepo) FindTransactions(ctx context.Context, filter TransactionFilter, limit, offset int) ([]model.CreditTransaction, int, error) {
	query := `SELECT * FROM credit_transactions WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM credit_transactions WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.UserID != "" {
		query += ` AND user_id = $` + strconv.Itoa(argIndex)
		countQuery += ` AND user_id = $` + strconv.Itoa(argIndex)
		args = append(args, filter.UserID)
		argIndex++
	}

	if filter.Type != "" {
		query += ` AND type = $` + strconv.Itoa(argIndex)
		countQuery += ` AND type = $` + strconv.Itoa(argIndex)
		args = append(args, filter.Type)
		argIndex++
	}

	if filter.Since != nil {
		query += ` AND created_at >= $` + strconv.Itoa(argIndex)
		countQuery += ` AND created_at >= $` + strconv.Itoa(argIndex)
		args = append(args, *filter.Since)
		argIndex++
	}

	if filter.Until != nil {
		query += ` AND created_at <= $` + strconv.Itoa(argIndex)
		countQuery += ` AND created_at <= $` + strconv.Itoa(argIndex)
		args = append(args, *filter.Until)
		argIndex++
	}

	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argIndex) + ` OFFSET $` + strconv.Itoa(argIndex+1)
	args = append(args, limit, offset)

	transactions := []model.CreditTransaction{}
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, err
	}

	var total int
	countArgs := args[:len(args)-2]
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}
