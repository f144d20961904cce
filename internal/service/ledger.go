package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/cannaconvert/account-server-go/internal/config"
	"github.com/cannaconvert/account-server-go/internal/database"
	apperrors "github.com/cannaconvert/account-server-go/internal/errors"
	"github.com/cannaconvert/account-server-go/internal/model"
	"github.com/cannaconvert/account-server-go/internal/repository"
)

type AddCreditsParams struct {
	UserID      string
	Amount      int64
	Type        model.TransactionType
	Description string
	Metadata    map[string]any
	// MaxAmount caps a single grant. Zero means the adjustment cap.
	MaxAmount int64
	// IdempotencyKey, when set, makes the grant safe to retry: a replay
	// returns the current balance without applying the amount again.
	IdempotencyKey string
}

type DeductCreditsParams struct {
	UserID      string
	Amount      int64
	Description string
	Metadata    map[string]any
	// Type defaults to CONSUMPTION.
	Type model.TransactionType
}

type MutationResult struct {
	NewBalance  int64
	Transaction *model.CreditTransaction
	// Replayed is true when an idempotency key matched a previously
	// recorded transaction and no new write happened.
	Replayed bool
}

type HistoryResult struct {
	Transactions []model.CreditTransaction
	// HasMore is inferred from a full page (returned count == limit). A page
	// that ends exactly at the last row still reports true.
	HasMore bool
}

// LedgerService owns credit balances and their append-only transaction
// history. Every balance mutation and its transaction record commit in one
// database transaction, so the balance always equals the sum of recorded
// amounts.
type LedgerService struct {
	db         database.TxRunner
	creditRepo repository.CreditRepository
}

func NewLedgerService(db database.TxRunner, creditRepo repository.CreditRepository) *LedgerService {
	return &LedgerService{
		db:         db,
		creditRepo: creditRepo,
	}
}

// GetBalance returns the user's credit account. The lazy-creation policy is
// fixed: an unknown user gets a zero-balance account on first touch, never
// NOT_FOUND.
func (s *LedgerService) GetBalance(ctx context.Context, userID string) (*model.CreditAccount, error) {
	account, err := s.creditRepo.FindAccount(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account != nil {
		return account, nil
	}

	created, err := s.creditRepo.CreateAccount(ctx, userID, 0)
	if err != nil {
		// Another request may have created the account concurrently.
		if existing, findErr := s.creditRepo.FindAccount(ctx, userID); findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, apperrors.Database(err)
	}

	return created, nil
}

// AddCredits atomically appends a credit transaction and increments the
// balance. Amount must be a positive integer within the allowed bound.
func (s *LedgerService) AddCredits(ctx context.Context, params AddCreditsParams) (*MutationResult, error) {
	maxAmount := params.MaxAmount
	if maxAmount <= 0 {
		maxAmount = config.AdjustmentCreditsMax
	}
	if params.Amount < 1 || params.Amount > maxAmount {
		return nil, apperrors.InvalidAmount(1, maxAmount)
	}

	result := &MutationResult{}
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.creditRepo.WithTx(tx)

		if params.IdempotencyKey != "" {
			existing, err := repo.FindTransactionByIdempotencyKey(ctx, params.UserID, params.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				account, err := repo.FindAccount(ctx, params.UserID)
				if err != nil {
					return err
				}
				if account != nil {
					result.NewBalance = account.Balance
				}
				result.Transaction = existing
				result.Replayed = true
				return nil
			}
		}

		account, err := repo.UpsertBalance(ctx, params.UserID, params.Amount)
		if err != nil {
			return err
		}

		txn, err := repo.InsertTransaction(ctx, model.CreateTransactionParams{
			ID:             uuid.NewString(),
			UserID:         params.UserID,
			Amount:         params.Amount,
			Type:           params.Type,
			Description:    params.Description,
			Metadata:       marshalMetadata(params.Metadata),
			IdempotencyKey: optionalString(params.IdempotencyKey),
		})
		if err != nil {
			return err
		}

		result.NewBalance = account.Balance
		result.Transaction = txn
		return nil
	})
	if err != nil {
		return nil, apperrors.AddFailed(err)
	}

	if !result.Replayed {
		log.Info().
			Str("userId", params.UserID).
			Int64("amount", params.Amount).
			Str("type", string(params.Type)).
			Int64("newBalance", result.NewBalance).
			Msg("credits added")
	}

	return result, nil
}

// DeductCredits atomically appends a negative transaction and decrements the
// balance. Fails with INSUFFICIENT_BALANCE when the balance would go
// negative; nothing is written in that case.
func (s *LedgerService) DeductCredits(ctx context.Context, params DeductCreditsParams) (*MutationResult, error) {
	if params.Amount < 1 {
		return nil, apperrors.InvalidAmount(1, config.AdjustmentCreditsMax)
	}

	txnType := params.Type
	if txnType == "" {
		txnType = model.TransactionConsumption
	}

	result := &MutationResult{}
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.creditRepo.WithTx(tx)

		updated, err := repo.DeductBalance(ctx, params.UserID, params.Amount)
		if err != nil {
			return err
		}
		if updated == nil {
			return apperrors.InsufficientBalance()
		}

		txn, err := repo.InsertTransaction(ctx, model.CreateTransactionParams{
			ID:          uuid.NewString(),
			UserID:      params.UserID,
			Amount:      -params.Amount,
			Type:        txnType,
			Description: params.Description,
			Metadata:    marshalMetadata(params.Metadata),
		})
		if err != nil {
			return err
		}

		result.NewBalance = updated.Balance
		result.Transaction = txn
		return nil
	})
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("userId", params.UserID).
		Int64("amount", params.Amount).
		Int64("newBalance", result.NewBalance).
		Msg("credits deducted")

	return result, nil
}

// GetHistory lists the user's transactions, most recent first.
func (s *LedgerService) GetHistory(ctx context.Context, userID string, limit, offset int) (*HistoryResult, error) {
	transactions, err := s.creditRepo.FindTransactionsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &HistoryResult{
		Transactions: transactions,
		HasMore:      len(transactions) == limit,
	}, nil
}

// ListTransactions is the admin-facing listing across all users.
func (s *LedgerService) ListTransactions(ctx context.Context, filter repository.TransactionFilter, limit, offset int) ([]model.CreditTransaction, int, error) {
	transactions, total, err := s.creditRepo.FindTransactions(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	return transactions, total, nil
}

func marshalMetadata(metadata map[string]any) *string {
	if len(metadata) == 0 {
		return nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
