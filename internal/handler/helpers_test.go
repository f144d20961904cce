package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/cannaconvert/account-server-go/internal/audit"
	"github.com/cannaconvert/account-server-go/internal/database"
	"github.com/cannaconvert/account-server-go/internal/middleware"
	"github.com/cannaconvert/account-server-go/internal/model"
	"github.com/cannaconvert/account-server-go/internal/repository"
	"github.com/cannaconvert/account-server-go/internal/service"
)

const (
	testEmail    = "admin@test.com"
	testPassword = "admin-password"
	testSecret   = "test-secret"
)

var testPasswordHash = func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}()

// In-memory repositories so handler tests exercise the real services.

type memAccountRepo struct {
	accounts map[string]*model.AdminAccount
}

func newMemAccountRepo(accounts ...*model.AdminAccount) *memAccountRepo {
	repo := &memAccountRepo{accounts: make(map[string]*model.AdminAccount)}
	for _, account := range accounts {
		repo.accounts[account.ID] = account
	}
	return repo
}

func (m *memAccountRepo) FindByEmail(ctx context.Context, email string) (*model.AdminAccount, error) {
	for _, account := range m.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return nil, nil
}

func (m *memAccountRepo) FindByID(ctx context.Context, id string) (*model.AdminAccount, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	return account, nil
}

func (m *memAccountRepo) TouchLastLogin(ctx context.Context, id string) error {
	return nil
}

type memSessionRepo struct {
	sessions map[string]*model.AdminSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.AdminSession)}
}

func (m *memSessionRepo) Create(ctx context.Context, params model.CreateAdminSessionParams) (*model.AdminSession, error) {
	session := &model.AdminSession{
		ID:        "sess-" + params.TokenHash[:8],
		AdminID:   params.AdminID,
		TokenHash: params.TokenHash,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: time.Now(),
	}
	m.sessions[params.TokenHash] = session
	return session, nil
}

func (m *memSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.AdminSession, error) {
	session, ok := m.sessions[tokenHash]
	if !ok || time.Now().After(session.ExpiresAt) {
		return nil, nil
	}
	return session, nil
}

func (m *memSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	delete(m.sessions, tokenHash)
	return nil
}

func (m *memSessionRepo) DeleteByAdminID(ctx context.Context, adminID string) (int64, error) {
	var count int64
	for hash, session := range m.sessions {
		if session.AdminID == adminID {
			delete(m.sessions, hash)
			count++
		}
	}
	return count, nil
}

func (m *memSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

type memAuditRepo struct {
	entries []model.AuditLogEntry
}

func (m *memAuditRepo) Insert(ctx context.Context, entry model.AuditLogEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAuditRepo) FindAll(ctx context.Context, filter repository.AuditLogFilter, limit, offset int) ([]model.AuditLogEntry, int, error) {
	matched := []model.AuditLogEntry{}
	for _, entry := range m.entries {
		if filter.AdminID != "" && entry.AdminID != filter.AdminID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.Severity != "" && string(entry.Severity) != filter.Severity {
			continue
		}
		matched = append(matched, entry)
	}
	total := len(matched)
	if offset >= len(matched) {
		return []model.AuditLogEntry{}, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type memCreditRepo struct {
	accounts     map[string]*model.CreditAccount
	transactions []model.CreditTransaction
}

func newMemCreditRepo() *memCreditRepo {
	return &memCreditRepo{accounts: make(map[string]*model.CreditAccount)}
}

func (m *memCreditRepo) WithTx(tx *sqlx.Tx) repository.CreditRepository {
	return m
}

func (m *memCreditRepo) FindAccount(ctx context.Context, userID string) (*model.CreditAccount, error) {
	account, ok := m.accounts[userID]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (m *memCreditRepo) CreateAccount(ctx context.Context, userID string, balance int64) (*model.CreditAccount, error) {
	account := &model.CreditAccount{UserID: userID, Balance: balance, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.accounts[userID] = account
	copied := *account
	return &copied, nil
}

func (m *memCreditRepo) UpsertBalance(ctx context.Context, userID string, amount int64) (*model.CreditAccount, error) {
	account, ok := m.accounts[userID]
	if !ok {
		account = &model.CreditAccount{UserID: userID, CreatedAt: time.Now()}
		m.accounts[userID] = account
	}
	account.Balance += amount
	account.UpdatedAt = time.Now()
	copied := *account
	return &copied, nil
}

func (m *memCreditRepo) DeductBalance(ctx context.Context, userID string, amount int64) (*model.CreditAccount, error) {
	account, ok := m.accounts[userID]
	if !ok || account.Balance < amount {
		return nil, nil
	}
	account.Balance -= amount
	copied := *account
	return &copied, nil
}

func (m *memCreditRepo) InsertTransaction(ctx context.Context, params model.CreateTransactionParams) (*model.CreditTransaction, error) {
	txn := model.CreditTransaction{
		ID:             params.ID,
		UserID:         params.UserID,
		Amount:         params.Amount,
		Type:           params.Type,
		Description:    params.Description,
		Metadata:       params.Metadata,
		IdempotencyKey: params.IdempotencyKey,
		CreatedAt:      time.Now(),
	}
	m.transactions = append(m.transactions, txn)
	return &txn, nil
}

func (m *memCreditRepo) FindTransactionByIdempotencyKey(ctx context.Context, userID, key string) (*model.CreditTransaction, error) {
	for i := range m.transactions {
		txn := m.transactions[i]
		if txn.UserID == userID && txn.IdempotencyKey != nil && *txn.IdempotencyKey == key {
			return &txn, nil
		}
	}
	return nil, nil
}

func (m *memCreditRepo) FindTransactionsByUser(ctx context.Context, userID string, limit, offset int) ([]model.CreditTransaction, error) {
	matched := []model.CreditTransaction{}
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].UserID == userID {
			matched = append(matched, m.transactions[i])
		}
	}
	if offset >= len(matched) {
		return []model.CreditTransaction{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *memCreditRepo) FindTransactions(ctx context.Context, filter repository.TransactionFilter, limit, offset int) ([]model.CreditTransaction, int, error) {
	matched := []model.CreditTransaction{}
	for i := len(m.transactions) - 1; i >= 0; i-- {
		txn := m.transactions[i]
		if filter.UserID != "" && txn.UserID != filter.UserID {
			continue
		}
		if filter.Type != "" && string(txn.Type) != filter.Type {
			continue
		}
		matched = append(matched, txn)
	}
	total := len(matched)
	if offset >= len(matched) {
		return []model.CreditTransaction{}, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// testEnv wires handlers against the in-memory repositories.
type testEnv struct {
	accountRepo *memAccountRepo
	sessionRepo *memSessionRepo
	auditRepo   *memAuditRepo
	creditRepo  *memCreditRepo
	authService *service.AuthService
	ledger      *service.LedgerService
	recorder    *audit.Recorder
	admin       *model.AdminAccount
}

func newTestEnv() *testEnv {
	admin := &model.AdminAccount{
		ID:           "admin-1",
		Email:        testEmail,
		PasswordHash: testPasswordHash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}

	accountRepo := newMemAccountRepo(admin)
	sessionRepo := newMemSessionRepo()
	auditRepo := &memAuditRepo{}
	creditRepo := newMemCreditRepo()

	return &testEnv{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		auditRepo:   auditRepo,
		creditRepo:  creditRepo,
		authService: service.NewAuthService(accountRepo, sessionRepo, testSecret, 8*time.Hour),
		ledger:      service.NewLedgerService(fakeTxRunner{}, creditRepo),
		recorder:    audit.NewRecorder(auditRepo),
		admin:       admin,
	}
}

func (e *testEnv) sessionMiddleware() func(http.Handler) http.Handler {
	return middleware.NewAdminSessionMiddleware(e.authService).Handler
}

func (e *testEnv) login(ctx context.Context) (string, error) {
	result, err := e.authService.Authenticate(ctx, testEmail, testPassword, "", "")
	if err != nil {
		return "", err
	}
	return result.Token, nil
}
