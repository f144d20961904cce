package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/cannaconvert/account-server-go/internal/errors"
	"github.com/cannaconvert/account-server-go/internal/model"
	"github.com/cannaconvert/account-server-go/internal/repository"
	"github.com/cannaconvert/account-server-go/internal/util"
)

// dummyPasswordHash is compared against when the account does not exist, so
// a login attempt costs one bcrypt comparison whether or not the email is
// known.
const dummyPasswordHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

type AuthResult struct {
	Admin     *model.AdminAccount
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	accountRepo   repository.AdminAccountRepository
	sessionRepo   repository.AdminSessionRepository
	sessionSecret string
	sessionTTL    time.Duration
}

func NewAuthService(
	accountRepo repository.AdminAccountRepository,
	sessionRepo repository.AdminSessionRepository,
	sessionSecret string,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		accountRepo:   accountRepo,
		sessionRepo:   sessionRepo,
		sessionSecret: sessionSecret,
		sessionTTL:    sessionTTL,
	}
}

// Authenticate verifies credentials and opens a session. Unknown email,
// inactive account and wrong password all fail with INVALID_CREDENTIALS so
// the response does not reveal which check failed. Audit reporting is the
// caller's responsibility.
func (s *AuthService) Authenticate(ctx context.Context, email, password, ipAddress, userAgent string) (*AuthResult, error) {
	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if account == nil {
		util.CheckPasswordHash(password, dummyPasswordHash)
		return nil, apperrors.InvalidCredentials()
	}

	if !util.CheckPasswordHash(password, account.PasswordHash) {
		return nil, apperrors.InvalidCredentials()
	}

	if !account.IsActive || !account.Role.IsAdmin() {
		return nil, apperrors.InvalidCredentials()
	}

	token, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	expiresAt := time.Now().Add(s.sessionTTL)
	params := model.CreateAdminSessionParams{
		AdminID:   account.ID,
		TokenHash: util.HmacSHA256(s.sessionSecret, token),
		ExpiresAt: expiresAt,
	}
	if ipAddress != "" {
		params.IPAddress = &ipAddress
	}
	if userAgent != "" {
		params.UserAgent = &userAgent
	}

	if _, err := s.sessionRepo.Create(ctx, params); err != nil {
		return nil, apperrors.Database(err)
	}

	if err := s.accountRepo.TouchLastLogin(ctx, account.ID); err != nil {
		log.Warn().Err(err).Str("adminId", account.ID).Msg("failed to update last login")
	}

	log.Info().
		Str("adminId", account.ID).
		Time("expiresAt", expiresAt).
		Msg("admin session created")

	return &AuthResult{
		Admin:     account,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate resolves a session token to its active admin account. Returns
// nil for unknown or expired tokens and for accounts that are no longer
// active admins. Validation is read-only: expiry is fixed-TTL and is never
// extended here.
func (s *AuthService) Validate(ctx context.Context, token string) (*model.AdminAccount, error) {
	if token == "" {
		return nil, nil
	}

	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	session, err := s.sessionRepo.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, nil
	}

	account, err := s.accountRepo.FindByID(ctx, session.AdminID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil || !account.IsActive || !account.Role.IsAdmin() {
		return nil, nil
	}

	return account, nil
}

// Logout revokes the session for token. Idempotent: revoking an absent or
// already-expired token is a no-op success.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	if err := s.sessionRepo.DeleteByTokenHash(ctx, tokenHash); err != nil {
		return apperrors.Database(err)
	}
	return nil
}
