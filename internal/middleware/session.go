package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cannaconvert/account-server-go/internal/model"
)

const AdminSessionCookie = "admin_session"

type contextKey string

const AdminAccountContextKey contextKey = "adminAccount"

// GetAdmin returns the authenticated admin account placed in the context by
// AdminSessionMiddleware, or nil when the request is unauthenticated.
func GetAdmin(ctx context.Context) *model.AdminAccount {
	if account, ok := ctx.Value(AdminAccountContextKey).(*model.AdminAccount); ok {
		return account
	}
	return nil
}

// SessionValidator resolves a session token to an active admin account.
// Returns nil with no error for tokens that do not map to a live session.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*model.AdminAccount, error)
}

type AdminSessionMiddleware struct {
	validator SessionValidator
}

func NewAdminSessionMiddleware(validator SessionValidator) *AdminSessionMiddleware {
	return &AdminSessionMiddleware{validator: validator}
}

// Handler rejects requests that do not carry a valid admin session. The
// resolved account is stored in the request context for handlers.
func (m *AdminSessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		account, err := m.validator.Validate(r.Context(), token)
		if err != nil {
			log.Error().Err(err).Msg("admin session middleware: validation error")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Session validation failed",
			})
			return
		}

		if account == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		ctx := context.WithValue(r.Context(), AdminAccountContextKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractToken reads the session token from the request. The session cookie
// wins over an Authorization bearer header when both are present.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AdminSessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authz := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(authz, "Bearer "); found && token != "" {
		return token
	}

	return ""
}

func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminSessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
