package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/cannaconvert/account-server-go/internal/audit"
	apperrors "github.com/cannaconvert/account-server-go/internal/errors"
	"github.com/cannaconvert/account-server-go/internal/middleware"
	"github.com/cannaconvert/account-server-go/internal/model"
	"github.com/cannaconvert/account-server-go/internal/service"
)

type AuthHandler struct {
	authService  *service.AuthService
	recorder     *audit.Recorder
	loginLimiter *middleware.LoginRateLimiter
	sessionTTL   time.Duration
	isProduction bool
}

func NewAuthHandler(
	authService *service.AuthService,
	recorder *audit.Recorder,
	loginLimiter *middleware.LoginRateLimiter,
	sessionTTL time.Duration,
	isProduction bool,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		recorder:     recorder,
		loginLimiter: loginLimiter,
		sessionTTL:   sessionTTL,
		isProduction: isProduction,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.loginLimiter != nil {
		r.With(h.loginLimiter.Handler).Post("/login", h.Login)
	} else {
		r.Post("/login", h.Login)
	}
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)

	return r
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "must be valid JSON"))
		return
	}
	if req.Email == "" {
		writeError(w, apperrors.MissingRequired("email"))
		return
	}
	if req.Password == "" {
		writeError(w, apperrors.MissingRequired("password"))
		return
	}

	result, err := h.authService.Authenticate(r.Context(), req.Email, req.Password, audit.ClientIP(r), r.UserAgent())
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeInvalidCredentials {
			h.recorder.RecordFromRequest(r, audit.Entry{
				AdminEmail: req.Email,
				Action:     audit.ActionLoginFailed,
				EntityType: audit.EntityAuth,
				Severity:   model.SeverityWarning,
				Metadata:   map[string]any{"email": req.Email},
			})
		} else {
			log.Error().Err(err).Msg("login failed")
		}
		writeError(w, err)
		return
	}

	h.recorder.RecordFromRequest(r, audit.Entry{
		AdminID:    result.Admin.ID,
		AdminEmail: result.Admin.Email,
		Action:     audit.ActionLoginSuccess,
		EntityType: audit.EntityAuth,
	})

	// The token travels only in the cookie; /auth/me serves the admin object.
	middleware.SetSessionCookie(w, result.Token, h.sessionTTL, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
	})
}

// Logout always reports success, including for absent or already-revoked
// sessions.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r)
	if token != "" {
		if account, err := h.authService.Validate(r.Context(), token); err == nil && account != nil {
			h.recorder.RecordFromRequest(r, audit.Entry{
				AdminID:    account.ID,
				AdminEmail: account.Email,
				Action:     audit.ActionLogout,
				EntityType: audit.EntityAuth,
			})
		}
		if err := h.authService.Logout(r.Context(), token); err != nil {
			log.Error().Err(err).Msg("logout failed")
		}
	}

	middleware.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me reports the current session state. Missing, unknown and expired tokens
// all answer 401 with authenticated:false rather than an opaque error.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r)

	var account *model.AdminAccount
	if token != "" {
		var err error
		account, err = h.authService.Validate(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"authenticated": false,
			"error":         "Not authenticated",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"admin":         account,
	})
}
