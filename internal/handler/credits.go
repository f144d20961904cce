package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cannaconvert/account-server-go/internal/config"
	apperrors "github.com/cannaconvert/account-server-go/internal/errors"
	"github.com/cannaconvert/account-server-go/internal/middleware"
	"github.com/cannaconvert/account-server-go/internal/model"
	"github.com/cannaconvert/account-server-go/internal/service"
)

type CreditsHandler struct {
	ledger            *service.LedgerService
	sessionMiddleware func(http.Handler) http.Handler
	billingEnabled    bool
}

func NewCreditsHandler(
	ledger *service.LedgerService,
	sessionMiddleware func(http.Handler) http.Handler,
	billingEnabled bool,
) *CreditsHandler {
	return &CreditsHandler{
		ledger:            ledger,
		sessionMiddleware: sessionMiddleware,
		billingEnabled:    billingEnabled,
	}
}

func (h *CreditsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.sessionMiddleware)
	r.Get("/balance", h.Balance)
	r.Post("/add-demo", h.AddDemo)
	r.Get("/transactions", h.Transactions)

	return r
}

func (h *CreditsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())

	account, err := h.ledger.GetBalance(r.Context(), admin.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":    account.UserID,
		"balance":   account.Balance,
		"updatedAt": account.UpdatedAt,
	})
}

// AddDemo grants demo credits to the caller. The endpoint exists for trying
// the product without payments and is disabled once billing is configured.
func (h *CreditsHandler) AddDemo(w http.ResponseWriter, r *http.Request) {
	if h.billingEnabled {
		writeError(w, apperrors.NotAvailable("Demo credits are not available"))
		return
	}

	admin := middleware.GetAdmin(r.Context())

	var req struct {
		Amount      json.Number `json:"amount"`
		Description string      `json:"description"`
	}
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		writeError(w, apperrors.InvalidAmount(config.DemoCreditsMin, config.DemoCreditsMax))
		return
	}

	// reject fractions and non-numeric values, not just out-of-range ones
	amount, err := req.Amount.Int64()
	if err != nil {
		writeError(w, apperrors.InvalidAmount(config.DemoCreditsMin, config.DemoCreditsMax))
		return
	}

	description := req.Description
	if description == "" {
		description = "Demo credit purchase"
	}

	result, err := h.ledger.AddCredits(r.Context(), service.AddCreditsParams{
		UserID:         admin.ID,
		Amount:         amount,
		Type:           model.TransactionPurchase,
		Description:    description,
		Metadata:       map[string]any{"demo": true},
		MaxAmount:      config.DemoCreditsMax,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"added":       amount,
		"newBalance":  result.NewBalance,
		"message":     "Demo credits added",
		"transaction": result.Transaction,
	})
}

func (h *CreditsHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())
	pagination := ParsePagination(r)

	history, err := h.ledger.GetHistory(r.Context(), admin.ID, pagination.Limit, pagination.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": history.Transactions,
		"pagination": map[string]any{
			"limit":   pagination.Limit,
			"offset":  pagination.Offset,
			"hasMore": history.HasMore,
		},
	})
}
