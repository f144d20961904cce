package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cannaconvert/account-server-go/internal/audit"
	"github.com/cannaconvert/account-server-go/internal/config"
	apperrors "github.com/cannaconvert/account-server-go/internal/errors"
	"github.com/cannaconvert/account-server-go/internal/middleware"
	"github.com/cannaconvert/account-server-go/internal/model"
	"github.com/cannaconvert/account-server-go/internal/repository"
	"github.com/cannaconvert/account-server-go/internal/service"
	"github.com/cannaconvert/account-server-go/internal/util"
)

var auditSeverities = []string{
	string(model.SeverityInfo),
	string(model.SeverityWarning),
	string(model.SeverityError),
}

var transactionTypes = []string{
	string(model.TransactionBonus),
	string(model.TransactionPurchase),
	string(model.TransactionConsumption),
	string(model.TransactionRefund),
	string(model.TransactionAdjustment),
}

// AdminHandler exposes back-office endpoints: the audit trail and manual
// ledger adjustments for any user.
type AdminHandler struct {
	ledger            *service.LedgerService
	auditRepo         repository.AuditLogRepository
	recorder          *audit.Recorder
	sessionMiddleware func(http.Handler) http.Handler
}

func NewAdminHandler(
	ledger *service.LedgerService,
	auditRepo repository.AuditLogRepository,
	recorder *audit.Recorder,
	sessionMiddleware func(http.Handler) http.Handler,
) *AdminHandler {
	return &AdminHandler{
		ledger:            ledger,
		auditRepo:         auditRepo,
		recorder:          recorder,
		sessionMiddleware: sessionMiddleware,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.sessionMiddleware)
	r.Get("/audit-logs", h.ListAuditLogs)
	r.Get("/credits", h.ListCreditTransactions)
	r.Post("/credits", h.AdjustCredits)

	return r
}

func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)
	query := r.URL.Query()

	filter := repository.AuditLogFilter{
		AdminID:    query.Get("adminId"),
		Action:     query.Get("action"),
		EntityType: query.Get("entityType"),
		Severity:   query.Get("severity"),
	}
	if !util.IsValidEnum(filter.Severity, auditSeverities) {
		writeError(w, apperrors.InvalidInput("severity", "unknown severity"))
		return
	}

	logs, total, err := h.auditRepo.FindAll(r.Context(), filter, pagination.Limit, pagination.Offset)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"logs":   logs,
		"total":  total,
		"limit":  pagination.Limit,
		"offset": pagination.Offset,
	})
}

func (h *AdminHandler) ListCreditTransactions(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)
	query := r.URL.Query()

	filter := repository.TransactionFilter{
		UserID: query.Get("userId"),
		Type:   query.Get("type"),
	}
	if !util.IsValidEnum(filter.Type, transactionTypes) {
		writeError(w, apperrors.InvalidInput("type", "unknown transaction type"))
		return
	}

	transactions, total, err := h.ledger.ListTransactions(r.Context(), filter, pagination.Limit, pagination.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"total":        total,
		"limit":        pagination.Limit,
		"offset":       pagination.Offset,
	})
}

// AdjustCredits applies a manual balance correction. Positive amounts grant,
// negative amounts deduct. Every adjustment lands in the audit trail with the
// acting admin.
func (h *AdminHandler) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())

	var req struct {
		UserID      string      `json:"userId"`
		Amount      json.Number `json:"amount"`
		Type        string      `json:"type"`
		Description string      `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "must be valid JSON"))
		return
	}
	if req.UserID == "" {
		writeError(w, apperrors.MissingRequired("userId"))
		return
	}
	if !util.IsValidEnum(req.Type, transactionTypes) {
		writeError(w, apperrors.InvalidInput("type", "unknown transaction type"))
		return
	}

	txnType := model.TransactionType(req.Type)
	if txnType == "" {
		txnType = model.TransactionAdjustment
	}

	amount, err := req.Amount.Int64()
	if err != nil || amount == 0 {
		writeError(w, apperrors.InvalidInput("amount", "must be a non-zero integer"))
		return
	}

	description := req.Description
	if description == "" {
		description = "Manual adjustment"
	}

	var result *service.MutationResult
	if amount > 0 {
		result, err = h.ledger.AddCredits(r.Context(), service.AddCreditsParams{
			UserID:      req.UserID,
			Amount:      amount,
			Type:        txnType,
			Description: description,
			Metadata:    map[string]any{"adjustedBy": admin.ID},
			MaxAmount:   config.AdjustmentCreditsMax,
		})
	} else {
		result, err = h.ledger.DeductCredits(r.Context(), service.DeductCreditsParams{
			UserID:      req.UserID,
			Amount:      -amount,
			Description: description,
			Metadata:    map[string]any{"adjustedBy": admin.ID},
			Type:        txnType,
		})
	}
	if err != nil {
		writeError(w, err)
		return
	}

	h.recorder.RecordFromRequest(r, audit.Entry{
		AdminID:    admin.ID,
		AdminEmail: admin.Email,
		Action:     audit.ActionCreditAdjustment,
		EntityType: audit.EntityCredits,
		EntityID:   req.UserID,
		Metadata: map[string]any{
			"amount":      amount,
			"description": description,
			"newBalance":  result.NewBalance,
		},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"balance":     result.NewBalance,
		"transaction": result.Transaction,
	})
}
