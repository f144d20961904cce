package audit

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/cannaconvert/account-server-go/internal/model"
	"github.com/cannaconvert/account-server-go/internal/repository"
)

// Security-relevant actions recorded in the audit trail.
const (
	ActionLoginSuccess     = "LOGIN_SUCCESS"
	ActionLoginFailed      = "LOGIN_FAILED"
	ActionLogout           = "LOGOUT"
	ActionCreditAdjustment = "CREDIT_ADJUSTMENT"
)

// Entity types referenced by audit entries.
const (
	EntityAuth    = "AUTH"
	EntityCredits = "CREDITS"
)

type Entry struct {
	AdminID    string
	AdminEmail string
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]any
	IPAddress  string
	UserAgent  string
	Severity   model.AuditSeverity
}

// Recorder appends audit entries to persistent storage and mirrors them to
// the structured log. Recording is best-effort: a failed write is logged and
// swallowed so it can never fail the operation being audited.
type Recorder struct {
	repo repository.AuditLogRepository
}

func NewRecorder(repo repository.AuditLogRepository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if entry.AdminID == "" {
		entry.AdminID = model.AnonymousAdminID
	}
	if entry.Severity == "" {
		entry.Severity = model.SeverityInfo
	}

	logEvent := log.Info()
	if entry.Severity == model.SeverityWarning {
		logEvent = log.Warn()
	} else if entry.Severity == model.SeverityError {
		logEvent = log.Error()
	}
	logEvent.
		Str("audit", "security").
		Str("action", entry.Action).
		Str("adminId", entry.AdminID).
		Str("entityType", entry.EntityType).
		Msg("security audit event")

	row := model.AuditLogEntry{
		AdminID:    entry.AdminID,
		AdminEmail: entry.AdminEmail,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		Severity:   entry.Severity,
	}
	if entry.EntityID != "" {
		row.EntityID = &entry.EntityID
	}
	if entry.IPAddress != "" {
		row.IPAddress = &entry.IPAddress
	}
	if entry.UserAgent != "" {
		row.UserAgent = &entry.UserAgent
	}
	if len(entry.Metadata) > 0 {
		if data, err := json.Marshal(entry.Metadata); err == nil {
			s := string(data)
			row.Metadata = &s
		}
	}

	if err := r.repo.Insert(ctx, row); err != nil {
		log.Error().Err(err).Str("action", entry.Action).Msg("failed to persist audit entry")
	}
}

// RecordFromRequest fills IP and user agent from the request before recording.
func (r *Recorder) RecordFromRequest(req *http.Request, entry Entry) {
	entry.IPAddress = ClientIP(req)
	entry.UserAgent = req.UserAgent()
	r.Record(req.Context(), entry)
}

func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
