package model

import (
	"time"
)

type AuditSeverity string

const (
	SeverityInfo    AuditSeverity = "INFO"
	SeverityWarning AuditSeverity = "WARNING"
	SeverityError   AuditSeverity = "ERROR"
)

// AnonymousAdminID is recorded for unauthenticated attempts (e.g. failed logins).
const AnonymousAdminID = "ANONYMOUS"

type AuditLogEntry struct {
	ID         string        `db:"id" json:"id"`
	AdminID    string        `db:"admin_id" json:"adminId"`
	AdminEmail string        `db:"admin_email" json:"adminEmail"`
	Action     string        `db:"action" json:"action"`
	EntityType string        `db:"entity_type" json:"entityType"`
	EntityID   *string       `db:"entity_id" json:"entityId,omitempty"`
	Metadata   *string       `db:"metadata" json:"metadata,omitempty"`
	IPAddress  *string       `db:"ip_address" json:"ipAddress,omitempty"`
	UserAgent  *string       `db:"user_agent" json:"userAgent,omitempty"`
	Severity   AuditSeverity `db:"severity" json:"severity"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
}
