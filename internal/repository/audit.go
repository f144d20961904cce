package repository

import (
	"context"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/cannaconvert/account-server-go/internal/model"
)

// AuditLogFilter narrows audit listings. Zero values match all.
type AuditLogFilter struct {
	AdminID    string
	Action     string
	EntityType string
	Severity   string
}

type AuditLogRepository interface {
	// Insert appends an entry. The audit table is append-only: entries are
	// never updated or deleted by this service.
	Insert(ctx context.Context, entry model.AuditLogEntry) error
	FindAll(ctx context.Context, filter AuditLogFilter, limit, offset int) ([]model.AuditLogEntry, int, error)
}

type auditLogRepo struct {
	db *sqlx.DB
}

func NewAuditLogRepository(db *sqlx.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Insert(ctx context.Context, entry model.AuditLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (admin_id, admin_email, action, entity_type, entity_id, metadata, ip_address, user_agent, severity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.AdminID, entry.AdminEmail, entry.Action, entry.EntityType, entry.EntityID,
		entry.Metadata, entry.IPAddress, entry.UserAgent, entry.Severity)
	return err
}

func (r *auditLogRepo) FindAll(ctx context.Context, filter AuditLogFilter, limit, offset int) ([]model.AuditLogEntry, int, error) {
	query := `SELECT * FROM audit_logs WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.AdminID != "" {
		query += ` AND admin_id = $` + strconv.Itoa(argIndex)
		countQuery += ` AND admin_id = $` + strconv.Itoa(argIndex)
		args = append(args, filter.AdminID)
		argIndex++
	}

	if filter.Action != "" {
		query += ` AND action = $` + strconv.Itoa(argIndex)
		countQuery += ` AND action = $` + strconv.Itoa(argIndex)
		args = append(args, filter.Action)
		argIndex++
	}

	if filter.EntityType != "" {
		query += ` AND entity_type = $` + strconv.Itoa(argIndex)
		countQuery += ` AND entity_type = $` + strconv.Itoa(argIndex)
		args = append(args, filter.EntityType)
		argIndex++
	}

	if filter.Severity != "" {
		query += ` AND severity = $` + strconv.Itoa(argIndex)
		countQuery += ` AND severity = $` + strconv.Itoa(argIndex)
		args = append(args, filter.Severity)
		argIndex++
	}

	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argIndex) + ` OFFSET $` + strconv.Itoa(argIndex+1)
	args = append(args, limit, offset)

	entries := []model.AuditLogEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, err
	}

	var total int
	countArgs := args[:len(args)-2]
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
