package model

import (
	"time"
)

type AdminRole string

const (
	RoleSuperAdmin AdminRole = "SUPER_ADMIN"
	RoleAdmin      AdminRole = "ADMIN"
)

func (r AdminRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type AdminAccount struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Name         *string    `db:"name" json:"name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         AdminRole  `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

type AdminSession struct {
	ID        string    `db:"id" json:"id"`
	AdminID   string    `db:"admin_id" json:"adminId"`
	TokenHash string    `db:"token_hash" json:"-"`
	IPAddress *string   `db:"ip_address" json:"ipAddress,omitempty"`
	UserAgent *string   `db:"user_agent" json:"userAgent,omitempty"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateAdminSessionParams struct {
	AdminID   string
	TokenHash string
	IPAddress *string
	UserAgent *string
	ExpiresAt time.Time
}
