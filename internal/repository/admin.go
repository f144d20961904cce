package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cannaconvert/account-server-go/internal/model"
)

type AdminAccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.AdminAccount, error)
	FindByID(ctx context.Context, id string) (*model.AdminAccount, error)
	TouchLastLogin(ctx context.Context, id string) error
}

type adminAccountRepo struct {
	db *sqlx.DB
}

func NewAdminAccountRepository(db *sqlx.DB) AdminAccountRepository {
	return &adminAccountRepo{db: db}
}

func (r *adminAccountRepo) FindByEmail(ctx context.Context, email string) (*model.AdminAccount, error) {
	var account model.AdminAccount
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM admin_accounts WHERE email = $1
	`, email)
	return HandleNotFound(&account, err)
}

func (r *adminAccountRepo) FindByID(ctx context.Context, id string) (*model.AdminAccount, error) {
	var account model.AdminAccount
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM admin_accounts WHERE id = $1
	`, id)
	return HandleNotFound(&account, err)
}

func (r *adminAccountRepo) TouchLastLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admin_accounts SET last_login_at = $2 WHERE id = $1
	`, id, time.Now())
	return err
}
