package model

import (
	"time"
)

type TransactionType string

const (
	TransactionBonus       TransactionType = "BONUS"
	TransactionPurchase    TransactionType = "PURCHASE"
	TransactionConsumption TransactionType = "CONSUMPTION"
	TransactionRefund      TransactionType = "REFUND"
	TransactionAdjustment  TransactionType = "ADJUSTMENT"
)

type CreditAccount struct {
	UserID    string    `db:"user_id" json:"userId"`
	Balance   int64     `db:"balance" json:"balance"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type CreditTransaction struct {
	ID             string          `db:"id" json:"id"`
	UserID         string          `db:"user_id" json:"userId"`
	Amount         int64           `db:"amount" json:"amount"`
	Type           TransactionType `db:"type" json:"type"`
	Description    string          `db:"description" json:"description"`
	Metadata       *string         `db:"metadata" json:"metadata,omitempty"`
	IdempotencyKey *string         `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}

type CreateTransactionParams struct {
	ID             string
	UserID         string
	Amount         int64
	Type           TransactionType
	Description    string
	Metadata       *string
	IdempotencyKey *string
}
