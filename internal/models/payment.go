package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentIntent is the row shape of the payment_intents table.
type PaymentIntent struct {
	OrderID       string          `db:"order_id"`
	AccountID     string          `db:"account_id"`
	Amount        decimal.Decimal `db:"amount"`
	CurrencyCode  string          `db:"currency_code"`
	Status        string          `db:"status"`
	GatewayTxnRef sql.NullString  `db:"gateway_txn_ref"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// PaymentNotification is the row shape of the payment_notifications table.
type PaymentNotification struct {
	NotificationID string         `db:"notification_id"`
	OrderID        sql.NullString `db:"order_id"`
	StatusCode     sql.NullString `db:"status_code"`
	GatewayTxnRef  sql.NullString `db:"gateway_txn_ref"`
	SignatureValid bool           `db:"signature_valid"`
	Outcome        string         `db:"outcome"`
	Detail         sql.NullString `db:"detail"`
	Payload        []byte         `db:"payload"` // jsonb
	ReceivedAt     time.Time      `db:"received_at"`
}
