package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the state of a payment intent.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// allowedTransitions lists every permitted status change. Anything absent is refused.
var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentSuccess, PaymentFailed},
}

// IsValid reports whether s is a known status.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentSuccess, PaymentFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to PaymentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentIntent is the ledger's unit of record, keyed by OrderID.
// OrderID, AccountID, Amount and CurrencyCode are write-once.
type PaymentIntent struct {
	OrderID       string          `json:"orderID"`
	AccountID     string          `json:"accountID"`
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currencyCode"`
	Status        PaymentStatus   `json:"status"`
	GatewayTxnRef *string         `json:"gatewayTxnRef,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// IntentCursor is the keyset position for descending (created_at, order_id) listing.
type IntentCursor struct {
	CreatedAt time.Time
	OrderID   string
}

// IntentFilter selects intents for listing. A nil AccountID lists every account.
type IntentFilter struct {
	AccountID *string
	Status    *PaymentStatus
	After     *IntentCursor
	Limit     int
}

// PaymentForm is the parameter set the gateway checkout needs. It is returned
// as data for the client to submit, never rendered server side.
type PaymentForm struct {
	Sandbox    bool   `json:"sandbox"`
	MerchantID string `json:"merchant_id"`
	ReturnURL  string `json:"return_url"`
	CancelURL  string `json:"cancel_url"`
	NotifyURL  string `json:"notify_url"`
	OrderID    string `json:"order_id"`
	Items      string `json:"items"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Hash       string `json:"hash"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
}
