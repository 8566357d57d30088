package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/donation_payments_app/internal/core/domain"
)

// PaymentIntentReader defines read operations for the payment ledger
type PaymentIntentReader interface {
	// FindIntentByOrderID retrieves an intent by order id, or apperrors.ErrNotFound.
	FindIntentByOrderID(ctx context.Context, orderID string) (*domain.PaymentIntent, error)

	// ListIntents returns intents ordered by created_at then order_id, both descending.
	// It fetches at most filter.Limit rows.
	ListIntents(ctx context.Context, filter domain.IntentFilter) ([]domain.PaymentIntent, error)
}

// PaymentIntentWriter defines write operations for the payment ledger
type PaymentIntentWriter interface {
	// SaveIntent inserts a new PENDING intent. An existing order id yields apperrors.ErrDuplicate.
	SaveIntent(ctx context.Context, intent domain.PaymentIntent) error

	// TransitionIntent moves an intent out of PENDING atomically. applied is false
	// when the intent was no longer PENDING, in which case current holds the stored
	// state and nothing was written. gatewayTxnRef is recorded only when non-nil.
	TransitionIntent(ctx context.Context, orderID string, to domain.PaymentStatus, gatewayTxnRef *string, at time.Time) (applied bool, current *domain.PaymentIntent, err error)

	// TouchPendingIntent bumps updated_at of a PENDING intent and never changes its status.
	// applied is false when the intent is terminal.
	TouchPendingIntent(ctx context.Context, orderID string, at time.Time) (applied bool, current *domain.PaymentIntent, err error)
}

// PaymentIntentRepositoryFacade combines all payment-ledger repository interfaces
type PaymentIntentRepositoryFacade interface {
	PaymentIntentReader
	PaymentIntentWriter
}
