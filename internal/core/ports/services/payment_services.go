package services

import (
	"context"

	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	"github.com/SscSPs/donation_payments_app/internal/dto"
)

// IntentBuilderSvc records a PENDING intent and returns the signed gateway form.
type IntentBuilderSvc interface {
	CreateIntent(ctx context.Context, accountID string, req dto.CreateIntentRequest) (*domain.PaymentForm, error)
}

// CallbackReconcilerSvc applies gateway notifications to the ledger. It never
// fails; the outcome says what happened.
type CallbackReconcilerSvc interface {
	Reconcile(ctx context.Context, n dto.PaymentNotification, rawPayload map[string]string, notifyToken string) domain.ReconcileOutcome
}

// PaymentReaderSvc exposes donation history.
type PaymentReaderSvc interface {
	// ListIntents lists intents newest first. A nil accountID lists every account.
	ListIntents(ctx context.Context, accountID *string, params dto.ListIntentsParams) (*dto.ListIntentsResponse, error)

	// ListNotifications returns the callback audit log for one order, including
	// orders that have no intent.
	ListNotifications(ctx context.Context, orderID string) ([]domain.PaymentNotification, error)
}

// PaymentWriterSvc holds payer-initiated changes to an intent.
type PaymentWriterSvc interface {
	// MarkUnresolved records that the payer left checkout without a result. It never
	// changes the status; a terminal intent yields apperrors.ErrAlreadyTerminal.
	MarkUnresolved(ctx context.Context, accountID string, orderID string) (*domain.PaymentIntent, error)
}

// PaymentSvcFacade combines the ledger read and write services.
type PaymentSvcFacade interface {
	PaymentReaderSvc
	PaymentWriterSvc
}
