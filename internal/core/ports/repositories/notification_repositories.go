package repositories

import (
	"context"

	"github.com/SscSPs/donation_payments_app/internal/core/domain"
)

// NotificationRepository stores the audit log of gateway callbacks.
type NotificationRepository interface {
	SaveNotification(ctx context.Context, n domain.PaymentNotification) error
	ListNotificationsByOrderID(ctx context.Context, orderID string) ([]domain.PaymentNotification, error)
}
