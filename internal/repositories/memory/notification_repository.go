package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	portsrepo "github.com/SscSPs/donation_payments_app/internal/core/ports/repositories"
)

type NotificationRepository struct {
	mu  sync.Mutex
	log []domain.PaymentNotification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

var _ portsrepo.NotificationRepository = (*NotificationRepository)(nil)

func (r *NotificationRepository) SaveNotification(_ context.Context, n domain.PaymentNotification) error {
	n.Payload = maps.Clone(n.Payload)
	r.mu.Lock()
	r.log = append(r.log, n)
	r.mu.Unlock()
	return nil
}

func (r *NotificationRepository) ListNotificationsByOrderID(_ context.Context, orderID string) ([]domain.PaymentNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PaymentNotification
	for _, n := range r.log {
		if n.OrderID == orderID {
			out = append(out, n)
		}
	}
	return out, nil
}

// Len returns the number of recorded notifications.
func (r *NotificationRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.log)
}
