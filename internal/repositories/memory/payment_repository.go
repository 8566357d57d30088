package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/donation_payments_app/internal/apperrors"
	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	portsrepo "github.com/SscSPs/donation_payments_app/internal/core/ports/repositories"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500
)

// PaymentRepository is the in-memory payment ledger.
type PaymentRepository struct {
	mu      sync.RWMutex
	intents map[string]domain.PaymentIntent
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{intents: make(map[string]domain.PaymentIntent)}
}

var _ portsrepo.PaymentIntentRepositoryFacade = (*PaymentRepository)(nil)

func (r *PaymentRepository) SaveIntent(_ context.Context, intent domain.PaymentIntent) error {
	if !intent.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.intents[intent.OrderID]; ok {
		return fmt.Errorf("%w: payment intent %s already exists", apperrors.ErrDuplicate, intent.OrderID)
	}
	r.intents[intent.OrderID] = copyIntent(intent)
	return nil
}

func (r *PaymentRepository) FindIntentByOrderID(_ context.Context, orderID string) (*domain.PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	intent, ok := r.intents[orderID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := copyIntent(intent)
	return &out, nil
}

func (r *PaymentRepository) ListIntents(_ context.Context, filter domain.IntentFilter) ([]domain.PaymentIntent, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	r.mu.RLock()
	matched := make([]domain.PaymentIntent, 0, len(r.intents))
	for _, intent := range r.intents {
		if filter.AccountID != nil && intent.AccountID != *filter.AccountID {
			continue
		}
		if filter.Status != nil && intent.Status != *filter.Status {
			continue
		}
		if filter.After != nil && !before(intent, *filter.After) {
			continue
		}
		matched = append(matched, copyIntent(intent))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.OrderID > b.OrderID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *PaymentRepository) TransitionIntent(_ context.Context, orderID string, to domain.PaymentStatus, gatewayTxnRef *string, at time.Time) (bool, *domain.PaymentIntent, error) {
	if !domain.CanTransition(domain.PaymentPending, to) {
		return false, nil, fmt.Errorf("%w: cannot transition to %s", apperrors.ErrValidation, to)
	}
	return r.updatePending(orderID, func(intent *domain.PaymentIntent) {
		intent.Status = to
		if gatewayTxnRef != nil {
			ref := *gatewayTxnRef
			intent.GatewayTxnRef = &ref
		}
		intent.UpdatedAt = at
	})
}

func (r *PaymentRepository) TouchPendingIntent(_ context.Context, orderID string, at time.Time) (bool, *domain.PaymentIntent, error) {
	return r.updatePending(orderID, func(intent *domain.PaymentIntent) {
		intent.UpdatedAt = at
	})
}

func (r *PaymentRepository) updatePending(orderID string, apply func(*domain.PaymentIntent)) (bool, *domain.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent, ok := r.intents[orderID]
	if !ok {
		return false, nil, apperrors.ErrNotFound
	}
	if intent.Status != domain.PaymentPending {
		out := copyIntent(intent)
		return false, &out, nil
	}
	apply(&intent)
	r.intents[orderID] = intent
	out := copyIntent(intent)
	return true, &out, nil
}

// before reports whether intent sorts after the cursor in descending order.
func before(intent domain.PaymentIntent, c domain.IntentCursor) bool {
	if intent.CreatedAt.Equal(c.CreatedAt) {
		return intent.OrderID < c.OrderID
	}
	return intent.CreatedAt.Before(c.CreatedAt)
}

func copyIntent(in domain.PaymentIntent) domain.PaymentIntent {
	if in.GatewayTxnRef != nil {
		ref := *in.GatewayTxnRef
		in.GatewayTxnRef = &ref
	}
	return in
}
