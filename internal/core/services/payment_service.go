package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/donation_payments_app/internal/apperrors"
	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	portsrepo "github.com/SscSPs/donation_payments_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/donation_payments_app/internal/core/ports/services"
	"github.com/SscSPs/donation_payments_app/internal/dto"
	"github.com/SscSPs/donation_payments_app/internal/utils/pagination"
)

const defaultPageSize = 20

type paymentService struct {
	BaseService
	paymentRepo      portsrepo.PaymentIntentRepositoryFacade
	notificationRepo portsrepo.NotificationRepository
}

// PaymentServiceOption is a functional option for configuring the payment service
type PaymentServiceOption func(*paymentService)

// WithPaymentClock overrides the clock used when touching intents.
func WithPaymentClock(now func() time.Time) PaymentServiceOption {
	return func(s *paymentService) {
		s.now = now
	}
}

// NewPaymentService creates the ledger read/write service.
func NewPaymentService(paymentRepo portsrepo.PaymentIntentRepositoryFacade, notificationRepo portsrepo.NotificationRepository, options ...PaymentServiceOption) portssvc.PaymentSvcFacade {
	svc := &paymentService{
		paymentRepo:      paymentRepo,
		notificationRepo: notificationRepo,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

func (s *paymentService) ListIntents(ctx context.Context, accountID *string, params dto.ListIntentsParams) (*dto.ListIntentsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	filter := domain.IntentFilter{AccountID: accountID, Limit: limit + 1}
	if params.Status != "" {
		status := domain.PaymentStatus(params.Status)
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, params.Status)
		}
		filter.Status = &status
	}
	if params.NextToken != "" {
		createdAt, orderID, err := pagination.DecodeToken(params.NextToken)
		if err != nil {
			return nil, apperrors.NewAppError(400, "invalid nextToken", fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		}
		filter.After = &domain.IntentCursor{CreatedAt: createdAt, OrderID: orderID}
	}

	intents, err := s.paymentRepo.ListIntents(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list payment intents")
		return nil, fmt.Errorf("failed to list payment intents: %w", err)
	}

	// One extra row was fetched to learn whether another page exists.
	var nextToken *string
	if len(intents) > limit {
		intents = intents[:limit]
		last := intents[len(intents)-1]
		token := pagination.EncodeToken(last.CreatedAt, last.OrderID)
		nextToken = &token
	}

	return &dto.ListIntentsResponse{
		Payments:  dto.ToPaymentIntentResponses(intents),
		NextToken: nextToken,
	}, nil
}

// ListNotifications does not require the intent to exist: callbacks for
// unknown orders are recorded too.
func (s *paymentService) ListNotifications(ctx context.Context, orderID string) ([]domain.PaymentNotification, error) {
	notifications, err := s.notificationRepo.ListNotificationsByOrderID(ctx, orderID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list notifications", slog.String("order_id", orderID))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *paymentService) MarkUnresolved(ctx context.Context, accountID string, orderID string) (*domain.PaymentIntent, error) {
	intent, err := s.paymentRepo.FindIntentByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// A foreign order is reported as missing so ids cannot be enumerated.
	if intent.AccountID != accountID {
		s.LogWarn(ctx, "Mark pending on another account's order", slog.String("order_id", orderID))
		return nil, apperrors.ErrNotFound
	}

	applied, current, err := s.paymentRepo.TouchPendingIntent(ctx, orderID, s.Now())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to mark intent pending", slog.String("order_id", orderID))
		return nil, fmt.Errorf("failed to mark intent pending: %w", err)
	}
	if !applied {
		s.LogInfo(ctx, "Mark pending refused on terminal intent",
			slog.String("order_id", orderID),
			slog.String("status", string(current.Status)))
		return current, apperrors.ErrAlreadyTerminal
	}

	s.LogInfo(ctx, "Intent left unresolved by payer", slog.String("order_id", orderID))
	return current, nil
}
