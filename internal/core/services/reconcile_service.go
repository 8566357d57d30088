package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/SscSPs/donation_payments_app/internal/apperrors"
	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	portsrepo "github.com/SscSPs/donation_payments_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/donation_payments_app/internal/core/ports/services"
	"github.com/SscSPs/donation_payments_app/internal/dto"
	"github.com/SscSPs/donation_payments_app/internal/payhere"
	"github.com/SscSPs/donation_payments_app/internal/platform/config"
	"github.com/SscSPs/donation_payments_app/internal/platform/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type reconcileService struct {
	BaseService
	gateway          config.GatewayConfig
	paymentRepo      portsrepo.PaymentIntentRepositoryFacade
	notificationRepo portsrepo.NotificationRepository
	validate         *validator.Validate
}

// ReconcileServiceOption is a functional option for configuring the reconciler
type ReconcileServiceOption func(*reconcileService)

// WithReconcileClock overrides the clock used for transition timestamps.
func WithReconcileClock(now func() time.Time) ReconcileServiceOption {
	return func(s *reconcileService) {
		s.now = now
	}
}

// WithNotificationLog records every callback in repo.
func WithNotificationLog(repo portsrepo.NotificationRepository) ReconcileServiceOption {
	return func(s *reconcileService) {
		s.notificationRepo = repo
	}
}

// NewReconcileService builds the callback reconciler. Without merchant
// credentials every notification is rejected as unauthenticated.
func NewReconcileService(gateway config.GatewayConfig, paymentRepo portsrepo.PaymentIntentRepositoryFacade, options ...ReconcileServiceOption) portssvc.CallbackReconcilerSvc {
	svc := &reconcileService{
		gateway:     gateway,
		paymentRepo: paymentRepo,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.CallbackReconcilerSvc = (*reconcileService)(nil)

// Reconcile applies one notification. It never returns an error: every path,
// including store failures, ends in an outcome that is logged, counted and
// appended to the notification log.
func (s *reconcileService) Reconcile(ctx context.Context, n dto.PaymentNotification, rawPayload map[string]string, notifyToken string) domain.ReconcileOutcome {
	record := domain.PaymentNotification{
		NotificationID: uuid.NewString(),
		OrderID:        n.OrderID,
		StatusCode:     n.StatusCode,
		GatewayTxnRef:  n.PaymentID,
		Payload:        maps.Clone(rawPayload),
		ReceivedAt:     s.Now(),
	}

	outcome, detail := s.reconcile(ctx, n, notifyToken, &record)
	record.Outcome = outcome
	record.Detail = detail

	metrics.NotificationsTotal.WithLabelValues(string(outcome)).Inc()
	s.logOutcome(ctx, n, outcome, detail)
	s.recordNotification(ctx, record)

	return outcome
}

func (s *reconcileService) reconcile(ctx context.Context, n dto.PaymentNotification, notifyToken string, record *domain.PaymentNotification) (domain.ReconcileOutcome, string) {
	if err := s.validate.Struct(n); err != nil {
		return domain.OutcomeUnparseable, err.Error()
	}
	amount, err := decimal.NewFromString(n.PayhereAmount)
	if err != nil {
		return domain.OutcomeUnparseable, fmt.Sprintf("payhere_amount %q is not a number", n.PayhereAmount)
	}
	code, _ := payhere.ParseStatusCode(n.StatusCode)

	if err := s.authenticate(n, notifyToken); err != nil {
		return domain.OutcomeSignatureMismatch, err.Error()
	}
	record.SignatureValid = true

	intent, err := s.paymentRepo.FindIntentByOrderID(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.OutcomeUnknownOrder, apperrors.ErrUnknownOrder.Error()
		}
		s.LogError(ctx, err, "Failed to look up intent for notification", slog.String("order_id", n.OrderID))
		return domain.OutcomeError, err.Error()
	}

	if intent.Status.IsTerminal() {
		return domain.OutcomeAlreadyTerminal, fmt.Sprintf("intent already %s", intent.Status)
	}

	if !intent.Amount.Equal(amount) || !strings.EqualFold(intent.CurrencyCode, n.PayhereCurrency) {
		return domain.OutcomeAmountMismatch, fmt.Errorf("%w: expected %s %s, got %s %s",
			apperrors.ErrAmountMismatch,
			payhere.FormatAmount(intent.Amount), intent.CurrencyCode,
			n.PayhereAmount, n.PayhereCurrency).Error()
	}

	var (
		target domain.PaymentStatus
		ref    *string
	)
	switch {
	case code.IsSuccess():
		target = domain.PaymentSuccess
		if n.PaymentID != "" {
			paymentID := n.PaymentID
			ref = &paymentID
		}
	case code.IsTerminalFailure():
		target = domain.PaymentFailed
	default:
		return domain.OutcomeIgnored, fmt.Sprintf("status_code %s does not move a pending intent", code)
	}

	applied, current, err := s.paymentRepo.TransitionIntent(ctx, n.OrderID, target, ref, s.Now())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.OutcomeUnknownOrder, apperrors.ErrUnknownOrder.Error()
		}
		s.LogError(ctx, err, "Failed to transition intent", slog.String("order_id", n.OrderID))
		return domain.OutcomeError, err.Error()
	}
	if !applied {
		// Lost the race to a concurrent delivery.
		return domain.OutcomeAlreadyTerminal, fmt.Sprintf("intent already %s", current.Status)
	}
	return domain.OutcomeApplied, fmt.Sprintf("PENDING -> %s", target)
}

// authenticate accepts a notification whose md5sig verifies, or one without
// md5sig that carries the configured notify token. Anything else is rejected.
func (s *reconcileService) authenticate(n dto.PaymentNotification, notifyToken string) error {
	if subtle.ConstantTimeCompare([]byte(n.MerchantID), []byte(s.gateway.MerchantID)) != 1 || s.gateway.MerchantID == "" {
		return fmt.Errorf("%w: merchant id mismatch", apperrors.ErrSignatureMismatch)
	}
	if n.Md5sig != "" {
		fields := payhere.NotificationFields{
			MerchantID: n.MerchantID,
			OrderID:    n.OrderID,
			Amount:     n.PayhereAmount,
			Currency:   n.PayhereCurrency,
			StatusCode: n.StatusCode,
		}
		if !payhere.VerifyNotification(s.gateway.MerchantSecret, fields, n.Md5sig) {
			return fmt.Errorf("%w: md5sig does not verify", apperrors.ErrSignatureMismatch)
		}
		return nil
	}
	if s.gateway.NotifyToken == "" || notifyToken == "" {
		return fmt.Errorf("%w: md5sig missing", apperrors.ErrSignatureMismatch)
	}
	if subtle.ConstantTimeCompare([]byte(notifyToken), []byte(s.gateway.NotifyToken)) != 1 {
		return fmt.Errorf("%w: notify token mismatch", apperrors.ErrSignatureMismatch)
	}
	return nil
}

func (s *reconcileService) logOutcome(ctx context.Context, n dto.PaymentNotification, outcome domain.ReconcileOutcome, detail string) {
	attrs := []any{
		slog.String("order_id", n.OrderID),
		slog.String("status_code", n.StatusCode),
		slog.String("outcome", string(outcome)),
		slog.String("detail", detail),
	}
	switch outcome {
	case domain.OutcomeApplied, domain.OutcomeAlreadyTerminal, domain.OutcomeIgnored:
		s.LogInfo(ctx, "Notification reconciled", attrs...)
	case domain.OutcomeError:
		s.GetLogger(ctx).Error("Notification not reconciled", attrs...)
	default:
		s.LogWarn(ctx, "Notification rejected", attrs...)
	}
}

func (s *reconcileService) recordNotification(ctx context.Context, record domain.PaymentNotification) {
	if s.notificationRepo == nil {
		return
	}
	if err := s.notificationRepo.SaveNotification(ctx, record); err != nil {
		s.LogError(ctx, err, "Failed to record notification",
			slog.String("order_id", record.OrderID),
			slog.String("notification_id", record.NotificationID))
	}
}
