package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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
	"github.com/shopspring/decimal"
)

const (
	// DefaultMaxOrderIDAttempts bounds order id regeneration on collision.
	DefaultMaxOrderIDAttempts = 5
	placeholderAddress        = "N/A"
)

// MaxDonationAmount is the exclusive upper bound on a single donation.
var MaxDonationAmount = decimal.NewFromInt(1_000_000_000)

// ParseAmount parses a donation amount. It must be positive, below
// MaxDonationAmount and carry at most two fractional digits.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", apperrors.ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", apperrors.ErrInvalidAmount, raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrInvalidAmount)
	}
	if !amount.Equal(amount.Truncate(2)) {
		return decimal.Zero, fmt.Errorf("%w: amount must have at most two decimal places", apperrors.ErrInvalidAmount)
	}
	if amount.GreaterThanOrEqual(MaxDonationAmount) {
		return decimal.Zero, fmt.Errorf("%w: amount must be below %s", apperrors.ErrInvalidAmount, MaxDonationAmount.String())
	}
	return amount, nil
}

type intentService struct {
	BaseService
	gateway     config.GatewayConfig
	paymentRepo portsrepo.PaymentIntentWriter
	accounts    portssvc.AccountReaderSvc
	newOrderID  OrderIDGenerator
	maxAttempts int
}

// IntentServiceOption is a functional option for configuring the intent builder
type IntentServiceOption func(*intentService)

// WithOrderIDGenerator replaces NewOrderID.
func WithOrderIDGenerator(gen OrderIDGenerator) IntentServiceOption {
	return func(s *intentService) {
		s.newOrderID = gen
	}
}

// WithMaxOrderIDAttempts sets how many order ids are tried before giving up.
func WithMaxOrderIDAttempts(n int) IntentServiceOption {
	return func(s *intentService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithIntentClock overrides the clock used for order ids and timestamps.
func WithIntentClock(now func() time.Time) IntentServiceOption {
	return func(s *intentService) {
		s.now = now
	}
}

// NewIntentService builds the intent builder. It fails with
// apperrors.ErrConfigurationMissing when the merchant credentials are absent.
func NewIntentService(gateway config.GatewayConfig, paymentRepo portsrepo.PaymentIntentWriter, accounts portssvc.AccountReaderSvc, options ...IntentServiceOption) (portssvc.IntentBuilderSvc, error) {
	if err := gateway.Validate(); err != nil {
		return nil, err
	}
	svc := &intentService{
		gateway:     gateway,
		paymentRepo: paymentRepo,
		accounts:    accounts,
		newOrderID:  NewOrderID,
		maxAttempts: DefaultMaxOrderIDAttempts,
	}
	for _, option := range options {
		option(svc)
	}
	return svc, nil
}

var _ portssvc.IntentBuilderSvc = (*intentService)(nil)

func (s *intentService) CreateIntent(ctx context.Context, accountID string, req dto.CreateIntentRequest) (*domain.PaymentForm, error) {
	amount, err := ParseAmount(req.Amount.String())
	if err != nil {
		s.LogDebug(ctx, "Rejected donation amount", slog.String("amount", req.Amount.String()))
		return nil, err
	}

	payer, err := s.accounts.ResolveAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payer: %w", err)
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		now := s.Now()
		orderID, err := s.newOrderID(now)
		if err != nil {
			s.LogError(ctx, err, "Failed to generate order id")
			return nil, fmt.Errorf("failed to generate order id: %w", err)
		}

		hash, err := payhere.SignRequest(s.gateway.MerchantSecret, payhere.RequestFields{
			MerchantID: s.gateway.MerchantID,
			OrderID:    orderID,
			Amount:     amount,
			Currency:   s.gateway.Currency,
		})
		if err != nil {
			return nil, err
		}

		intent := domain.PaymentIntent{
			OrderID:      orderID,
			AccountID:    accountID,
			Amount:       amount,
			CurrencyCode: s.gateway.Currency,
			Status:       domain.PaymentPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err = s.paymentRepo.SaveIntent(ctx, intent)
		if errors.Is(err, apperrors.ErrDuplicate) {
			metrics.OrderIDCollisionsTotal.Inc()
			s.LogWarn(ctx, "Order id collision, regenerating", slog.String("order_id", orderID), slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			s.LogError(ctx, err, "Failed to record payment intent", slog.String("order_id", orderID))
			return nil, fmt.Errorf("failed to record payment intent: %w", err)
		}

		metrics.IntentsCreatedTotal.Inc()
		s.LogInfo(ctx, "Payment intent created",
			slog.String("order_id", orderID),
			slog.String("account_id", accountID),
			slog.String("amount", payhere.FormatAmount(amount)))

		return s.buildForm(intent, *payer, hash), nil
	}

	s.LogError(ctx, apperrors.ErrOrderIDConflict, "Exhausted order id attempts", slog.Int("attempts", s.maxAttempts))
	return nil, apperrors.ErrOrderIDConflict
}

func (s *intentService) buildForm(intent domain.PaymentIntent, payer domain.Payer, hash string) *domain.PaymentForm {
	return &domain.PaymentForm{
		Sandbox:    s.gateway.Sandbox,
		MerchantID: s.gateway.MerchantID,
		ReturnURL:  s.gateway.ReturnURL,
		CancelURL:  s.gateway.CancelURL,
		NotifyURL:  s.gateway.NotifyURL,
		OrderID:    intent.OrderID,
		Items:      s.gateway.ItemDescription,
		Amount:     payhere.FormatAmount(intent.Amount),
		Currency:   intent.CurrencyCode,
		Hash:       hash,
		FirstName:  payer.DisplayName,
		LastName:   "",
		Email:      payer.Email,
		Phone:      payer.Phone,
		Address:    placeholderAddress,
		City:       placeholderAddress,
		Country:    s.gateway.Country,
	}
}

// unavailableIntentService stands in when the gateway is not configured.
type unavailableIntentService struct {
	err error
}

// NewUnavailableIntentService returns an intent builder that always fails with cause.
func NewUnavailableIntentService(cause error) portssvc.IntentBuilderSvc {
	return &unavailableIntentService{err: cause}
}

func (s *unavailableIntentService) CreateIntent(context.Context, string, dto.CreateIntentRequest) (*domain.PaymentForm, error) {
	return nil, s.err
}
