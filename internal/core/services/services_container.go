package services

import (
	"log/slog"

	portsrepo "github.com/SscSPs/donation_payments_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/donation_payments_app/internal/core/ports/services"
	"github.com/SscSPs/donation_payments_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// A missing gateway configuration does not stop the process: payment creation
// answers with ErrConfigurationMissing while everything else keeps working.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(repos.AccountRepo, WithAdminPolicy(cfg.IsAdminEmail))

	gateway := cfg.PaymentGateway()
	intent, err := NewIntentService(gateway, repos.PaymentRepo, container.Account,
		WithMaxOrderIDAttempts(cfg.MaxOrderIDAttempts),
	)
	if err != nil {
		slog.Error("Payment creation disabled", slog.String("error", err.Error()))
		intent = NewUnavailableIntentService(err)
	}
	container.Intent = intent

	container.Reconciler = NewReconcileService(gateway, repos.PaymentRepo, WithNotificationLog(repos.NotificationRepo))
	container.Payment = NewPaymentService(repos.PaymentRepo, repos.NotificationRepo)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade      = (*accountService)(nil)
	_ portssvc.IntentBuilderSvc      = (*intentService)(nil)
	_ portssvc.IntentBuilderSvc      = (*unavailableIntentService)(nil)
	_ portssvc.CallbackReconcilerSvc = (*reconcileService)(nil)
	_ portssvc.PaymentSvcFacade      = (*paymentService)(nil)
)
