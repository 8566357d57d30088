// Package memory holds mutex-guarded in-process repositories with the same
// semantics as the pgsql ones. They back LEDGER_BACKEND=memory and tests.
package memory

import (
	portsrepo "github.com/SscSPs/donation_payments_app/internal/core/ports/repositories"
)

func NewRepositoryProvider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:      NewAccountRepository(),
		PaymentRepo:      NewPaymentRepository(),
		NotificationRepo: NewNotificationRepository(),
	}
}
