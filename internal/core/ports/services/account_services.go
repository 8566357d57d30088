package services

import (
	"context"

	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	"github.com/SscSPs/donation_payments_app/internal/dto"
)

// AccountReaderSvc resolves authenticated callers to their payer details.
type AccountReaderSvc interface {
	// ResolveAccount returns the payer fields for an account, or apperrors.ErrNotFound.
	ResolveAccount(ctx context.Context, accountID string) (*domain.Payer, error)
}

// AccountWriterSvc registers and authenticates accounts.
type AccountWriterSvc interface {
	// RegisterAccount creates an account; a taken email yields apperrors.ErrDuplicate.
	RegisterAccount(ctx context.Context, req dto.RegisterAccountRequest) (*domain.Account, error)

	// Authenticate checks credentials and returns apperrors.ErrUnauthorized on any mismatch.
	Authenticate(ctx context.Context, email, password string) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
