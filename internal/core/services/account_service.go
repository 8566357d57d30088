package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/donation_payments_app/internal/apperrors"
	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	portsrepo "github.com/SscSPs/donation_payments_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/donation_payments_app/internal/core/ports/services"
	"github.com/SscSPs/donation_payments_app/internal/dto"
	"github.com/SscSPs/donation_payments_app/internal/utils"
	"github.com/google/uuid"
)

// selfRegistered is the audit actor for accounts created through sign-up.
const selfRegistered = "self"

type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	isAdmin     func(email string) bool
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithAdminPolicy decides which registering emails receive the admin role.
func WithAdminPolicy(isAdmin func(email string) bool) AccountServiceOption {
	return func(s *accountService) {
		s.isAdmin = isAdmin
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repo portsrepo.AccountRepositoryFacade, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo: repo,
		isAdmin:     func(string) bool { return false },
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) RegisterAccount(ctx context.Context, req dto.RegisterAccountRequest) (*domain.Account, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		return nil, fmt.Errorf("%w: name and email are required", apperrors.ErrValidation)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := domain.RoleUser
	if s.isAdmin(email) {
		role = domain.RoleAdmin
	}

	now := s.Now()
	account := domain.Account{
		AccountID:    uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Role:         role,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     selfRegistered,
			LastUpdatedAt: now,
			LastUpdatedBy: selfRegistered,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			s.LogWarn(ctx, "Registration with existing email", slog.String("email", email))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to save account")
		return nil, fmt.Errorf("failed to register account: %w", err)
	}

	s.LogInfo(ctx, "Account registered", slog.String("account_id", account.AccountID), slog.String("role", string(role)))
	return &account, nil
}

func (s *accountService) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		s.LogError(ctx, err, "Failed to look up account for login")
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		return nil, apperrors.ErrUnauthorized
	}
	return account, nil
}

func (s *accountService) ResolveAccount(ctx context.Context, accountID string) (*domain.Payer, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to resolve account", slog.String("account_id", accountID))
		}
		return nil, err
	}
	payer := account.Payer()
	return &payer, nil
}
