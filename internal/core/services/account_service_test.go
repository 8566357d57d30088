package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/SscSPs/donation_payments_app/internal/apperrors"
	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	portssvc "github.com/SscSPs/donation_payments_app/internal/core/ports/services"
	"github.com/SscSPs/donation_payments_app/internal/core/services"
	"github.com/SscSPs/donation_payments_app/internal/dto"
	"github.com/SscSPs/donation_payments_app/internal/repositories/memory"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	service portssvc.AccountSvcFacade
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.service = services.NewAccountService(memory.NewAccountRepository(),
		services.WithAdminPolicy(func(email string) bool { return strings.EqualFold(email, "admin@ngo.lk") }))
}

func (suite *AccountServiceTestSuite) register(email string) *domain.Account {
	acc, err := suite.service.RegisterAccount(suite.ctx, dto.RegisterAccountRequest{
		Name:     "Nimal Perera",
		Email:    email,
		Phone:    "0771234567",
		Password: "correct horse battery",
	})
	suite.Require().NoError(err)
	return acc
}

func (suite *AccountServiceTestSuite) TestRegisterAndAuthenticate() {
	acc := suite.register("Nimal@Example.org")

	suite.NotEmpty(acc.AccountID)
	suite.Equal("nimal@example.org", acc.Email)
	suite.Equal(domain.RoleUser, acc.Role)
	suite.NotEqual("correct horse battery", acc.PasswordHash)

	got, err := suite.service.Authenticate(suite.ctx, "nimal@example.org", "correct horse battery")
	suite.Require().NoError(err)
	suite.Equal(acc.AccountID, got.AccountID)

	_, err = suite.service.Authenticate(suite.ctx, "nimal@example.org", "wrong password")
	suite.ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = suite.service.Authenticate(suite.ctx, "nobody@example.org", "correct horse battery")
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *AccountServiceTestSuite) TestRegisterDuplicateEmail() {
	suite.register("nimal@example.org")

	_, err := suite.service.RegisterAccount(suite.ctx, dto.RegisterAccountRequest{
		Name: "Other", Email: "NIMAL@example.org", Password: "another password",
	})
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *AccountServiceTestSuite) TestRegisterAdminByPolicy() {
	acc := suite.register("admin@ngo.lk")
	suite.Equal(domain.RoleAdmin, acc.Role)
}

func (suite *AccountServiceTestSuite) TestRegisterWeakPassword() {
	_, err := suite.service.RegisterAccount(suite.ctx, dto.RegisterAccountRequest{
		Name: "Nimal", Email: "nimal@example.org", Password: "short",
	})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountServiceTestSuite) TestResolveAccount() {
	acc := suite.register("nimal@example.org")

	payer, err := suite.service.ResolveAccount(suite.ctx, acc.AccountID)
	suite.Require().NoError(err)
	suite.Equal(domain.Payer{DisplayName: "Nimal Perera", Email: "nimal@example.org", Phone: "0771234567"}, *payer)

	_, err = suite.service.ResolveAccount(suite.ctx, "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
