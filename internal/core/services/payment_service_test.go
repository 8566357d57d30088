package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/donation_payments_app/internal/apperrors"
	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	portssvc "github.com/SscSPs/donation_payments_app/internal/core/ports/services"
	"github.com/SscSPs/donation_payments_app/internal/core/services"
	"github.com/SscSPs/donation_payments_app/internal/dto"
	"github.com/SscSPs/donation_payments_app/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	ctx           context.Context
	payments      *memory.PaymentRepository
	notifications *memory.NotificationRepository
	service       portssvc.PaymentSvcFacade
	base          time.Time
	now           time.Time
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.payments = memory.NewPaymentRepository()
	suite.notifications = memory.NewNotificationRepository()
	suite.base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	suite.now = suite.base.Add(24 * time.Hour)
	suite.service = services.NewPaymentService(suite.payments, suite.notifications,
		services.WithPaymentClock(func() time.Time { return suite.now }))
}

func (suite *PaymentServiceTestSuite) seed(orderID, accountID string, offset time.Duration) {
	at := suite.base.Add(offset)
	suite.Require().NoError(suite.payments.SaveIntent(suite.ctx, domain.PaymentIntent{
		OrderID:      orderID,
		AccountID:    accountID,
		Amount:       decimal.RequireFromString("100.50"),
		CurrencyCode: "LKR",
		Status:       domain.PaymentPending,
		CreatedAt:    at,
		UpdatedAt:    at,
	}))
}

func (suite *PaymentServiceTestSuite) TestListIntents_OwnHistoryNewestFirst() {
	suite.seed("ORDER_1", "acc-1", 0)
	suite.seed("ORDER_2", "acc-1", time.Minute)
	suite.seed("ORDER_3", "acc-2", 2*time.Minute)

	owner := "acc-1"
	resp, err := suite.service.ListIntents(suite.ctx, &owner, dto.ListIntentsParams{})

	suite.Require().NoError(err)
	suite.Require().Len(resp.Payments, 2)
	suite.Equal("ORDER_2", resp.Payments[0].OrderID)
	suite.Equal("ORDER_1", resp.Payments[1].OrderID)
	suite.Equal("100.50", resp.Payments[0].Amount)
	suite.Equal("PENDING", resp.Payments[0].Status)
	suite.Nil(resp.NextToken)
}

func (suite *PaymentServiceTestSuite) TestListIntents_PagesWithToken() {
	for i := 0; i < 5; i++ {
		suite.seed(fmt.Sprintf("ORDER_%d", i), "acc-1", time.Duration(i)*time.Minute)
	}
	owner := "acc-1"

	var seen []string
	params := dto.ListIntentsParams{Limit: 2}
	for page := 0; page < 5; page++ {
		resp, err := suite.service.ListIntents(suite.ctx, &owner, params)
		suite.Require().NoError(err)
		for _, p := range resp.Payments {
			seen = append(seen, p.OrderID)
		}
		if resp.NextToken == nil {
			break
		}
		params.NextToken = *resp.NextToken
	}
	suite.Equal([]string{"ORDER_4", "ORDER_3", "ORDER_2", "ORDER_1", "ORDER_0"}, seen)
}

func (suite *PaymentServiceTestSuite) TestListIntents_AdminStatusFilter() {
	suite.seed("ORDER_1", "acc-1", 0)
	suite.seed("ORDER_2", "acc-2", time.Minute)
	_, _, err := suite.payments.TransitionIntent(suite.ctx, "ORDER_2", domain.PaymentFailed, nil, suite.now)
	suite.Require().NoError(err)

	resp, err := suite.service.ListIntents(suite.ctx, nil, dto.ListIntentsParams{Status: "FAILED"})
	suite.Require().NoError(err)
	suite.Require().Len(resp.Payments, 1)
	suite.Equal("ORDER_2", resp.Payments[0].OrderID)

	all, err := suite.service.ListIntents(suite.ctx, nil, dto.ListIntentsParams{})
	suite.Require().NoError(err)
	suite.Len(all.Payments, 2)
}

func (suite *PaymentServiceTestSuite) TestListIntents_BadInput() {
	_, err := suite.service.ListIntents(suite.ctx, nil, dto.ListIntentsParams{NextToken: "%%%"})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.ListIntents(suite.ctx, nil, dto.ListIntentsParams{Status: "REFUNDED"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PaymentServiceTestSuite) TestMarkUnresolved_Pending() {
	suite.seed("ORDER_1", "acc-1", 0)

	intent, err := suite.service.MarkUnresolved(suite.ctx, "acc-1", "ORDER_1")

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentPending, intent.Status)
	suite.Equal(suite.now, intent.UpdatedAt)
}

func (suite *PaymentServiceTestSuite) TestMarkUnresolved_TerminalRefused() {
	suite.seed("ORDER_1", "acc-1", 0)
	ref := "320025071278"
	_, _, err := suite.payments.TransitionIntent(suite.ctx, "ORDER_1", domain.PaymentSuccess, &ref, suite.base.Add(time.Minute))
	suite.Require().NoError(err)

	intent, err := suite.service.MarkUnresolved(suite.ctx, "acc-1", "ORDER_1")

	suite.ErrorIs(err, apperrors.ErrAlreadyTerminal)
	suite.Require().NotNil(intent)
	suite.Equal(domain.PaymentSuccess, intent.Status)

	stored, err := suite.payments.FindIntentByOrderID(suite.ctx, "ORDER_1")
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentSuccess, stored.Status)
	suite.Equal(suite.base.Add(time.Minute), stored.UpdatedAt)
}

func (suite *PaymentServiceTestSuite) TestMarkUnresolved_ForeignOrUnknownOrder() {
	suite.seed("ORDER_1", "acc-1", 0)

	_, err := suite.service.MarkUnresolved(suite.ctx, "acc-2", "ORDER_1")
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = suite.service.MarkUnresolved(suite.ctx, "acc-1", "ORDER_missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)

	stored, err := suite.payments.FindIntentByOrderID(suite.ctx, "ORDER_1")
	suite.Require().NoError(err)
	suite.Equal(suite.base, stored.UpdatedAt)
}

func (suite *PaymentServiceTestSuite) TestListNotifications() {
	suite.seed("ORDER_1", "acc-1", 0)
	suite.Require().NoError(suite.notifications.SaveNotification(suite.ctx, domain.PaymentNotification{
		NotificationID: "n-1",
		OrderID:        "ORDER_1",
		Outcome:        domain.OutcomeIgnored,
		ReceivedAt:     suite.now,
	}))

	got, err := suite.service.ListNotifications(suite.ctx, "ORDER_1")
	suite.Require().NoError(err)
	suite.Require().Len(got, 1)
	suite.Equal("n-1", got[0].NotificationID)

	got, err = suite.service.ListNotifications(suite.ctx, "ORDER_never_seen")
	suite.Require().NoError(err)
	suite.Empty(got)
}

func (suite *PaymentServiceTestSuite) TestListNotifications_UnknownOrderIsVisible() {
	suite.Require().NoError(suite.notifications.SaveNotification(suite.ctx, domain.PaymentNotification{
		NotificationID: "n-unknown",
		OrderID:        "ORDER_stale",
		Outcome:        domain.OutcomeUnknownOrder,
		ReceivedAt:     suite.now,
	}))

	got, err := suite.service.ListNotifications(suite.ctx, "ORDER_stale")
	suite.Require().NoError(err)
	suite.Require().Len(got, 1)
	suite.Equal(domain.OutcomeUnknownOrder, got[0].Outcome)
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
