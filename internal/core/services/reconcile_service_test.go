package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	portssvc "github.com/SscSPs/donation_payments_app/internal/core/ports/services"
	"github.com/SscSPs/donation_payments_app/internal/core/services"
	"github.com/SscSPs/donation_payments_app/internal/dto"
	"github.com/SscSPs/donation_payments_app/internal/payhere"
	"github.com/SscSPs/donation_payments_app/internal/platform/config"
	"github.com/SscSPs/donation_payments_app/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const testOrderID = "ORDER_1700000000000_a1b2c3d4"

type ReconcileServiceTestSuite struct {
	suite.Suite
	ctx           context.Context
	gateway       config.GatewayConfig
	payments      *memory.PaymentRepository
	notifications *memory.NotificationRepository
	service       portssvc.CallbackReconcilerSvc
	createdAt     time.Time
	now           time.Time
}

func (suite *ReconcileServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.gateway = testGateway
	suite.gateway.NotifyToken = "relay-token"
	suite.payments = memory.NewPaymentRepository()
	suite.notifications = memory.NewNotificationRepository()
	suite.createdAt = time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	suite.now = suite.createdAt.Add(5 * time.Minute)
	suite.service = services.NewReconcileService(suite.gateway, suite.payments,
		services.WithNotificationLog(suite.notifications),
		services.WithReconcileClock(func() time.Time { return suite.now }),
	)

	suite.Require().NoError(suite.payments.SaveIntent(suite.ctx, domain.PaymentIntent{
		OrderID:      testOrderID,
		AccountID:    "acc-1",
		Amount:       decimal.NewFromInt(1500),
		CurrencyCode: "LKR",
		Status:       domain.PaymentPending,
		CreatedAt:    suite.createdAt,
		UpdatedAt:    suite.createdAt,
	}))
}

// signed builds a notification for the seeded intent with a valid md5sig.
func (suite *ReconcileServiceTestSuite) signed(status payhere.StatusCode) map[string]string {
	values := map[string]string{
		"merchant_id":      suite.gateway.MerchantID,
		"order_id":         testOrderID,
		"payment_id":       "320025071278",
		"payhere_amount":   "1500.00",
		"payhere_currency": "LKR",
		"status_code":      string(status),
	}
	suite.resign(values)
	return values
}

func (suite *ReconcileServiceTestSuite) resign(values map[string]string) {
	sig, err := payhere.Sign(suite.gateway.MerchantSecret,
		values["merchant_id"], values["order_id"], values["payhere_amount"], values["payhere_currency"], values["status_code"])
	suite.Require().NoError(err)
	values["md5sig"] = sig
}

func (suite *ReconcileServiceTestSuite) reconcile(values map[string]string, token string) domain.ReconcileOutcome {
	return suite.service.Reconcile(suite.ctx, dto.NotificationFromValues(values), values, token)
}

func (suite *ReconcileServiceTestSuite) intent() *domain.PaymentIntent {
	intent, err := suite.payments.FindIntentByOrderID(suite.ctx, testOrderID)
	suite.Require().NoError(err)
	return intent
}

func (suite *ReconcileServiceTestSuite) assertUntouched() {
	intent := suite.intent()
	suite.Equal(domain.PaymentPending, intent.Status)
	suite.Nil(intent.GatewayTxnRef)
	suite.Equal(suite.createdAt, intent.UpdatedAt)
}

func (suite *ReconcileServiceTestSuite) TestSuccessNotificationApplies() {
	outcome := suite.reconcile(suite.signed(payhere.StatusSuccess), "")

	suite.Equal(domain.OutcomeApplied, outcome)
	intent := suite.intent()
	suite.Equal(domain.PaymentSuccess, intent.Status)
	suite.Require().NotNil(intent.GatewayTxnRef)
	suite.Equal("320025071278", *intent.GatewayTxnRef)
	suite.Equal(suite.now, intent.UpdatedAt)
	suite.True(intent.Amount.Equal(decimal.NewFromInt(1500)))
	suite.Equal("LKR", intent.CurrencyCode)

	logged, err := suite.notifications.ListNotificationsByOrderID(suite.ctx, testOrderID)
	suite.Require().NoError(err)
	suite.Require().Len(logged, 1)
	suite.Equal(domain.OutcomeApplied, logged[0].Outcome)
	suite.True(logged[0].SignatureValid)
	suite.Equal("2", logged[0].Payload["status_code"])
}

func (suite *ReconcileServiceTestSuite) TestFailedNotificationApplies() {
	outcome := suite.reconcile(suite.signed(payhere.StatusFailed), "")

	suite.Equal(domain.OutcomeApplied, outcome)
	intent := suite.intent()
	suite.Equal(domain.PaymentFailed, intent.Status)
	suite.Nil(intent.GatewayTxnRef)
}

func (suite *ReconcileServiceTestSuite) TestNonTerminalStatusCodesAreIgnored() {
	for _, code := range []payhere.StatusCode{payhere.StatusPending, payhere.StatusCanceled, payhere.StatusChargedBack} {
		suite.Equal(domain.OutcomeIgnored, suite.reconcile(suite.signed(code), ""), "status %s", code)
	}
	suite.assertUntouched()
}

func (suite *ReconcileServiceTestSuite) TestDuplicateDeliveryIsIdempotent() {
	values := suite.signed(payhere.StatusSuccess)
	suite.Equal(domain.OutcomeApplied, suite.reconcile(values, ""))
	after := suite.intent()

	suite.Equal(domain.OutcomeAlreadyTerminal, suite.reconcile(values, ""))
	suite.Equal(after, suite.intent())
	suite.Equal(2, suite.notifications.Len())
}

func (suite *ReconcileServiceTestSuite) TestTerminalStateIsNeverOverwritten() {
	suite.Equal(domain.OutcomeApplied, suite.reconcile(suite.signed(payhere.StatusSuccess), ""))

	suite.now = suite.now.Add(time.Hour)
	suite.Equal(domain.OutcomeAlreadyTerminal, suite.reconcile(suite.signed(payhere.StatusFailed), ""))

	intent := suite.intent()
	suite.Equal(domain.PaymentSuccess, intent.Status)
	suite.Equal("320025071278", *intent.GatewayTxnRef)
}

func (suite *ReconcileServiceTestSuite) TestConcurrentDeliveriesApplyOnce() {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[domain.ReconcileOutcome]int{}
	)
	deliveries := []map[string]string{suite.signed(payhere.StatusSuccess), suite.signed(payhere.StatusFailed)}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			values := deliveries[i%2]
			outcome := suite.service.Reconcile(suite.ctx, dto.NotificationFromValues(values), values, "")
			mu.Lock()
			outcomes[outcome]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	suite.Equal(1, outcomes[domain.OutcomeApplied])
	suite.Equal(19, outcomes[domain.OutcomeAlreadyTerminal])
	suite.True(suite.intent().Status.IsTerminal())
}

func (suite *ReconcileServiceTestSuite) TestUnknownOrder() {
	values := suite.signed(payhere.StatusSuccess)
	values["order_id"] = "ORDER_missing"
	suite.resign(values)

	suite.Equal(domain.OutcomeUnknownOrder, suite.reconcile(values, ""))
	suite.assertUntouched()
}

func (suite *ReconcileServiceTestSuite) TestTamperedNotificationRejected() {
	values := suite.signed(payhere.StatusSuccess)
	values["status_code"] = "2"
	values["payhere_amount"] = "1.00"

	suite.Equal(domain.OutcomeSignatureMismatch, suite.reconcile(values, ""))
	suite.assertUntouched()

	logged, err := suite.notifications.ListNotificationsByOrderID(suite.ctx, testOrderID)
	suite.Require().NoError(err)
	suite.Require().Len(logged, 1)
	suite.False(logged[0].SignatureValid)
}

func (suite *ReconcileServiceTestSuite) TestLowercaseSignatureAccepted() {
	values := suite.signed(payhere.StatusSuccess)
	values["md5sig"] = strings.ToLower(values["md5sig"])
	suite.Equal(domain.OutcomeApplied, suite.reconcile(values, ""))
}

func (suite *ReconcileServiceTestSuite) TestForeignMerchantRejected() {
	values := suite.signed(payhere.StatusSuccess)
	values["merchant_id"] = "9999999"
	suite.resign(values)

	suite.Equal(domain.OutcomeSignatureMismatch, suite.reconcile(values, ""))
	suite.assertUntouched()
}

func (suite *ReconcileServiceTestSuite) TestAmountOrCurrencyMismatchRejected() {
	values := suite.signed(payhere.StatusSuccess)
	values["payhere_amount"] = "15.00"
	suite.resign(values)
	suite.Equal(domain.OutcomeAmountMismatch, suite.reconcile(values, ""))

	values = suite.signed(payhere.StatusSuccess)
	values["payhere_currency"] = "USD"
	suite.resign(values)
	suite.Equal(domain.OutcomeAmountMismatch, suite.reconcile(values, ""))

	suite.assertUntouched()
}

func (suite *ReconcileServiceTestSuite) TestEquivalentAmountFormatAccepted() {
	values := suite.signed(payhere.StatusSuccess)
	values["payhere_amount"] = "1500"
	suite.resign(values)
	suite.Equal(domain.OutcomeApplied, suite.reconcile(values, ""))
}

func (suite *ReconcileServiceTestSuite) TestUnsignedNotification() {
	values := suite.signed(payhere.StatusSuccess)
	delete(values, "md5sig")

	suite.Equal(domain.OutcomeSignatureMismatch, suite.reconcile(values, ""))
	suite.Equal(domain.OutcomeSignatureMismatch, suite.reconcile(values, "wrong-token"))
	suite.assertUntouched()

	suite.Equal(domain.OutcomeApplied, suite.reconcile(values, "relay-token"))
	suite.Equal(domain.PaymentSuccess, suite.intent().Status)
}

func (suite *ReconcileServiceTestSuite) TestUnsignedNotificationWithoutConfiguredToken() {
	gw := suite.gateway
	gw.NotifyToken = ""
	svc := services.NewReconcileService(gw, suite.payments)

	values := suite.signed(payhere.StatusSuccess)
	delete(values, "md5sig")
	outcome := svc.Reconcile(suite.ctx, dto.NotificationFromValues(values), values, "")

	suite.Equal(domain.OutcomeSignatureMismatch, outcome)
	suite.assertUntouched()
}

func (suite *ReconcileServiceTestSuite) TestUnparseableNotifications() {
	cases := map[string]func(map[string]string){
		"missing order id":     func(v map[string]string) { delete(v, "order_id") },
		"missing status":       func(v map[string]string) { delete(v, "status_code") },
		"unknown status":       func(v map[string]string) { v["status_code"] = "7" },
		"garbled amount":       func(v map[string]string) { v["payhere_amount"] = "fifteen" },
		"garbled currency":     func(v map[string]string) { v["payhere_currency"] = "LK" },
		"short signature":      func(v map[string]string) { v["md5sig"] = "ABC" },
		"non hex signature":    func(v map[string]string) { v["md5sig"] = "ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ" },
		"missing merchant id":  func(v map[string]string) { delete(v, "merchant_id") },
		"missing amount field": func(v map[string]string) { delete(v, "payhere_amount") },
	}
	for name, mutate := range cases {
		values := suite.signed(payhere.StatusSuccess)
		mutate(values)
		suite.Equal(domain.OutcomeUnparseable, suite.reconcile(values, ""), name)
	}
	suite.assertUntouched()
}

func (suite *ReconcileServiceTestSuite) TestStoreFailureIsSwallowed() {
	svc := services.NewReconcileService(suite.gateway, failingLedger{suite.payments},
		services.WithNotificationLog(suite.notifications))

	values := suite.signed(payhere.StatusSuccess)
	outcome := svc.Reconcile(suite.ctx, dto.NotificationFromValues(values), values, "")

	suite.Equal(domain.OutcomeError, outcome)
	suite.assertUntouched()
}

func TestReconcileServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconcileServiceTestSuite))
}

// failingLedger reads from the wrapped repository but fails every transition.
type failingLedger struct {
	*memory.PaymentRepository
}

func (failingLedger) TransitionIntent(context.Context, string, domain.PaymentStatus, *string, time.Time) (bool, *domain.PaymentIntent, error) {
	return false, nil, errors.New("database is unavailable")
}
