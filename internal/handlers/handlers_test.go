package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	"github.com/SscSPs/donation_payments_app/internal/core/services"
	"github.com/SscSPs/donation_payments_app/internal/dto"
	"github.com/SscSPs/donation_payments_app/internal/handlers"
	"github.com/SscSPs/donation_payments_app/internal/middleware"
	"github.com/SscSPs/donation_payments_app/internal/payhere"
	"github.com/SscSPs/donation_payments_app/internal/platform/config"
	"github.com/SscSPs/donation_payments_app/internal/repositories/memory"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testMerchantID = "1211149"
	testSecret     = "test-merchant-secret"
	testAdminEmail = "admin@example.org"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "handler-test-secret",
		JWTExpiryDuration:  time.Hour,
		JWTIssuer:          "donation-payments-test",
		IsProduction:       true,
		AdminEmails:        []string{testAdminEmail},
		LoginRateLimit:     "1000-M",
		PaymentRateLimit:   "1000-M",
		MaxOrderIDAttempts: 5,
		Gateway: config.GatewayConfig{
			MerchantID:      testMerchantID,
			MerchantSecret:  testSecret,
			Sandbox:         true,
			Currency:        "LKR",
			ItemDescription: "NGO Donation",
			Country:         "Sri Lanka",
			ReturnURL:       "http://localhost:5000/donations",
			CancelURL:       "http://localhost:5000/donations",
			NotifyURL:       "http://localhost:5000/payment/notify",
		},
	}
}

func newRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))))
	container := services.NewServiceContainer(cfg, memory.NewRepositoryProvider())
	require.NoError(t, handlers.RegisterRoutes(r, cfg, container))
	return r
}

func doJSON(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type HandlersTestSuite struct {
	suite.Suite
	cfg        *config.Config
	router     *gin.Engine
	userToken  string
	otherToken string
	adminToken string
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (s *HandlersTestSuite) SetupTest() {
	s.cfg = testConfig()
	s.router = newRouter(s.T(), s.cfg)
	s.userToken = s.register("Nimal Perera", "nimal@example.org")
	s.otherToken = s.register("Kamala Silva", "kamala@example.org")
	s.adminToken = s.register("Site Admin", testAdminEmail)
}

func (s *HandlersTestSuite) register(name, email string) string {
	w := doJSON(s.router, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterAccountRequest{
		Name: name, Email: email, Phone: "0771234567", Password: "correct-horse",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.LoginResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().NotEmpty(resp.Token)
	return resp.Token
}

func (s *HandlersTestSuite) createPayment(token, amount string) *domain.PaymentForm {
	w := doJSON(s.router, http.MethodPost, "/api/v1/payments/create-payment", token, map[string]any{"amount": amount})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.CreateIntentResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().True(resp.Success)
	s.Require().NotNil(resp.Payment)
	return resp.Payment
}

func (s *HandlersTestSuite) notify(form *domain.PaymentForm, statusCode, paymentID string) *httptest.ResponseRecorder {
	sig, err := payhere.Sign(testSecret, form.MerchantID, form.OrderID, form.Amount, form.Currency, statusCode)
	s.Require().NoError(err)
	values := url.Values{
		"merchant_id":      {form.MerchantID},
		"order_id":         {form.OrderID},
		"payment_id":       {paymentID},
		"payhere_amount":   {form.Amount},
		"payhere_currency": {form.Currency},
		"status_code":      {statusCode},
		"md5sig":           {sig},
	}
	req := httptest.NewRequest(http.MethodPost, "/payment/notify", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) history(token, path string) dto.ListIntentsResponse {
	w := doJSON(s.router, http.MethodGet, path, token, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.ListIntentsResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *HandlersTestSuite) TestHealth() {
	w := doJSON(s.router, http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("OK", w.Body.String())
}

func (s *HandlersTestSuite) TestLogin() {
	w := doJSON(s.router, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "NIMAL@example.org", Password: "correct-horse"})
	s.Equal(http.StatusOK, w.Code)

	w = doJSON(s.router, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "nimal@example.org", Password: "wrong-password"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestRegister_DuplicateEmail() {
	w := doJSON(s.router, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterAccountRequest{
		Name: "Again", Email: "nimal@example.org", Password: "correct-horse",
	})
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlersTestSuite) TestCreatePayment_Success() {
	form := s.createPayment(s.userToken, "1500")

	s.True(strings.HasPrefix(form.OrderID, "ORDER_"))
	s.Equal("1500.00", form.Amount)
	s.Equal("LKR", form.Currency)
	s.Equal(testMerchantID, form.MerchantID)
	s.Equal("Nimal Perera", form.FirstName)
	s.Equal("N/A", form.Address)
	s.Equal("nimal@example.org", form.Email)

	expected, err := payhere.Sign(testSecret, testMerchantID, form.OrderID, "1500.00", "LKR")
	s.Require().NoError(err)
	s.Equal(expected, form.Hash)

	resp := s.history(s.userToken, "/api/v1/payments")
	s.Require().Len(resp.Payments, 1)
	s.Equal(form.OrderID, resp.Payments[0].OrderID)
	s.Equal(string(domain.PaymentPending), resp.Payments[0].Status)
}

func (s *HandlersTestSuite) TestCreatePayment_InvalidAmount() {
	for _, amount := range []any{"-5", "0", "abc", "10.001", nil} {
		w := doJSON(s.router, http.MethodPost, "/api/v1/payments/create-payment", s.userToken, map[string]any{"amount": amount})
		s.Equal(http.StatusBadRequest, w.Code, "amount %v", amount)
	}
	s.Empty(s.history(s.userToken, "/api/v1/payments").Payments)
}

func (s *HandlersTestSuite) TestCreatePayment_NonNumericAmountType() {
	for _, amount := range []any{true, map[string]any{"v": 1}, []int{1}} {
		w := doJSON(s.router, http.MethodPost, "/api/v1/payments/create-payment", s.userToken, map[string]any{"amount": amount})
		s.Require().Equal(http.StatusBadRequest, w.Code, "amount %v", amount)
		var resp dto.CreateIntentResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.False(resp.Success)
		s.Equal("Invalid amount", resp.Message)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/create-payment", strings.NewReader("{broken"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.userToken)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "Invalid request body")

	s.Empty(s.history(s.userToken, "/api/v1/payments").Payments)
}

func (s *HandlersTestSuite) TestCreatePayment_AdminForbidden() {
	w := doJSON(s.router, http.MethodPost, "/api/v1/payments/create-payment", s.adminToken, map[string]any{"amount": "10"})
	s.Equal(http.StatusForbidden, w.Code)
	s.JSONEq(`{"error":"Insufficient permissions"}`, w.Body.String())

	w = doJSON(s.router, http.MethodGet, "/api/v1/payments", s.adminToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	all := s.history(s.adminToken, "/api/v1/admin/payments")
	s.Empty(all.Payments)
}

func (s *HandlersTestSuite) TestCreatePayment_RequiresAuth() {
	w := doJSON(s.router, http.MethodPost, "/api/v1/payments/create-payment", "", map[string]any{"amount": "100"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestNotify_SuccessAppliesAndAlwaysOK() {
	form := s.createPayment(s.userToken, "250.50")

	w := s.notify(form, "2", "320025071278")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("OK", w.Body.String())

	resp := s.history(s.userToken, "/api/v1/payments")
	s.Require().Len(resp.Payments, 1)
	s.Equal(string(domain.PaymentSuccess), resp.Payments[0].Status)
	s.Require().NotNil(resp.Payments[0].PaymentID)
	s.Equal("320025071278", *resp.Payments[0].PaymentID)

	// A later failure for the same order never reverts the outcome.
	w = s.notify(form, "-2", "320025071279")
	s.Equal(http.StatusOK, w.Code)
	s.Equal(string(domain.PaymentSuccess), s.history(s.userToken, "/api/v1/payments").Payments[0].Status)
}

func (s *HandlersTestSuite) TestNotify_GarbageStillOK() {
	req := httptest.NewRequest(http.MethodPost, "/payment/notify", strings.NewReader("not a form%%%"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("OK", w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/payment/notify", strings.NewReader("{broken"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestNotify_BadSignatureLeavesPending() {
	form := s.createPayment(s.userToken, "100")
	form.MerchantID = "9999999"

	w := s.notify(form, "2", "1")
	s.Equal(http.StatusOK, w.Code)
	s.Equal(string(domain.PaymentPending), s.history(s.userToken, "/api/v1/payments").Payments[0].Status)
}

func (s *HandlersTestSuite) TestNotify_JSONBody() {
	form := s.createPayment(s.userToken, "75")
	sig, err := payhere.Sign(testSecret, form.MerchantID, form.OrderID, form.Amount, form.Currency, "-2")
	s.Require().NoError(err)

	body := `{"merchant_id":` + form.MerchantID + `,"order_id":"` + form.OrderID + `","payhere_amount":"` + form.Amount +
		`","payhere_currency":"LKR","status_code":-2,"md5sig":"` + sig + `"}`
	req := httptest.NewRequest(http.MethodPost, "/payment/notify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	s.Equal(string(domain.PaymentFailed), s.history(s.userToken, "/api/v1/payments").Payments[0].Status)
}

func (s *HandlersTestSuite) TestMarkPending() {
	form := s.createPayment(s.userToken, "100")

	w := doJSON(s.router, http.MethodPost, "/api/v1/payments/mark-pending", s.userToken, dto.MarkPendingRequest{OrderID: form.OrderID})
	s.Equal(http.StatusOK, w.Code)
	var resp dto.MarkPendingResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal(string(domain.PaymentPending), resp.Status)

	// Another account cannot see the order.
	w = doJSON(s.router, http.MethodPost, "/api/v1/payments/mark-pending", s.otherToken, dto.MarkPendingRequest{OrderID: form.OrderID})
	s.Equal(http.StatusNotFound, w.Code)

	w = doJSON(s.router, http.MethodPost, "/api/v1/payments/mark-pending", s.userToken, dto.MarkPendingRequest{OrderID: "ORDER_0_deadbeef"})
	s.Equal(http.StatusNotFound, w.Code)

	w = doJSON(s.router, http.MethodPost, "/api/v1/payments/mark-pending", s.userToken, map[string]string{})
	s.Equal(http.StatusBadRequest, w.Code)

	s.notify(form, "2", "42")
	w = doJSON(s.router, http.MethodPost, "/api/v1/payments/mark-pending", s.userToken, dto.MarkPendingRequest{OrderID: form.OrderID})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal(string(domain.PaymentSuccess), s.history(s.userToken, "/api/v1/payments").Payments[0].Status)
}

func (s *HandlersTestSuite) TestHistory_OwnOnlyAndPaged() {
	for i := 0; i < 3; i++ {
		s.createPayment(s.userToken, "10")
	}
	s.createPayment(s.otherToken, "20")

	first := s.history(s.userToken, "/api/v1/payments?limit=2")
	s.Len(first.Payments, 2)
	s.Require().NotNil(first.NextToken)

	second := s.history(s.userToken, "/api/v1/payments?limit=2&nextToken="+url.QueryEscape(*first.NextToken))
	s.Len(second.Payments, 1)
	s.Nil(second.NextToken)

	w := doJSON(s.router, http.MethodGet, "/api/v1/payments?nextToken=@@@", s.userToken, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestAdminRoutes() {
	form := s.createPayment(s.userToken, "10")
	s.createPayment(s.otherToken, "20")
	s.notify(form, "2", "77")

	w := doJSON(s.router, http.MethodGet, "/api/v1/admin/payments", s.userToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	all := s.history(s.adminToken, "/api/v1/admin/payments")
	s.Len(all.Payments, 2)

	succeeded := s.history(s.adminToken, "/api/v1/admin/payments?status=SUCCESS")
	s.Require().Len(succeeded.Payments, 1)
	s.Equal(form.OrderID, succeeded.Payments[0].OrderID)

	w = doJSON(s.router, http.MethodGet, "/api/v1/admin/payments/"+form.OrderID+"/notifications", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var notifications []domain.PaymentNotification
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &notifications))
	s.Require().Len(notifications, 1)
	s.Equal(domain.OutcomeApplied, notifications[0].Outcome)

	w = doJSON(s.router, http.MethodGet, "/api/v1/admin/payments/ORDER_0_00000000/notifications", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, w.Body.String())
}

func (s *HandlersTestSuite) TestAdminRoutes_UnknownOrderCallbacksAreListed() {
	stale := &domain.PaymentForm{MerchantID: testMerchantID, OrderID: "ORDER_0_deadbeef", Amount: "10.00", Currency: "LKR"}
	s.Equal(http.StatusOK, s.notify(stale, "2", "88").Code)

	w := doJSON(s.router, http.MethodGet, "/api/v1/admin/payments/"+stale.OrderID+"/notifications", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var notifications []domain.PaymentNotification
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &notifications))
	s.Require().Len(notifications, 1)
	s.Equal(domain.OutcomeUnknownOrder, notifications[0].Outcome)
	s.True(notifications[0].SignatureValid)
}

func (s *HandlersTestSuite) TestAdminRoutes_OversizedOrderIDIsRecorded() {
	longOrderID := "ORDER_" + strings.Repeat("9", 80)
	values := url.Values{
		"merchant_id":      {testMerchantID},
		"order_id":         {longOrderID},
		"payhere_amount":   {"10.00"},
		"payhere_currency": {"LKR"},
		"status_code":      {"2"},
		"md5sig":           {"00"},
	}
	req := httptest.NewRequest(http.MethodPost, "/payment/notify", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)

	w = doJSON(s.router, http.MethodGet, "/api/v1/admin/payments/"+longOrderID+"/notifications", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var notifications []domain.PaymentNotification
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &notifications))
	s.Require().Len(notifications, 1)
	s.Equal(domain.OutcomeUnparseable, notifications[0].Outcome)
}

func TestCreatePayment_GatewayNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.MerchantSecret = ""
	r := newRouter(t, cfg)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterAccountRequest{
		Name: "Donor", Email: "donor@example.org", Password: "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = doJSON(r, http.MethodPost, "/api/v1/payments/create-payment", login.Token, map[string]any{"amount": "100"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/payments", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"payments":[]`)
}

func TestLogin_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.LoginRateLimit = "2-M"
	r := newRouter(t, cfg)

	creds := dto.LoginRequest{Email: "nobody@example.org", Password: "whatever-pass"}
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodPost, "/api/v1/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodPost, "/api/v1/auth/login", "", creds).Code)
	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRegisterRoutes_BadRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.PaymentRateLimit = "lots"
	gin.SetMode(gin.TestMode)
	container := services.NewServiceContainer(cfg, memory.NewRepositoryProvider())
	assert.Error(t, handlers.RegisterRoutes(gin.New(), cfg, container))
}
