package handlers

import (
	"errors"
	"net/http"

	"github.com/SscSPs/donation_payments_app/internal/apperrors"
	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	portssvc "github.com/SscSPs/donation_payments_app/internal/core/ports/services"
	"github.com/SscSPs/donation_payments_app/internal/dto"
	"github.com/SscSPs/donation_payments_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// PaymentHandler serves donation creation and history.
type PaymentHandler struct {
	intentService  portssvc.IntentBuilderSvc
	paymentService portssvc.PaymentSvcFacade
}

func NewPaymentHandler(is portssvc.IntentBuilderSvc, ps portssvc.PaymentSvcFacade) *PaymentHandler {
	return &PaymentHandler{intentService: is, paymentService: ps}
}

// registerPaymentRoutes wires the authenticated payment routes onto v1.
func registerPaymentRoutes(v1 *gin.RouterGroup, is portssvc.IntentBuilderSvc, ps portssvc.PaymentSvcFacade, paymentLimit gin.HandlerFunc) {
	h := NewPaymentHandler(is, ps)

	donorOnly := middleware.RequireRole(domain.RoleUser)

	payments := v1.Group("/payments")
	{
		payments.POST("/create-payment", donorOnly, paymentLimit, h.CreatePayment)
		payments.POST("/mark-pending", h.MarkPending)
		payments.GET("", donorOnly, h.ListMyPayments)
	}

	admin := v1.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
	{
		admin.GET("/payments", h.ListAllPayments)
		admin.GET("/payments/:orderID/notifications", h.ListNotifications)
	}
}

// CreatePayment godoc
// @Summary Create a donation payment
// @Description Records a PENDING payment intent and returns the signed gateway checkout parameters.
// @Tags payments
// @Accept json
// @Produce json
// @Param payment body dto.CreateIntentRequest true "Donation amount"
// @Success 200 {object} dto.CreateIntentResponse
// @Failure 400 {object} dto.CreateIntentResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} dto.CreateIntentResponse
// @Failure 503 {object} dto.CreateIntentResponse
// @Security BearerAuth
// @Router /payments/create-payment [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		message := "Invalid request body"
		if errors.Is(err, apperrors.ErrInvalidAmount) {
			message = "Invalid amount"
		}
		c.JSON(http.StatusBadRequest, dto.CreateIntentResponse{Success: false, Message: message})
		return
	}

	form, err := h.intentService.CreateIntent(c.Request.Context(), accountID, req)
	if err != nil {
		status, message := http.StatusInternalServerError, "Could not create payment"
		switch {
		case errors.Is(err, apperrors.ErrInvalidAmount):
			status, message = http.StatusBadRequest, "Invalid amount"
		case errors.Is(err, apperrors.ErrConfigurationMissing):
			status, message = http.StatusServiceUnavailable, "Payment gateway is not configured"
		case errors.Is(err, apperrors.ErrOrderIDConflict):
			message = "Could not allocate an order id, please try again"
		}
		if status == http.StatusInternalServerError {
			middleware.GetLoggerFromContext(c).Error("Create payment failed", "error", err)
		}
		c.JSON(status, dto.CreateIntentResponse{Success: false, Message: message})
		return
	}

	c.JSON(http.StatusOK, dto.CreateIntentResponse{Success: true, Payment: form})
}

// MarkPending godoc
// @Summary Mark a payment as unresolved
// @Description Called when the payer leaves checkout without a result. A PENDING intent stays PENDING; terminal intents are never changed.
// @Tags payments
// @Accept json
// @Produce json
// @Param request body dto.MarkPendingRequest true "Order"
// @Success 200 {object} dto.MarkPendingResponse
// @Failure 400 {object} dto.MarkPendingResponse
// @Failure 404 {object} dto.MarkPendingResponse
// @Failure 409 {object} dto.MarkPendingResponse
// @Security BearerAuth
// @Router /payments/mark-pending [post]
func (h *PaymentHandler) MarkPending(c *gin.Context) {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.MarkPendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.MarkPendingResponse{Success: false, Message: "order_id is required"})
		return
	}

	intent, err := h.paymentService.MarkUnresolved(c.Request.Context(), accountID, req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, dto.MarkPendingResponse{Success: false, Message: "Payment not found"})
		case errors.Is(err, apperrors.ErrAlreadyTerminal):
			resp := dto.MarkPendingResponse{Success: false, Message: "Payment is already finalised"}
			if intent != nil {
				resp.Status = string(intent.Status)
			}
			c.JSON(http.StatusConflict, resp)
		default:
			middleware.GetLoggerFromContext(c).Error("Mark pending failed", "error", err)
			c.JSON(http.StatusInternalServerError, dto.MarkPendingResponse{Success: false, Message: "Could not update payment"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.MarkPendingResponse{Success: true, Status: string(intent.Status)})
}

// ListMyPayments godoc
// @Summary List own donations
// @Description Lists the caller's payment intents, newest first.
// @Tags payments
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param nextToken query string false "Token from the previous page"
// @Param status query string false "PENDING, SUCCESS or FAILED"
// @Success 200 {object} dto.ListIntentsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) ListMyPayments(c *gin.Context) {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}
	h.list(c, &accountID)
}

// ListAllPayments godoc
// @Summary List all donations
// @Description Admin view of every payment intent, newest first, optionally filtered by status.
// @Tags admin
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param nextToken query string false "Token from the previous page"
// @Param status query string false "PENDING, SUCCESS or FAILED"
// @Success 200 {object} dto.ListIntentsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/payments [get]
func (h *PaymentHandler) ListAllPayments(c *gin.Context) {
	h.list(c, nil)
}

func (h *PaymentHandler) list(c *gin.Context, accountID *string) {
	var params dto.ListIntentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.paymentService.ListIntents(c.Request.Context(), accountID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list payments"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListNotifications godoc
// @Summary Notification audit log
// @Description Every gateway callback received for an order with its reconcile outcome, including callbacks for orders that have no intent.
// @Tags admin
// @Produce json
// @Param orderID path string true "Order ID"
// @Success 200 {array} domain.PaymentNotification
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/payments/{orderID}/notifications [get]
func (h *PaymentHandler) ListNotifications(c *gin.Context) {
	notifications, err := h.paymentService.ListNotifications(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("List notifications failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list notifications"})
		return
	}
	if notifications == nil {
		notifications = []domain.PaymentNotification{}
	}
	c.JSON(http.StatusOK, notifications)
}
