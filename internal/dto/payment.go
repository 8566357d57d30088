package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/donation_payments_app/internal/apperrors"
	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	"github.com/SscSPs/donation_payments_app/internal/payhere"
)

// AmountInput accepts a donation amount sent either as a JSON number or a JSON
// string and keeps its literal text, so no float rounding happens before parsing.
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: amount must be a number or a numeric string", apperrors.ErrInvalidAmount)
	}
	*a = AmountInput(n.String())
	return nil
}

func (a AmountInput) String() string { return string(a) }

// CreateIntentRequest is the body of POST /payments/create-payment.
type CreateIntentRequest struct {
	Amount AmountInput `json:"amount"`
}

// CreateIntentResponse wraps the gateway form for the client.
type CreateIntentResponse struct {
	Success bool                `json:"success"`
	Payment *domain.PaymentForm `json:"payment,omitempty"`
	Message string              `json:"message,omitempty"`
}

// MarkPendingRequest is the body of POST /payments/mark-pending.
type MarkPendingRequest struct {
	OrderID string `json:"order_id" binding:"required,max=64"`
}

// MarkPendingResponse reports the intent status after a mark-unresolved request.
type MarkPendingResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// ListIntentsParams are the query parameters of the history endpoints.
type ListIntentsParams struct {
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken string `form:"nextToken"`
	Status    string `form:"status" binding:"omitempty,oneof=PENDING SUCCESS FAILED"`
}

// PaymentIntentResponse is one row of donation history.
type PaymentIntentResponse struct {
	OrderID   string    `json:"orderId"`
	AccountID string    `json:"accountId"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	PaymentID *string   `json:"paymentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListIntentsResponse is a page of donation history.
type ListIntentsResponse struct {
	Payments  []PaymentIntentResponse `json:"payments"`
	NextToken *string                 `json:"nextToken,omitempty"`
}

// ToPaymentIntentResponse converts a domain intent for output.
func ToPaymentIntentResponse(p domain.PaymentIntent) PaymentIntentResponse {
	return PaymentIntentResponse{
		OrderID:   p.OrderID,
		AccountID: p.AccountID,
		Amount:    payhere.FormatAmount(p.Amount),
		Currency:  p.CurrencyCode,
		Status:    string(p.Status),
		PaymentID: p.GatewayTxnRef,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToPaymentIntentResponses converts a slice of domain intents for output.
func ToPaymentIntentResponses(ps []domain.PaymentIntent) []PaymentIntentResponse {
	out := make([]PaymentIntentResponse, len(ps))
	for i, p := range ps {
		out[i] = ToPaymentIntentResponse(p)
	}
	return out
}
