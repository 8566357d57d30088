package mapping

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/SscSPs/donation_payments_app/internal/core/domain"
	"github.com/SscSPs/donation_payments_app/internal/models"
)

// ToModelPaymentIntent converts a domain PaymentIntent to a model PaymentIntent
func ToModelPaymentIntent(d domain.PaymentIntent) models.PaymentIntent {
	return models.PaymentIntent{
		OrderID:       d.OrderID,
		AccountID:     d.AccountID,
		Amount:        d.Amount,
		CurrencyCode:  d.CurrencyCode,
		Status:        string(d.Status),
		GatewayTxnRef: toNullString(d.GatewayTxnRef),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// ToDomainPaymentIntent converts a model PaymentIntent to a domain PaymentIntent
func ToDomainPaymentIntent(m models.PaymentIntent) domain.PaymentIntent {
	return domain.PaymentIntent{
		OrderID:       m.OrderID,
		AccountID:     m.AccountID,
		Amount:        m.Amount,
		CurrencyCode:  m.CurrencyCode,
		Status:        domain.PaymentStatus(m.Status),
		GatewayTxnRef: fromNullString(m.GatewayTxnRef),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ToDomainPaymentIntentSlice converts a slice of model intents to domain intents
func ToDomainPaymentIntentSlice(ms []models.PaymentIntent) []domain.PaymentIntent {
	ds := make([]domain.PaymentIntent, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPaymentIntent(m)
	}
	return ds
}

// maxNotificationKeyLen bounds the indexed columns of a notification row. The
// untruncated values stay in the payload.
const maxNotificationKeyLen = 255

// ToModelPaymentNotification converts a domain notification to its row shape.
// Callback fields are untrusted: NUL bytes and invalid UTF-8, which Postgres
// text and jsonb columns refuse, are removed so rejected callbacks still store.
func ToModelPaymentNotification(d domain.PaymentNotification) (models.PaymentNotification, error) {
	cleaned := make(map[string]string, len(d.Payload))
	for k, v := range d.Payload {
		cleaned[storableText(k)] = storableText(v)
	}
	payload, err := json.Marshal(cleaned)
	if err != nil {
		return models.PaymentNotification{}, err
	}
	return models.PaymentNotification{
		NotificationID: d.NotificationID,
		OrderID:        nonEmpty(truncateRunes(storableText(d.OrderID), maxNotificationKeyLen)),
		StatusCode:     nonEmpty(truncateRunes(storableText(d.StatusCode), maxNotificationKeyLen)),
		GatewayTxnRef:  nonEmpty(truncateRunes(storableText(d.GatewayTxnRef), maxNotificationKeyLen)),
		SignatureValid: d.SignatureValid,
		Outcome:        string(d.Outcome),
		Detail:         nonEmpty(storableText(d.Detail)),
		Payload:        payload,
		ReceivedAt:     d.ReceivedAt,
	}, nil
}

// ToDomainPaymentNotification converts a notification row to the domain type.
func ToDomainPaymentNotification(m models.PaymentNotification) (domain.PaymentNotification, error) {
	payload := map[string]string{}
	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			return domain.PaymentNotification{}, err
		}
	}
	return domain.PaymentNotification{
		NotificationID: m.NotificationID,
		OrderID:        m.OrderID.String,
		StatusCode:     m.StatusCode.String,
		GatewayTxnRef:  m.GatewayTxnRef.String,
		SignatureValid: m.SignatureValid,
		Outcome:        domain.ReconcileOutcome(m.Outcome),
		Detail:         m.Detail.String,
		Payload:        payload,
		ReceivedAt:     m.ReceivedAt,
	}, nil
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nonEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func storableText(s string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "\uFFFD")
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
