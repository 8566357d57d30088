package dto

import "strings"

// PaymentNotification is the subset of gateway notify fields the reconciler acts on.
type PaymentNotification struct {
	MerchantID      string `validate:"required,max=32"`
	OrderID         string `validate:"required,max=64"`
	PaymentID       string `validate:"omitempty,max=64"`
	PayhereAmount   string `validate:"required,numeric"`
	PayhereCurrency string `validate:"required,alpha,len=3"`
	StatusCode      string `validate:"required,oneof=2 0 -1 -2 -3"`
	Md5sig          string `validate:"omitempty,len=32,hexadecimal"`
	StatusMessage   string
	Method          string
}

// NotificationFromValues builds a PaymentNotification from the decoded notify
// body. Values are trimmed; unknown keys are ignored.
func NotificationFromValues(values map[string]string) PaymentNotification {
	get := func(key string) string { return strings.TrimSpace(values[key]) }
	return PaymentNotification{
		MerchantID:      get("merchant_id"),
		OrderID:         get("order_id"),
		PaymentID:       get("payment_id"),
		PayhereAmount:   get("payhere_amount"),
		PayhereCurrency: get("payhere_currency"),
		StatusCode:      get("status_code"),
		Md5sig:          get("md5sig"),
		StatusMessage:   get("status_message"),
		Method:          get("method"),
	}
}
