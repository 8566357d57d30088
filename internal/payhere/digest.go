// Package payhere implements the request and notification digests used by the
// PayHere checkout gateway.
//
// Both digests are two stage MD5: the merchant secret is first reduced to an
// upper-case hex token, then the ordered fields and the token are concatenated
// and hashed again. Field order and the two decimal amount format are part of
// the signed content.
package payhere

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/SscSPs/donation_payments_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// SecretToken returns the upper-case hex MD5 of the merchant secret.
func SecretToken(secret string) string {
	return upperMD5(secret)
}

// Sign computes the digest over fields followed by the secret token.
func Sign(secret string, fields ...string) (string, error) {
	if secret == "" {
		return "", apperrors.ErrConfigurationMissing
	}
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f)
	}
	b.WriteString(SecretToken(secret))
	return upperMD5(b.String()), nil
}

// Verify reports whether candidate is the digest of fields under secret.
// Hex case in candidate is ignored.
func Verify(secret string, candidate string, fields ...string) bool {
	if candidate == "" {
		return false
	}
	expected, err := Sign(secret, fields...)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToUpper(candidate))) == 1
}

// FormatAmount renders amount with exactly two fractional digits.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// RequestFields are the checkout fields covered by the request hash.
type RequestFields struct {
	MerchantID string
	OrderID    string
	Amount     decimal.Decimal
	Currency   string
}

// Ordered returns the fields in signing order.
func (f RequestFields) Ordered() []string {
	return []string{f.MerchantID, f.OrderID, FormatAmount(f.Amount), f.Currency}
}

// SignRequest computes the checkout hash. A missing merchant id or secret is a
// configuration error, not a per-request one.
func SignRequest(secret string, f RequestFields) (string, error) {
	if f.MerchantID == "" {
		return "", apperrors.ErrConfigurationMissing
	}
	return Sign(secret, f.Ordered()...)
}

// NotificationFields are the notify fields covered by md5sig, taken verbatim
// from the callback.
type NotificationFields struct {
	MerchantID string
	OrderID    string
	Amount     string
	Currency   string
	StatusCode string
}

// Ordered returns the fields in signing order.
func (f NotificationFields) Ordered() []string {
	return []string{f.MerchantID, f.OrderID, f.Amount, f.Currency, f.StatusCode}
}

// VerifyNotification checks md5sig against the notification's own claimed fields.
func VerifyNotification(secret string, f NotificationFields, md5sig string) bool {
	return Verify(secret, md5sig, f.Ordered()...)
}

func upperMD5(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
