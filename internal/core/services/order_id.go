package services

import (
	"fmt"
	"time"

	"github.com/SscSPs/donation_payments_app/internal/utils"
)

const orderIDPrefix = "ORDER_"

// OrderIDGenerator produces a candidate order id for an intent created at now.
type OrderIDGenerator func(now time.Time) (string, error)

// NewOrderID returns ORDER_<unix millis>_<8 hex>. The random suffix keeps ids
// distinct when two intents are created in the same millisecond.
func NewOrderID(now time.Time) (string, error) {
	suffix, err := utils.RandomHex(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d_%s", orderIDPrefix, now.UnixMilli(), suffix), nil
}
