package domain

import "time"

// ReconcileOutcome is what the reconciler did with one gateway notification.
type ReconcileOutcome string

const (
	OutcomeApplied           ReconcileOutcome = "APPLIED"
	OutcomeAlreadyTerminal   ReconcileOutcome = "ALREADY_TERMINAL"
	OutcomeIgnored           ReconcileOutcome = "IGNORED"
	OutcomeUnknownOrder      ReconcileOutcome = "UNKNOWN_ORDER"
	OutcomeSignatureMismatch ReconcileOutcome = "SIGNATURE_MISMATCH"
	OutcomeAmountMismatch    ReconcileOutcome = "AMOUNT_MISMATCH"
	OutcomeUnparseable       ReconcileOutcome = "UNPARSEABLE"
	OutcomeError             ReconcileOutcome = "ERROR"
)

// PaymentNotification is an audit record of one received callback.
type PaymentNotification struct {
	NotificationID string            `json:"notificationID"`
	OrderID        string            `json:"orderID"`
	StatusCode     string            `json:"statusCode"`
	GatewayTxnRef  string            `json:"gatewayTxnRef"`
	SignatureValid bool              `json:"signatureValid"`
	Outcome        ReconcileOutcome  `json:"outcome"`
	Detail         string            `json:"detail,omitempty"`
	Payload        map[string]string `json:"payload"`
	ReceivedAt     time.Time         `json:"receivedAt"`
}
