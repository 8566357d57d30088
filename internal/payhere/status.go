package payhere

// StatusCode is the status_code field of a PayHere notification.
type StatusCode string

const (
	StatusSuccess     StatusCode = "2"
	StatusPending     StatusCode = "0"
	StatusCanceled    StatusCode = "-1"
	StatusFailed      StatusCode = "-2"
	StatusChargedBack StatusCode = "-3"
)

var knownStatusCodes = map[StatusCode]struct{}{
	StatusSuccess:     {},
	StatusPending:     {},
	StatusCanceled:    {},
	StatusFailed:      {},
	StatusChargedBack: {},
}

// ParseStatusCode returns the status code and whether it is one the gateway documents.
func ParseStatusCode(raw string) (StatusCode, bool) {
	code := StatusCode(raw)
	_, ok := knownStatusCodes[code]
	return code, ok
}

// IsSuccess reports whether the code confirms payment.
func (c StatusCode) IsSuccess() bool { return c == StatusSuccess }

// IsTerminalFailure reports whether the code is an explicit failure. Canceled
// and charged back are not.
func (c StatusCode) IsTerminalFailure() bool { return c == StatusFailed }
