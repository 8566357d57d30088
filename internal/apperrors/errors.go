package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the caller is authenticated but may not act on the resource.
var ErrForbidden = errors.New("forbidden")

// Payment errors.
var (
	// ErrInvalidAmount is returned for non-positive, non-numeric or over-precise donation amounts.
	ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrValidation)

	// ErrOrderIDConflict is returned when every generated order id collided with an existing intent.
	ErrOrderIDConflict = errors.New("order id conflict")

	// ErrConfigurationMissing is returned when merchant credentials are absent.
	ErrConfigurationMissing = errors.New("payment gateway configuration missing")

	// ErrUnknownOrder is returned when a notification references an order id with no intent.
	ErrUnknownOrder = fmt.Errorf("%w: unknown order", ErrNotFound)

	// ErrAlreadyTerminal is returned when a change is requested on a SUCCESS or FAILED intent.
	ErrAlreadyTerminal = errors.New("payment intent already terminal")

	// ErrSignatureMismatch is returned when a notification fails authentication.
	ErrSignatureMismatch = errors.New("notification signature mismatch")

	// ErrUnparseableNotification is returned when a notification is missing required fields.
	ErrUnparseableNotification = errors.New("unparseable notification")

	// ErrAmountMismatch is returned when a notification's amount or currency differs from the intent.
	ErrAmountMismatch = errors.New("notification amount mismatch")
)

// AppError carries an HTTP-ish status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError builds an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
