// Package apperror provides the structured error type shared by the
// inventory services and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindInsufficientStock   Kind = "INSUFFICIENT_STOCK"
	KindInvalidTransition   Kind = "INVALID_TRANSITION"
	KindTransactionConflict Kind = "TRANSACTION_CONFLICT"
	KindValidation          Kind = "VALIDATION"
	KindConflict            Kind = "CONFLICT"
	KindInternal            Kind = "INTERNAL"
)

// HTTPStatus maps a kind to the status code the handlers answer with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientStock:
		return http.StatusUnprocessableEntity
	case KindInvalidTransition, KindConflict:
		return http.StatusConflict
	case KindTransactionConflict:
		return http.StatusServiceUnavailable
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a caller may resend the same request unchanged.
func (k Kind) Retryable() bool {
	return k == KindTransactionConflict
}

// Error is the domain error type with structured metadata.
type Error struct {
	Kind     Kind
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a domain error with a kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithMetadata creates a domain error carrying structured details.
func WithMetadata(kind Kind, message string, metadata map[string]string) *Error {
	return &Error{Kind: kind, Message: message, Metadata: metadata}
}

// Wrap creates a domain error around an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func NotFound(entity, id string) *Error {
	return WithMetadata(KindNotFound,
		fmt.Sprintf("%s %s not found", entity, id),
		map[string]string{"entity": entity, "id": id})
}

func InsufficientStock(productID, productName string, available, requested int) *Error {
	return WithMetadata(KindInsufficientStock,
		fmt.Sprintf("insufficient stock for %s: available %d, requested %d", productName, available, requested),
		map[string]string{
			"product_id":   productID,
			"product_name": productName,
			"available":    strconv.Itoa(available),
			"requested":    strconv.Itoa(requested),
		})
}

func InvalidTransition(from, to string) *Error {
	return WithMetadata(KindInvalidTransition,
		fmt.Sprintf("cannot change order status from %s to %s", from, to),
		map[string]string{"from": from, "to": to})
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// TransactionConflict marks a transaction that kept failing on lock waits,
// deadlocks or lost connections.
func TransactionConflict(operation string, cause error) *Error {
	return &Error{
		Kind:     KindTransactionConflict,
		Message:  operation + " could not complete because of concurrent updates, please retry",
		Metadata: map[string]string{"operation": operation},
		Cause:    cause,
	}
}

// Sentinels for errors.Is comparisons by kind.
var (
	ErrNotFound            = New(KindNotFound, "not found")
	ErrInsufficientStock   = New(KindInsufficientStock, "insufficient stock")
	ErrInvalidTransition   = New(KindInvalidTransition, "invalid transition")
	ErrTransactionConflict = New(KindTransactionConflict, "transaction conflict")
	ErrValidation          = New(KindValidation, "validation failed")
	ErrConflict            = New(KindConflict, "conflict")
)
