package faults

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for every failure class the engine can produce. Callers
// match with errors.Is; handlers map them to HTTP statuses with Status.
var (
	ErrValidation          = errors.New("validation failed")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrUnavailableItems    = errors.New("cart has unavailable items")
	ErrNetwork             = errors.New("network failure")
	ErrRemoteValidation    = errors.New("rejected by server")
	ErrBusy                = errors.New("another change is still in flight")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrNoTargetsRegistered = errors.New("no pets registered")
)

// Validation wraps ErrValidation with a caller-facing detail message.
func Validation(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// Network wraps a transport-level failure.
func Network(err error) error {
	if err == nil {
		return ErrNetwork
	}
	return fmt.Errorf("%v: %w", err, ErrNetwork)
}

// RemoteValidation carries the server's own message for a 4xx rejection.
func RemoteValidation(msg string) error {
	if msg == "" {
		return ErrRemoteValidation
	}
	return fmt.Errorf("%s: %w", msg, ErrRemoteValidation)
}

// Status maps an engine error to an HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailableItems), errors.Is(err, ErrBusy):
		return http.StatusConflict
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNoTargetsRegistered):
		return http.StatusPreconditionFailed
	case errors.Is(err, ErrRemoteValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
