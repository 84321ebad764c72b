package browser

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnavailable      = errors.New("browser runtime unavailable")
	ErrSessionClosed    = errors.New("browser session closed")
	ErrOperationTimeout = errors.New("operation timeout")
	ErrNoSuchElement    = errors.New("no such element")
)

// DriverError wraps errors from the underlying driver with a stable code.
type DriverError struct {
	Code    string
	Message string
	Err     error
}

func (e *DriverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("driver error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("driver error [%s]: %s", e.Code, e.Message)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// WrapDriverError wraps an existing error with driver context.
func WrapDriverError(code, message string, err error) *DriverError {
	return &DriverError{Code: code, Message: message, Err: err}
}

// IsTimeout returns true if the error is a bounded-wait expiry. Timeouts are
// recoverable: callers typically log a warning and continue on a degraded
// path instead of failing the whole operation.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrOperationTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var driverErr *DriverError
	if errors.As(err, &driverErr) {
		return driverErr.Code == "timeout"
	}
	return false
}
