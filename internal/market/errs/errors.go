package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the transfer market engine. Callers match with
// errors.Is; every one of these is surfaced, never retried internally.
var (
	// ErrNotFound indicates a referenced listing/bid/offer/player does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds indicates a wallet reservation failed. The caller
	// may retry with a lower amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRosterFull indicates the team has no available slot for a
	// speculative acquisition.
	ErrRosterFull = errors.New("roster full")

	// ErrStateConflict indicates the target was already in a terminal state
	// when a mutation was attempted; the caller's view was stale.
	ErrStateConflict = errors.New("state conflict")
)

// ValidationError covers bad input: amount below minimum, asking price <= 0,
// self-trade attempts, duplicate active commitments on the same player.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for the given field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
