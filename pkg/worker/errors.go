package worker

import (
	"errors"
	"fmt"
)

// Common errors returned by the worker.
var (
	// ErrInstallFailed is returned when required static asset seeding fails.
	ErrInstallFailed = errors.New("install failed")

	// ErrRetryExhausted is returned when all install retry attempts are
	// exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// SeedError reports a failed asset fetch during partition seeding.
type SeedError struct {
	Asset      string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *SeedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("seed %s: %v", e.Asset, e.Err)
	}
	return fmt.Sprintf("seed %s: unexpected status %d", e.Asset, e.StatusCode)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *SeedError) Unwrap() error {
	return e.Err
}
