// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Provider-level sentinel errors. Each adapter translates source-specific
// failures into exactly one of these kinds.
var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrRateLimited         = errors.New("rate limited")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrMalformedResponse   = errors.New("malformed response")
)

// Manager-level sentinel errors. These are the only two data-path error kinds
// that cross into caller-visible territory.
var (
	ErrDataUnavailable = errors.New("data unavailable from all providers")
)

// Other application sentinels.
var (
	ErrNotTracked      = errors.New("symbol not tracked")
	ErrAdvisorDisabled = errors.New("advisor disabled: no API key configured")
	ErrConfigInvalid   = errors.New("invalid configuration")
)

// ProviderError represents a failure from one external data source, tagged
// with the provider name and one of the provider sentinel kinds.
type ProviderError struct {
	Provider string
	Symbol   string
	Kind     error
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s [%s]: %v: %v", e.Provider, e.Symbol, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s [%s]: %v", e.Provider, e.Symbol, e.Kind)
}

// Unwrap exposes the kind so callers can match with errors.Is against the
// provider sentinels.
func (e *ProviderError) Unwrap() error {
	return e.Kind
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, symbol string, kind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Symbol: symbol, Kind: kind, Err: err}
}

// PersistenceError represents a failure to read or write persisted state.
// It is recovered locally by the owning store and never crashes the process.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(op, path string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Path: path, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
