// Package errors provides domain error types for the data boundary. The
// analysis engine itself degrades to undefined values instead of failing,
// so errors here belong to fetching, caching and configuration.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors.
var (
	ErrDataNotFound  = errors.New("data not found")
	ErrConfigInvalid = errors.New("invalid configuration")
	ErrRateLimited   = errors.New("rate limited")
	ErrTimeout       = errors.New("operation timed out")
)

// DataError represents a failure fetching or caching history data.
type DataError struct {
	Source  string
	Symbol  string
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.Source, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.Source, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(source, symbol, message string, err error) *DataError {
	return &DataError{
		Source:  source,
		Symbol:  symbol,
		Message: message,
		Err:     err,
	}
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
