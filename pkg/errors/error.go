// Package errors carries coded failures from the exchange clients, the period
// resolver, the share store and the video client up to the commands.
//
// The numeric code says which layer failed without string matching: 1xx for
// bad flags and config, 7xx for the exchange and export files, 8xx for the
// share database and 9xx for the video API. See ErrorCode.Category.
//
//	if errors.HasCode(err, errors.ErrCodeShareNotFound) {
//		return fmt.Errorf("no share with slug %q", slug)
//	}
//
// A period that resolves to fewer trading days than asked is not a failure of
// this kind. The resolver returns the rows it found together with an
// InsufficientDataError, and callers decide whether to warn or stop.
package errors

import (
	"errors"
	"fmt"
)

// Error is a failure tagged with an ErrorCode. Cause, when set, is the
// driver, transport or parse error underneath.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap tags cause with code. Wrapping an already coded error keeps both codes
// in the chain; GetCode reports the outermost.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is and As re-export the standard library so callers need one errors import
// for both gorm sentinels and coded errors.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode returns the code of the outermost *Error in the chain, or
// ErrCodeUnknown for plain errors.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError reports a short history: Actual of Required candles
// (or trading days) were available for Symbol.
type InsufficientDataError struct {
	Required int
	Actual   int
	Symbol   string
	Message  string
}

func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{Required: required, Actual: actual, Symbol: symbol, Message: message}
}

func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return NewInsufficientDataError(required, actual, symbol, fmt.Sprintf(format, args...))
}

func (e *InsufficientDataError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("insufficient data for %s: required %d, got %d", e.Symbol, e.Required, e.Actual)
	}

	return e.Message
}

// Missing returns how many rows the result is short by.
func (e *InsufficientDataError) Missing() int {
	return max(e.Required-e.Actual, 0)
}

func IsInsufficientDataError(err error) bool {
	var short *InsufficientDataError

	return errors.As(err, &short)
}
