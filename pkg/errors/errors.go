package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a typed domain error with HTTP awareness. Rules contains the
// individual violations when several validation rules fail at once; Message
// keeps the joined form for callers that only render a single string.
type Error struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Status  int      `json:"status"`
	Rules   []string `json:"rules,omitempty"`
	Err     error    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound       = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden      = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized   = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict       = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation     = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal       = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCaptcha        = New("CAPTCHA_FAILED", http.StatusForbidden, "turnstile verification failed")
	ErrCacheMiss      = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrInvalidLogin   = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrAlreadyDecided = New("ALREADY_PROCESSED", http.StatusConflict, "reservation has already been processed by another admin")
)

// Validation builds a VALIDATION_ERROR carrying every violated rule, with the
// joined rule list as the message.
func Validation(rules ...string) *Error {
	e := *ErrValidation
	e.Rules = append([]string(nil), rules...)
	if len(rules) > 0 {
		e.Message = strings.Join(rules, "\n")
	}
	return &e
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Opaque converts an internal failure into the support-facing form carrying a
// correlation id. The original error stays wrapped for logging.
func Opaque(err error, requestID string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status,
		fmt.Sprintf("An internal server error occurred. Please contact support with request ID: %s", requestID))
}
