// Package domain defines the core domain models for PayAuth.
package domain

import (
	"errors"
)

// Kind identifies which domain service produced an error.
type Kind string

const (
	KindAuth             Kind = "AUTH"
	KindPasswordRecovery Kind = "PREC"
	KindUsers            Kind = "USERS"
	KindCEP              Kind = "CEP"
)

// DomainError is the error returned by every domain service.
//
// Message is always human readable and safe to show to the user as is.
// StatusCode carries the backend HTTP status when the error originated
// from a backend response, zero otherwise.
type DomainError struct {
	Kind       Kind
	Code       string // e.g. "PA-AUTH-4001"
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError with the same kind and code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given kind, code and message.
func NewDomainError(kind Kind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// WithMessage returns a copy of the error with a different message.
func (e *DomainError) WithMessage(message string) *DomainError {
	c := *e
	c.Message = message
	return &c
}

// WithStatus returns a copy of the error carrying the given HTTP status.
func (e *DomainError) WithStatus(status int) *DomainError {
	c := *e
	c.StatusCode = status
	return &c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// Remote returns a copy describing a backend rejection: the backend message
// and status replace the template's own.
func (e *DomainError) Remote(message string, status int, cause error) *DomainError {
	c := *e
	if message != "" {
		c.Message = message
	}
	c.StatusCode = status
	c.Cause = cause
	return &c
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind Kind) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// Code extracts the error code from an error if it's a DomainError.
func Code(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// StatusCode extracts the backend HTTP status from a DomainError, or 0.
func StatusCode(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		return de.StatusCode
	}
	return 0
}

// Authentication errors.
var (
	ErrPasswordMismatch   = NewDomainError(KindAuth, "PA-AUTH-4001", "passwords do not match")
	ErrPasswordTooShort   = NewDomainError(KindAuth, "PA-AUTH-4002", "password must be at least 6 characters")
	ErrAuthRejected       = NewDomainError(KindAuth, "PA-AUTH-4000", "authentication request failed")
	ErrMissingAccessToken = NewDomainError(KindAuth, "PA-AUTH-5020", "server response did not include an access token")
	ErrAuthUnreachable    = NewDomainError(KindAuth, "PA-AUTH-5030", "authentication service unreachable")
)

// Password recovery errors.
var (
	ErrResetPasswordMismatch = NewDomainError(KindPasswordRecovery, "PA-PREC-4001", "passwords do not match")
	ErrResetPasswordTooShort = NewDomainError(KindPasswordRecovery, "PA-PREC-4002", "password must be at least 6 characters")
	ErrResetTokenMissing     = NewDomainError(KindPasswordRecovery, "PA-PREC-4003", "invalid reset token")
	ErrRecoveryRejected      = NewDomainError(KindPasswordRecovery, "PA-PREC-4000", "password recovery request failed")
	ErrRecoveryUnreachable   = NewDomainError(KindPasswordRecovery, "PA-PREC-5030", "password recovery service unreachable")
)

// User listing errors.
var (
	ErrUsersRejected    = NewDomainError(KindUsers, "PA-USERS-4000", "users request failed")
	ErrUsersUnreachable = NewDomainError(KindUsers, "PA-USERS-5030", "users service unreachable")
)

// Postal code (CEP) lookup errors.
var (
	ErrCEPInvalid      = NewDomainError(KindCEP, "PA-CEP-4001", "CEP must contain exactly 8 digits")
	ErrCEPNotFound     = NewDomainError(KindCEP, "PA-CEP-4040", "CEP not found")
	ErrCEPLookupFailed = NewDomainError(KindCEP, "PA-CEP-5020", "error querying CEP")
	ErrCEPUnreachable  = NewDomainError(KindCEP, "PA-CEP-5030", "error querying CEP, check your connection")
)
