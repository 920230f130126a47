package domain

import "errors"

// Kind classifies a domain failure independently of any transport.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Error is a typed domain failure carrying a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	// cause links a more specific error to the generic one it refines,
	// e.g. ErrDeviceMismatch -> ErrUnauthorized.
	cause error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// NewError builds a domain error of the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func refine(parent *Error, msg string) *Error {
	return &Error{Kind: parent.Kind, Message: msg, cause: parent}
}

// KindOf reports the Kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	ErrValidation      = NewError(KindValidation, "validation failed")
	ErrNotFound        = NewError(KindNotFound, "not found")
	ErrConflict        = NewError(KindConflict, "resource already exists")
	ErrUnauthorized    = NewError(KindUnauthorized, "invalid token")
	ErrForbidden       = NewError(KindForbidden, "access forbidden")
	ErrTooManyRequests = NewError(KindTooManyRequests, "too many requests, please try again later")
)

// Credential and account errors.
var (
	ErrEmailExists      = refine(ErrConflict, "email already exists")
	ErrEmailNotFound    = NewError(KindConflict, "email not found")
	ErrPasswordMismatch = NewError(KindConflict, "password not matching")
	ErrEmailNotVerified = NewError(KindValidation, "email is not verified")
	ErrInvalidAccount   = NewError(KindValidation, "invalid account uuid")
	ErrUserNotFound     = refine(ErrNotFound, "user not found")
	ErrRoleNotFound     = refine(ErrNotFound, "role not found")
	ErrNothingToUpdate  = NewError(KindValidation, "some field is required")
)

// ErrInvalidOTP covers wrong, already used and expired codes alike.
var ErrInvalidOTP = NewError(KindValidation, "otp is not valid")

// ErrSessionNotFound is returned for sessions that are absent or no longer ACTIVE.
var ErrSessionNotFound = refine(ErrNotFound, "session not found")

// Gate rejection reasons. All of them are ErrUnauthorized to callers.
var (
	ErrNoToken         = refine(ErrUnauthorized, "no token")
	ErrInvalidToken    = refine(ErrUnauthorized, "invalid token")
	ErrSessionInactive = refine(ErrUnauthorized, "session is not active")
	ErrSessionMismatch = refine(ErrUnauthorized, "session does not belong to token subject")
	ErrDeviceMismatch  = refine(ErrUnauthorized, "token not valid for this device")
)

// GateReason returns a short label for a gate rejection, for logs and metrics only.
func GateReason(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return "no_token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrSessionInactive):
		return "session_inactive"
	case errors.Is(err, ErrSessionMismatch):
		return "session_mismatch"
	case errors.Is(err, ErrDeviceMismatch):
		return "device_mismatch"
	default:
		return "other"
	}
}
