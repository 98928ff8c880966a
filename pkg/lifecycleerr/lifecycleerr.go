// Package lifecycleerr defines the tenant lifecycle manager's error
// taxonomy: USER (caller-caused), NOT_FOUND, and INTERNAL (store/proxy
// failures propagated unchanged).
package lifecycleerr

import (
	"errors"
	"fmt"
)

// Type classifies an Error for callers that need to branch on it
// (e.g. an HTTP handler mapping to a status code).
type Type string

const (
	TypeUser     Type = "USER"
	TypeNotFound Type = "NOT_FOUND"
	TypeInternal Type = "INTERNAL"
)

// Error is the structured {type, message} failure surfaced by every
// lifecycle operation.
type Error struct {
	ErrType Type
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.ErrType, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.ErrType, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is(err, lifecycleerr.NotFound) style sentinel checks
// by comparing error types rather than identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.ErrType == t.ErrType
}

// Sentinels usable with errors.Is to test only the error's type.
var (
	NotFound = &Error{ErrType: TypeNotFound}
	User     = &Error{ErrType: TypeUser}
	Internal = &Error{ErrType: TypeInternal}
)

// Userf builds a USER error.
func Userf(format string, args ...any) error {
	return &Error{ErrType: TypeUser, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a NOT_FOUND error.
func NotFoundf(format string, args ...any) error {
	return &Error{ErrType: TypeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internalf wraps cause as an INTERNAL error with added context.
func Internalf(cause error, format string, args ...any) error {
	return &Error{ErrType: TypeInternal, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// TypeOf returns the Type of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func TypeOf(err error) (Type, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrType, true
	}
	return "", false
}
