package identity

import "fmt"

// Code identifies a credential-store failure in the store's own
// vocabulary. These codes never cross the lifecycle boundary: the
// controller classifies them into the domain taxonomy through an
// explicit mapping table.
type Code string

const (
	CodeEmailAlreadyInUse  Code = "auth/email-already-in-use"
	CodeInvalidEmail       Code = "auth/invalid-email"
	CodeWeakPassword       Code = "auth/weak-password"
	CodeInvalidCredentials Code = "auth/invalid-login-credentials"
	CodeAccountNotFound    Code = "auth/account-not-found"
	CodeInternal           Code = "auth/internal-error"
)

// Error is a coded credential-store error.
type Error struct {
	Code  Code
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.cause)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(code Code, cause error) *Error {
	return &Error{Code: code, cause: cause}
}

// CodeOf extracts the code from a credential-store error.
// Returns CodeInternal for anything that is not a coded error.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeInternal
}
