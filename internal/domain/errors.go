package domain

import "errors"

// The closed error taxonomy surfaced to callers of the lifecycle,
// ledger, verification and progress services. Collaborator-specific
// codes are classified into these at the lifecycle boundary and never
// leak past it. Insufficient funds is deliberately absent: Debit
// reports it as a false result, not an error.
var (
	ErrEmailAlreadyInUse      = errors.New("email already in use")
	ErrInvalidEmail           = errors.New("invalid email")
	ErrWeakPassword           = errors.New("weak password")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrVerificationSendFailed = errors.New("verification send failed")
	ErrTooManyRequests        = errors.New("too many requests")
	ErrProviderSignInFailed   = errors.New("provider sign-in failed")
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrNotFound               = errors.New("not found")
	ErrUnknown                = errors.New("unknown error")
)
