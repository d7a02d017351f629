package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hotwellkz/course-api/internal/application/ledger"
	"github.com/hotwellkz/course-api/internal/application/lifecycle"
	"github.com/hotwellkz/course-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps register/login/refresh responses.
type AuthEnvelope struct {
	Account *lifecycle.AuthResult `json:"account,omitempty"`
	Message string                `json:"message,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// RegisterEnvelope wraps the registration response.
type RegisterEnvelope struct {
	AccountID            string `json:"account_id"`
	RequiresVerification bool   `json:"requires_verification"`
}

// ProfileEnvelope wraps profile reads.
type ProfileEnvelope struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Tokens    int    `json:"tokens"`
}

// DebitEnvelope reports the outcome of a token debit. Debited false
// with HTTP 200 means the balance was insufficient; nothing changed.
type DebitEnvelope struct {
	Debited bool `json:"debited"`
}

// VerificationEnvelope wraps verification status reads.
type VerificationEnvelope struct {
	Verified bool `json:"verified"`
}

// CompletionEnvelope wraps a single lesson-status read.
type CompletionEnvelope struct {
	LessonID  string `json:"lesson_id"`
	Completed bool   `json:"completed"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// statusFor maps a domain taxonomy error to its HTTP status. Handlers
// classify through this table only, never by message text.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmailAlreadyInUse):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrProviderSignInFailed),
		errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrVerificationSendFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}
