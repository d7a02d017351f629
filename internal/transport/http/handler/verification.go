package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hotwellkz/course-api/internal/application/lifecycle"
	"github.com/hotwellkz/course-api/internal/application/verification"
	"github.com/hotwellkz/course-api/internal/transport/http/middleware"
)

// VerificationHandler handles email-verification endpoints.
type VerificationHandler struct {
	svc       verification.Service
	lifecycle lifecycle.Service
}

func NewVerificationHandler(svc verification.Service, lifecycleSvc lifecycle.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc, lifecycle: lifecycleSvc}
}

func (h *VerificationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.lifecycle.ResendVerification(r.Context(), claims.AccountID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification email sent"})
}

// Status reads the live verification flag. Never cached: the account
// may have confirmed in another tab or on another device.
func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	verified, err := h.svc.IsVerified(r.Context(), claims.AccountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerificationEnvelope{Verified: verified})
}

// Confirm is public: it is hit from the emailed link, before the
// account has any session.
func (h *VerificationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"account_id"`
		Code      string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "account_id and code required")
		return
	}
	if err := h.svc.Confirm(r.Context(), req.AccountID, req.Code); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "email verified"})
}
