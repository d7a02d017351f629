package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hotwellkz/course-api/internal/application/ledger"
	"github.com/hotwellkz/course-api/internal/application/lifecycle"
	"github.com/hotwellkz/course-api/internal/domain"
	"github.com/hotwellkz/course-api/internal/transport/http/middleware"
)

// ProfileHandler handles profile reads, password changes and token debits.
type ProfileHandler struct {
	ledger    ledger.Service
	lifecycle lifecycle.Service
}

func NewProfileHandler(ledgerSvc ledger.Service, lifecycleSvc lifecycle.Service) *ProfileHandler {
	return &ProfileHandler{ledger: ledgerSvc, lifecycle: lifecycleSvc}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	p, err := h.ledger.Balance(r.Context(), claims.AccountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{
		AccountID: p.AccountID,
		Email:     p.Email,
		Tokens:    p.Tokens,
	})
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.lifecycle.ChangePassword(r.Context(), claims.AccountID, req.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password changed"})
}

func (h *ProfileHandler) Debit(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.DebitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	debited, err := h.ledger.Debit(r.Context(), claims.AccountID, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DebitEnvelope{Debited: debited})
}
