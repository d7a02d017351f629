package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hotwellkz/course-api/internal/application/lifecycle"
	"github.com/hotwellkz/course-api/internal/domain"
	"github.com/hotwellkz/course-api/internal/pkg/validate"
)

// AccountHandler handles registration.
type AccountHandler struct {
	svc lifecycle.Service
}

func NewAccountHandler(svc lifecycle.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "email and password (min 6 chars) required")
		return
	}
	res, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterEnvelope{
		AccountID:            res.AccountID,
		RequiresVerification: res.RequiresVerification,
	})
}
