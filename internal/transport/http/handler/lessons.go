package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hotwellkz/course-api/internal/application/progress"
	"github.com/hotwellkz/course-api/internal/transport/http/middleware"
)

// LessonHandler handles lesson-completion endpoints.
type LessonHandler struct {
	svc progress.Service
}

func NewLessonHandler(svc progress.Service) *LessonHandler {
	return &LessonHandler{svc: svc}
}

func (h *LessonHandler) MarkComplete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	lessonID := chi.URLParam(r, "lessonID")
	if err := h.svc.MarkComplete(r.Context(), claims.AccountID, lessonID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CompletionEnvelope{LessonID: lessonID, Completed: true})
}

func (h *LessonHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	lessonID := chi.URLParam(r, "lessonID")
	done, err := h.svc.IsComplete(r.Context(), claims.AccountID, lessonID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CompletionEnvelope{LessonID: lessonID, Completed: done})
}

func (h *LessonHandler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	recs, err := h.svc.ListCompleted(r.Context(), claims.AccountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	completed := make([]CompletionEnvelope, len(recs))
	for i, rec := range recs {
		completed[i] = CompletionEnvelope{LessonID: rec.LessonID, Completed: true}
	}
	writeJSON(w, http.StatusOK, completed)
}
