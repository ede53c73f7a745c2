// Package handlers implements the thin REST surface over sessions. All the
// realtime graph mutation traffic goes over the WebSocket channel; this is
// just session lifecycle and lookup.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mindmap-backend/internal/service/graph"
	appErrors "mindmap-backend/pkg/errors"
)

// SessionHandler handles session-related HTTP requests.
type SessionHandler struct {
	service  graph.Service
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(service graph.Service, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateSessionRequest represents the request body for creating a session.
type CreateSessionRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// UpdateSessionRequest represents the request body for renaming a session.
type UpdateSessionRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	session, err := h.service.CreateSession(r.Context(), req.Title)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, session)
}

// GetSession handles GET /api/sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, session)
}

// ListSessions handles GET /api/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListSessions(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, sessions)
}

// UpdateSession handles PUT /api/sessions/{sessionID}
func (h *SessionHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	session, err := h.service.UpdateSessionTitle(r.Context(), sessionID, req.Title)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, session)
}

// DeleteSession handles DELETE /api/sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	deleted, err := h.service.DeleteSession(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !deleted {
		h.respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case appErrors.IsNotFound(err):
		h.respondError(w, http.StatusNotFound, appErrors.Message(err))
	case appErrors.IsValidation(err):
		h.respondError(w, http.StatusBadRequest, appErrors.Message(err))
	case appErrors.IsTransient(err):
		h.respondError(w, http.StatusServiceUnavailable, appErrors.Message(err))
	default:
		h.logger.Error("unhandled service error", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *SessionHandler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *SessionHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
