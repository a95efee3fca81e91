package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"crowd-router/internal/database"
	"crowd-router/internal/engine"
)

// Handler provides common handler utilities and dependencies
type Handler struct {
	Sessions *SessionStore
	Cache    database.CacheStore
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// RegisterRoutes mounts the JSON API on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", h.HandleHealthCheck).Methods(http.MethodGet)

	api.HandleFunc("/sessions", h.HandleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", h.HandleDeleteSession).Methods(http.MethodDelete)

	api.HandleFunc("/sessions/{id}/crowd", h.HandleAddPerson).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/crowd", h.HandleListCrowd).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/crowd", h.HandleClearCrowd).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/zones", h.HandleListZones).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/population", h.HandlePopulation).Methods(http.MethodGet)

	api.HandleFunc("/sessions/{id}/routes/calculate", h.HandleCalculateRoute).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/routes/select", h.HandleSelectRoute).Methods(http.MethodPost)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleNotFound handles 404 errors
func (h *Handler) handleNotFound(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// handleValidationError handles 400 errors for malformed requests
func (h *Handler) handleValidationError(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, nil)
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(w http.ResponseWriter, err error) {
	log.Printf("[ERROR] Internal error: %v", err)
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// handleEngineError maps engine errors onto the API error codes
func (h *Handler) handleEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidCoordinate):
		h.writeError(w, http.StatusBadRequest, "INVALID_COORDINATE", err.Error(), nil)
	case errors.Is(err, engine.ErrInvalidArgument):
		h.writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error(), nil)
	case errors.Is(err, engine.ErrClosed):
		h.handleNotFound(w, "Session closed")
	default:
		h.handleInternalError(w, err)
	}
}

// session resolves the {id} path variable, writing a 404 when it is unknown
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *Session {
	id := mux.Vars(r)["id"]
	session := h.Sessions.Get(id)
	if session == nil {
		log.Printf("[HTTP] %s %s: session not found id=%s", r.Method, r.URL.Path, id)
		h.handleNotFound(w, "Session not found")
		return nil
	}
	return session
}

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":   "ok",
		"sessions": h.Sessions.Count(),
	}
	if h.Cache != nil {
		if err := h.Cache.HealthCheck(r.Context()); err != nil {
			log.Printf("[HTTP] GET /api/v1/health: cache unhealthy err=%v", err)
			status["status"] = "degraded"
			status["cache"] = err.Error()
			h.writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["cache"] = "ok"
	}
	h.writeJSON(w, http.StatusOK, status)
}
