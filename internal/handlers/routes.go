package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"crowd-router/internal/models"
)

// CalculateRouteRequest represents the request for route calculation
type CalculateRouteRequest struct {
	Start *models.Coordinates `json:"start"`
	End   *models.Coordinates `json:"end"`
}

// SelectRouteRequest picks one of the last calculated candidates
type SelectRouteRequest struct {
	Index *int `json:"index"`
}

// HandleCalculateRoute handles POST /api/v1/sessions/{id}/routes/calculate
func (h *Handler) HandleCalculateRoute(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var req CalculateRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[HTTP] POST routes/calculate: invalid_json err=%v", err)
		h.handleValidationError(w, "Invalid request body")
		return
	}
	if req.Start == nil || req.End == nil {
		h.handleValidationError(w, "start and end are required")
		return
	}

	log.Printf("[HTTP] POST routes/calculate: session=%s start=(%.6f,%.6f) end=(%.6f,%.6f)",
		session.ID, req.Start.Lat, req.Start.Lng, req.End.Lat, req.End.Lng)

	result, err := session.Engine.CalculateRoute(r.Context(), *req.Start, *req.End)
	if err != nil {
		log.Printf("[HTTP] POST routes/calculate: session=%s err=%v", session.ID, err)
		h.handleEngineError(w, err)
		return
	}
	if result.Candidates == nil {
		result.Candidates = []models.RouteCandidate{}
	}

	session.SetResult(result)
	h.writeJSON(w, http.StatusOK, result)
}

// HandleSelectRoute handles POST /api/v1/sessions/{id}/routes/select
func (h *Handler) HandleSelectRoute(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var req SelectRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}
	if req.Index == nil {
		h.handleValidationError(w, "index is required")
		return
	}

	result := session.Result()
	if result == nil {
		h.handleNotFound(w, "No calculated routes for this session")
		return
	}

	selection, err := session.Engine.SelectRoute(result.Candidates, *req.Index)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	session.SetResult(&models.RouteResult{Selected: selection, Candidates: result.Candidates})
	log.Printf("[HTTP] POST routes/select: session=%s index=%d kind=%s", session.ID, selection.Index, selection.Route.Kind)
	h.writeJSON(w, http.StatusOK, selection)
}
