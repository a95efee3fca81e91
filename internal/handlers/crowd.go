package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"crowd-router/internal/models"
)

// AddPersonRequest represents the request for adding people to the map
type AddPersonRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Count *int     `json:"count"`
}

// AddPersonResponse reports the cell population after the addition
type AddPersonResponse struct {
	Population    int `json:"population"`
	RoutingWeight int `json:"routing_weight"`
	ZoneCount     int `json:"zone_count"`
}

// CrowdListResponse lists every populated cell
type CrowdListResponse struct {
	Areas []models.PopulatedArea `json:"areas"`
	Total int                    `json:"total"`
}

// ZoneListResponse lists the current crowd zones
type ZoneListResponse struct {
	Zones []models.CrowdZone `json:"zones"`
	Total int                `json:"total"`
}

// PopulationResponse describes one coordinate
type PopulationResponse struct {
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	Population    int     `json:"population"`
	RoutingWeight int     `json:"routing_weight"`
}

// HandleAddPerson handles POST /api/v1/sessions/{id}/crowd
func (h *Handler) HandleAddPerson(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var req AddPersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[HTTP] POST crowd: invalid_json err=%v", err)
		h.handleValidationError(w, "Invalid request body")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		h.handleValidationError(w, "lat and lng are required")
		return
	}

	count := 1
	if req.Count != nil {
		count = *req.Count
	}

	pop, err := session.Engine.AddPerson(*req.Lat, *req.Lng, count)
	if err != nil {
		log.Printf("[HTTP] POST crowd: session=%s err=%v", session.ID, err)
		h.handleEngineError(w, err)
		return
	}

	weight, err := session.Engine.RoutingWeight(*req.Lat, *req.Lng)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	zones, err := session.Engine.Zones()
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AddPersonResponse{
		Population:    pop,
		RoutingWeight: weight,
		ZoneCount:     len(zones),
	})
}

// HandleListCrowd handles GET /api/v1/sessions/{id}/crowd
func (h *Handler) HandleListCrowd(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	areas, err := session.Engine.PopulatedAreas()
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	if areas == nil {
		areas = []models.PopulatedArea{}
	}

	h.writeJSON(w, http.StatusOK, CrowdListResponse{Areas: areas, Total: len(areas)})
}

// HandleClearCrowd handles DELETE /api/v1/sessions/{id}/crowd
func (h *Handler) HandleClearCrowd(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	if err := session.Engine.ClearAll(); err != nil {
		h.handleEngineError(w, err)
		return
	}
	session.SetResult(nil)
	log.Printf("[HTTP] DELETE crowd: session=%s cleared", session.ID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleListZones handles GET /api/v1/sessions/{id}/zones
func (h *Handler) HandleListZones(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	zones, err := session.Engine.Zones()
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	if zones == nil {
		zones = []models.CrowdZone{}
	}

	h.writeJSON(w, http.StatusOK, ZoneListResponse{Zones: zones, Total: len(zones)})
}

// HandlePopulation handles GET /api/v1/sessions/{id}/population?lat=&lng=
func (h *Handler) HandlePopulation(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		h.handleValidationError(w, "Invalid lat parameter")
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		h.handleValidationError(w, "Invalid lng parameter")
		return
	}

	pop, err := session.Engine.Population(lat, lng)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	weight, err := session.Engine.RoutingWeight(lat, lng)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, PopulationResponse{
		Lat:           lat,
		Lng:           lng,
		Population:    pop,
		RoutingWeight: weight,
	})
}
