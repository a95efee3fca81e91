package models

import "time"

// Coordinates represents a geographic point (latitude first)
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Equal reports whether two points are exactly the same
func (c Coordinates) Equal(other Coordinates) bool {
	return c.Lat == other.Lat && c.Lng == other.Lng
}

// PopulatedArea is a single occupied grid cell
type PopulatedArea struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Population int     `json:"population"`
}

// GetCoords returns the cell origin
func (a *PopulatedArea) GetCoords() Coordinates {
	return Coordinates{Lat: a.Lat, Lng: a.Lng}
}

// CrowdZone is a circular region around a dense grid cell.
// Radius is expressed in degrees.
type CrowdZone struct {
	Center     Coordinates `json:"center"`
	Radius     float64     `json:"radius"`
	Population int         `json:"population"`
	Weight     int         `json:"weight"`
}

// RouteKind identifies how a candidate route was produced
type RouteKind string

const (
	RouteKindDirect      RouteKind = "direct"
	RouteKindAvoidance   RouteKind = "avoidance"
	RouteKindAlternative RouteKind = "alternative"
)

// ZoneHit describes how much of a route falls inside one zone
type ZoneHit struct {
	Zone       CrowdZone `json:"zone"`
	Ratio      float64   `json:"ratio"`
	PointCount int       `json:"point_count"`
}

// IntersectionReport summarizes how a route overlaps the crowd zones
type IntersectionReport struct {
	TotalIntersection   float64  `json:"total_intersection"`
	WorstZone           *ZoneHit `json:"worst_zone,omitempty"`
	AverageIntersection float64  `json:"average_intersection"`
}

// RouteCandidate is one proposed path between start and end
type RouteCandidate struct {
	Points       []Coordinates      `json:"points"`
	Kind         RouteKind          `json:"kind"`
	Intersection IntersectionReport `json:"intersection"`
}

// RouteStatistics contains derived metrics for a selected route
type RouteStatistics struct {
	TotalPoints            int       `json:"total_points"`
	CrowdedPoints          int       `json:"crowded_points"`
	AverageWeight          float64   `json:"average_weight"`
	TotalDistanceMeters    float64   `json:"total_distance_meters"`
	GeodesicDistanceMeters float64   `json:"geodesic_distance_meters"`
	EfficiencyPercent      float64   `json:"efficiency_percent"`
	RouteType              RouteKind `json:"route_type"`
	CrowdIntersection      float64   `json:"crowd_intersection"`
}

// RouteSelection is the chosen candidate with its statistics
type RouteSelection struct {
	Index      int             `json:"index"`
	Route      RouteCandidate  `json:"route"`
	Statistics RouteStatistics `json:"statistics"`
}

// RouteResult contains the full result of a route calculation.
// Selected is nil when no candidate could be produced.
type RouteResult struct {
	Selected   *RouteSelection  `json:"selected"`
	Candidates []RouteCandidate `json:"candidates"`
}

// RouteCacheEntry represents a cached routing provider response
type RouteCacheEntry struct {
	Key       string          `json:"key"`
	Routes    [][]Coordinates `json:"routes"`
	CreatedAt time.Time       `json:"created_at"`
}
