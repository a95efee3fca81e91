package routing

import (
	"github.com/golang/geo/r2"

	"crowd-router/internal/crowd"
	"crowd-router/internal/models"
)

// avoidanceOffsets are the distances in degrees of the synthetic waypoints
// from the heaviest zone's centre, along the perpendicular of start->end
var avoidanceOffsets = []float64{0.002, 0.004, 0.006}

// heaviestZone returns the zone with the highest weight, the first one on ties
func heaviestZone(zones []models.CrowdZone) (models.CrowdZone, bool) {
	if len(zones) == 0 {
		return models.CrowdZone{}, false
	}
	best := zones[0]
	for _, z := range zones[1:] {
		if z.Weight > best.Weight {
			best = z
		}
	}
	return best, true
}

// CreateAvoidanceWaypoints places waypoints beside the heaviest zone so that
// a route through them skirts it. It returns nil when there are no zones or
// when start and end coincide.
func CreateAvoidanceWaypoints(start, end models.Coordinates, zones []models.CrowdZone) []models.Coordinates {
	if start.Equal(end) {
		return nil
	}
	zone, ok := heaviestZone(zones)
	if !ok {
		return nil
	}

	direction := crowd.Point(end).Sub(crowd.Point(start))
	if direction.Norm() == 0 {
		return nil
	}
	perpendicular := direction.Ortho().Normalize()

	center := crowd.Point(zone.Center)
	waypoints := make([]models.Coordinates, 0, len(avoidanceOffsets))
	for _, offset := range avoidanceOffsets {
		p := center.Add(perpendicular.Mul(offset))
		waypoints = append(waypoints, fromPoint(p))
	}
	return waypoints
}

func fromPoint(p r2.Point) models.Coordinates {
	return models.Coordinates{Lat: p.Y, Lng: p.X}
}
