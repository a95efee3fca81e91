package crowd

import (
	"math"

	"github.com/golang/geo/r2"

	"crowd-router/internal/models"
)

const (
	// MinZonePopulation is the smallest cell population that forms a zone
	MinZonePopulation = 3
	minZoneRadius     = 0.001
	radiusPerPerson   = 0.0003
)

// Point converts a coordinate into planar degree space (X = lng, Y = lat)
func Point(c models.Coordinates) r2.Point {
	return r2.Point{X: c.Lng, Y: c.Lat}
}

// PlanarDistance is the Euclidean distance between two points in degrees
func PlanarDistance(a, b models.Coordinates) float64 {
	return Point(a).Sub(Point(b)).Norm()
}

// BuildZones derives the zone set from the populated areas, in area order
func BuildZones(areas []models.PopulatedArea) []models.CrowdZone {
	var zones []models.CrowdZone
	for _, area := range areas {
		if area.Population < MinZonePopulation {
			continue
		}
		zones = append(zones, models.CrowdZone{
			Center:     area.GetCoords(),
			Radius:     math.Max(minZoneRadius, float64(area.Population)*radiusPerPerson),
			Population: area.Population,
			Weight:     WeightForPopulation(area.Population),
		})
	}
	return zones
}

// Contains reports whether point lies within the zone's radius
func Contains(zone models.CrowdZone, point models.Coordinates) bool {
	return PlanarDistance(point, zone.Center) <= zone.Radius
}

// PointInZone returns the first zone in list order containing point.
// Overlapping zones are not ranked by distance.
func PointInZone(zones []models.CrowdZone, point models.Coordinates) (models.CrowdZone, bool) {
	for _, zone := range zones {
		if Contains(zone, point) {
			return zone, true
		}
	}
	return models.CrowdZone{}, false
}

// ZonesOnRoute returns every zone touched by any route point, once each, in zone order
func ZonesOnRoute(zones []models.CrowdZone, route []models.Coordinates) []models.CrowdZone {
	hit := make([]bool, len(zones))
	for _, p := range route {
		for i, zone := range zones {
			if !hit[i] && Contains(zone, p) {
				hit[i] = true
			}
		}
	}

	var result []models.CrowdZone
	for i, zone := range zones {
		if hit[i] {
			result = append(result, zone)
		}
	}
	return result
}
