package routing

import (
	"math"

	"github.com/golang/geo/s2"

	"crowd-router/internal/crowd"
	"crowd-router/internal/models"
)

const (
	// MetersPerDegree approximates one degree as 111km, ignoring longitude compression
	MetersPerDegree = 111000.0

	earthRadiusMeters = 6371008.8

	// crowdedWeight is the routing weight above which a point counts as crowded
	crowdedWeight = 2
)

// WeightFunc returns the routing weight at a location
type WeightFunc func(lat, lng float64) int

// ComputeStatistics derives the summary metrics for a selected route.
// weights is typically the current grid's RoutingWeight.
func ComputeStatistics(route models.RouteCandidate, weights WeightFunc) models.RouteStatistics {
	stats := models.RouteStatistics{
		TotalPoints:       len(route.Points),
		RouteType:         route.Kind,
		CrowdIntersection: route.Intersection.TotalIntersection,
	}
	if len(route.Points) == 0 {
		return stats
	}

	weightSum := 0
	for _, p := range route.Points {
		w := weights(p.Lat, p.Lng)
		weightSum += w
		if w > crowdedWeight {
			stats.CrowdedPoints++
		}
	}
	stats.AverageWeight = float64(weightSum) / float64(len(route.Points))

	stats.TotalDistanceMeters = PlanarLength(route.Points) * MetersPerDegree
	stats.GeodesicDistanceMeters = GeodesicLength(route.Points)

	crowdedShare := float64(stats.CrowdedPoints) / float64(stats.TotalPoints) * 100
	stats.EfficiencyPercent = math.Max(0, 100-crowdedShare)

	return stats
}

// PlanarLength sums consecutive degree-space distances along points
func PlanarLength(points []models.Coordinates) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += crowd.PlanarDistance(points[i-1], points[i])
	}
	return total
}

// GeodesicLength sums great-circle distances along points, in meters
func GeodesicLength(points []models.Coordinates) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		a := s2.LatLngFromDegrees(points[i-1].Lat, points[i-1].Lng)
		b := s2.LatLngFromDegrees(points[i].Lat, points[i].Lng)
		total += a.Distance(b).Radians() * earthRadiusMeters
	}
	return total
}
