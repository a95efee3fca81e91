package routing

import (
	"crowd-router/internal/crowd"
	"crowd-router/internal/models"
)

// AnalyzeCrowdIntersections scores how much of route falls inside the zones.
// Each zone contributes (points inside / route length) * weight to the total.
// The worst zone is the one with the highest ratio; a route touching no zone
// has no worst zone.
func AnalyzeCrowdIntersections(route []models.Coordinates, zones []models.CrowdZone) models.IntersectionReport {
	var report models.IntersectionReport
	if len(zones) == 0 {
		return report
	}

	bestRatio := 0.0
	for _, zone := range zones {
		count := 0
		for _, p := range route {
			if crowd.Contains(zone, p) {
				count++
			}
		}

		ratio := 0.0
		if len(route) > 0 {
			ratio = float64(count) / float64(len(route))
		}
		report.TotalIntersection += ratio * float64(zone.Weight)

		if ratio > bestRatio {
			bestRatio = ratio
			report.WorstZone = &models.ZoneHit{
				Zone:       zone,
				Ratio:      ratio,
				PointCount: count,
			}
		}
	}

	report.AverageIntersection = report.TotalIntersection / float64(len(zones))
	return report
}

// SelectBestRoute returns the index of the candidate with the lowest total
// intersection, the earliest one on ties. ok is false for an empty list.
func SelectBestRoute(candidates []models.RouteCandidate) (index int, ok bool) {
	if len(candidates) == 0 {
		return -1, false
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Intersection.TotalIntersection < candidates[best].Intersection.TotalIntersection {
			best = i
		}
	}
	return best, true
}
