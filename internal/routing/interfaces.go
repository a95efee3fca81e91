package routing

import (
	"context"

	"crowd-router/internal/models"
)

// CandidateSource produces scored candidate routes between two points
type CandidateSource interface {
	GetMultipleRoutes(ctx context.Context, start, end models.Coordinates, zones []models.CrowdZone) []models.RouteCandidate
}

var _ CandidateSource = (*Generator)(nil)
