package routing

import (
	"context"
	"log"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"crowd-router/internal/metrics"
	"crowd-router/internal/models"
	"crowd-router/internal/provider"
)

// DefaultBranchTimeout bounds a single provider call
const DefaultBranchTimeout = 15 * time.Second

// Generator requests candidate routes from a routing provider
type Generator struct {
	provider      provider.RouteProvider
	branchTimeout time.Duration
}

// GeneratorOption configures a Generator
type GeneratorOption func(*Generator)

// WithBranchTimeout sets the per-branch provider timeout
func WithBranchTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) {
		if d > 0 {
			g.branchTimeout = d
		}
	}
}

// NewGenerator creates a candidate generator backed by p
func NewGenerator(p provider.RouteProvider, opts ...GeneratorOption) *Generator {
	g := &Generator{
		provider:      p,
		branchTimeout: DefaultBranchTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GetMultipleRoutes fetches the direct, avoidance and alternative candidates
// concurrently and scores each against zones. A branch that fails is logged
// and contributes no candidate. Candidates are returned in branch order.
func (g *Generator) GetMultipleRoutes(ctx context.Context, start, end models.Coordinates, zones []models.CrowdZone) []models.RouteCandidate {
	snapshot := slices.Clone(zones)

	var (
		direct, avoidance, alternative []models.Coordinates
		eg                             errgroup.Group
	)

	eg.Go(func() error {
		direct = g.fetch(ctx, models.RouteKindDirect, []models.Coordinates{start, end}, false, 0)
		return nil
	})

	if len(snapshot) > 0 {
		if waypoints := CreateAvoidanceWaypoints(start, end, snapshot); len(waypoints) > 0 {
			path := make([]models.Coordinates, 0, len(waypoints)+2)
			path = append(path, start)
			path = append(path, waypoints...)
			path = append(path, end)
			eg.Go(func() error {
				avoidance = g.fetch(ctx, models.RouteKindAvoidance, path, false, 0)
				return nil
			})
		} else {
			log.Printf("[ROUTING] Avoidance skipped: start equals end")
		}
	}

	eg.Go(func() error {
		alternative = g.fetch(ctx, models.RouteKindAlternative, []models.Coordinates{start, end}, true, 1)
		return nil
	})

	eg.Wait()

	var candidates []models.RouteCandidate
	for _, c := range []struct {
		kind   models.RouteKind
		points []models.Coordinates
	}{
		{models.RouteKindDirect, direct},
		{models.RouteKindAvoidance, avoidance},
		{models.RouteKindAlternative, alternative},
	} {
		if len(c.points) == 0 {
			continue
		}
		candidates = append(candidates, models.RouteCandidate{
			Points:       c.points,
			Kind:         c.kind,
			Intersection: AnalyzeCrowdIntersections(c.points, snapshot),
		})
	}

	log.Printf("[ROUTING] Candidates generated: start=(%.6f,%.6f) end=(%.6f,%.6f) zones=%d candidates=%d",
		start.Lat, start.Lng, end.Lat, end.Lng, len(snapshot), len(candidates))
	return candidates
}

// fetch runs one provider call and returns the path at rank, or nil on any failure
func (g *Generator) fetch(ctx context.Context, kind models.RouteKind, waypoints []models.Coordinates, alternatives bool, rank int) []models.Coordinates {
	branch := string(kind)
	metrics.ProviderRequestsTotal.WithLabelValues(branch).Inc()

	ctx, cancel := context.WithTimeout(ctx, g.branchTimeout)
	defer cancel()

	started := time.Now()
	routes, err := g.provider.Route(ctx, waypoints, alternatives)
	metrics.ProviderDurationMs.WithLabelValues(branch).Observe(float64(time.Since(started).Milliseconds()))

	if err != nil {
		metrics.ProviderFailuresTotal.WithLabelValues(branch).Inc()
		log.Printf("[ERROR] Route branch failed: branch=%s waypoints=%d err=%v", branch, len(waypoints), err)
		return nil
	}

	if rank >= len(routes) || len(routes[rank]) == 0 {
		log.Printf("[ROUTING] Route branch produced no path: branch=%s routes=%d rank=%d", branch, len(routes), rank)
		return nil
	}

	return routes[rank]
}
