package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"crowd-router/internal/crowd"
	"crowd-router/internal/metrics"
	"crowd-router/internal/models"
	"crowd-router/internal/provider"
	"crowd-router/internal/routing"
)

var (
	// ErrClosed is returned when an engine is used after Close
	ErrClosed = errors.New("engine closed")

	ErrInvalidCoordinate = crowd.ErrInvalidCoordinate
	ErrInvalidArgument   = crowd.ErrInvalidArgument
)

// Engine owns one population grid and scores routes against it.
// Grid operations are synchronous and never wait on the routing provider.
type Engine struct {
	grid       *crowd.Grid
	candidates routing.CandidateSource

	mu     sync.RWMutex
	closed bool
}

// Option configures an Engine
type Option func(*config)

type config struct {
	generatorOpts []routing.GeneratorOption
	candidates    routing.CandidateSource
}

// WithGeneratorOptions passes options to the default candidate generator
func WithGeneratorOptions(opts ...routing.GeneratorOption) Option {
	return func(c *config) {
		c.generatorOpts = append(c.generatorOpts, opts...)
	}
}

// WithCandidateSource replaces the provider-backed generator
func WithCandidateSource(src routing.CandidateSource) Option {
	return func(c *config) {
		c.candidates = src
	}
}

// New creates an engine with an empty grid
func New(p provider.RouteProvider, opts ...Option) *Engine {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	src := cfg.candidates
	if src == nil {
		src = routing.NewGenerator(p, cfg.generatorOpts...)
	}

	return &Engine{
		grid:       crowd.NewGrid(),
		candidates: src,
	}
}

// Close releases the engine's grid once in-flight calls finish.
// Further calls return ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.grid.ClearAll()
}

// acquire holds the read lock for the duration of one operation so that
// Close waits for in-flight calls. Callers must RUnlock on success.
func (e *Engine) acquire() error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return ErrClosed
	}
	return nil
}

// AddPerson adds count people at (lat, lng) and returns the cell population
func (e *Engine) AddPerson(lat, lng float64, count int) (int, error) {
	if err := e.acquire(); err != nil {
		return 0, err
	}
	defer e.mu.RUnlock()
	pop, err := e.grid.AddPerson(lat, lng, count)
	if err != nil {
		return 0, err
	}
	metrics.PeopleAddedTotal.Add(float64(count))
	return pop, nil
}

// Population returns the population of the cell containing (lat, lng)
func (e *Engine) Population(lat, lng float64) (int, error) {
	if err := crowd.ValidateCoordinates(lat, lng); err != nil {
		return 0, err
	}
	if err := e.acquire(); err != nil {
		return 0, err
	}
	defer e.mu.RUnlock()
	return e.grid.Population(lat, lng), nil
}

// RoutingWeight returns the routing penalty at (lat, lng)
func (e *Engine) RoutingWeight(lat, lng float64) (int, error) {
	if err := crowd.ValidateCoordinates(lat, lng); err != nil {
		return 0, err
	}
	if err := e.acquire(); err != nil {
		return 0, err
	}
	defer e.mu.RUnlock()
	return e.grid.RoutingWeight(lat, lng), nil
}

// PopulatedAreas returns every occupied cell
func (e *Engine) PopulatedAreas() ([]models.PopulatedArea, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.mu.RUnlock()
	return e.grid.PopulatedAreas(), nil
}

// Zones returns the current crowd zones
func (e *Engine) Zones() ([]models.CrowdZone, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.mu.RUnlock()
	return e.grid.Zones(), nil
}

// ClearAll removes all crowd data
func (e *Engine) ClearAll() error {
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.mu.RUnlock()
	e.grid.ClearAll()
	return nil
}

// CalculateRoute fetches candidates between start and end, scores them
// against the zones as they are now, and selects the least crowded one.
// When no candidate can be produced the result has a nil Selected and the
// error is nil.
func (e *Engine) CalculateRoute(ctx context.Context, start, end models.Coordinates) (*models.RouteResult, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.mu.RUnlock()
	if err := crowd.ValidateCoordinates(start.Lat, start.Lng); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if err := crowd.ValidateCoordinates(end.Lat, end.Lng); err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	metrics.RouteCalculationsTotal.Inc()

	zones := e.grid.Zones()
	candidates := e.candidates.GetMultipleRoutes(ctx, start, end, zones)
	metrics.CandidatesPerCalculation.Observe(float64(len(candidates)))

	result := &models.RouteResult{Candidates: candidates}

	idx, ok := routing.SelectBestRoute(candidates)
	if !ok {
		metrics.NoRouteFoundTotal.Inc()
		log.Printf("[ROUTING] No route found: start=(%.6f,%.6f) end=(%.6f,%.6f)", start.Lat, start.Lng, end.Lat, end.Lng)
		return result, nil
	}

	result.Selected = e.selection(candidates, idx)
	log.Printf("[ROUTING] Route selected: kind=%s candidates=%d intersection=%.3f efficiency=%.1f%%",
		result.Selected.Route.Kind, len(candidates), result.Selected.Route.Intersection.TotalIntersection, result.Selected.Statistics.EfficiencyPercent)
	return result, nil
}

// SelectRoute picks candidate index as the selected route, overriding the
// automatic choice. Statistics are recomputed against the current grid.
func (e *Engine) SelectRoute(candidates []models.RouteCandidate, index int) (*models.RouteSelection, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.mu.RUnlock()
	if index < 0 || index >= len(candidates) {
		return nil, fmt.Errorf("%w: route index %d out of range [0, %d)", ErrInvalidArgument, index, len(candidates))
	}
	return e.selection(candidates, index), nil
}

func (e *Engine) selection(candidates []models.RouteCandidate, index int) *models.RouteSelection {
	route := candidates[index]
	return &models.RouteSelection{
		Index:      index,
		Route:      route,
		Statistics: routing.ComputeStatistics(route, e.grid.RoutingWeight),
	}
}
