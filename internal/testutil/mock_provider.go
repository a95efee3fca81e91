package testutil

import (
	"context"
	"fmt"
	"sync"

	"crowd-router/internal/models"
)

// ProviderCall tracks a call to the route provider
type ProviderCall struct {
	Waypoints    []models.Coordinates
	Alternatives bool
}

// MockRouteProvider is a scripted RouteProvider for tests.
// By default it returns a straight line through the waypoints, densified with
// Steps points per leg. Handler, when set, replaces the default behaviour.
type MockRouteProvider struct {
	Steps   int
	Handler func(ctx context.Context, waypoints []models.Coordinates, alternatives bool) ([][]models.Coordinates, error)

	mu    sync.Mutex
	calls []ProviderCall
}

func NewMockRouteProvider() *MockRouteProvider {
	return &MockRouteProvider{Steps: 10}
}

// Route records the call and returns the scripted or straight-line routes
func (m *MockRouteProvider) Route(ctx context.Context, waypoints []models.Coordinates, alternatives bool) ([][]models.Coordinates, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ProviderCall{
		Waypoints:    append([]models.Coordinates(nil), waypoints...),
		Alternatives: alternatives,
	})
	m.mu.Unlock()

	if m.Handler != nil {
		return m.Handler(ctx, waypoints, alternatives)
	}

	if len(waypoints) < 2 {
		return nil, fmt.Errorf("mock provider: need at least two waypoints")
	}
	return [][]models.Coordinates{StraightLine(waypoints, m.Steps)}, nil
}

// Calls returns a copy of the recorded calls
func (m *MockRouteProvider) Calls() []ProviderCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ProviderCall(nil), m.calls...)
}

// ResetCalls clears the recorded calls
func (m *MockRouteProvider) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// StraightLine interpolates steps points per leg between consecutive waypoints
func StraightLine(waypoints []models.Coordinates, steps int) []models.Coordinates {
	if steps < 1 {
		steps = 1
	}
	var points []models.Coordinates
	for i := 0; i < len(waypoints)-1; i++ {
		a, b := waypoints[i], waypoints[i+1]
		for s := 0; s < steps; s++ {
			t := float64(s) / float64(steps)
			points = append(points, models.Coordinates{
				Lat: a.Lat + (b.Lat-a.Lat)*t,
				Lng: a.Lng + (b.Lng-a.Lng)*t,
			})
		}
	}
	if len(waypoints) > 0 {
		points = append(points, waypoints[len(waypoints)-1])
	}
	return points
}

// MockRouteCache is an in-memory RouteCacheRepository for testing
type MockRouteCache struct {
	mu      sync.Mutex
	entries map[string]*models.RouteCacheEntry
}

func NewMockRouteCache() *MockRouteCache {
	return &MockRouteCache{
		entries: make(map[string]*models.RouteCacheEntry),
	}
}

func (c *MockRouteCache) Get(ctx context.Context, key string) (*models.RouteCacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		return entry, nil
	}
	return nil, nil
}

func (c *MockRouteCache) Set(ctx context.Context, entry *models.RouteCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Key] = entry
	return nil
}

func (c *MockRouteCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*models.RouteCacheEntry)
	return nil
}

// Count returns the number of entries in the cache
func (c *MockRouteCache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
