package engine

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowd-router/internal/models"
	"crowd-router/internal/testutil"
)

var (
	start = models.Coordinates{Lat: 23.17, Lng: 75.78}
	end   = models.Coordinates{Lat: 23.20, Lng: 75.82}
)

// staticSource returns fixed candidates and records the zones it was given
type staticSource struct {
	candidates []models.RouteCandidate
	zones      []models.CrowdZone
}

func (s *staticSource) GetMultipleRoutes(ctx context.Context, start, end models.Coordinates, zones []models.CrowdZone) []models.RouteCandidate {
	s.zones = zones
	return s.candidates
}

// detourHandler routes straight for single requests and adds a detour via
// the south-east corner when alternatives are requested
func detourHandler(ctx context.Context, waypoints []models.Coordinates, alternatives bool) ([][]models.Coordinates, error) {
	main := testutil.StraightLine(waypoints, 10)
	if !alternatives {
		return [][]models.Coordinates{main}, nil
	}
	first, last := waypoints[0], waypoints[len(waypoints)-1]
	detour := testutil.StraightLine([]models.Coordinates{first, {Lat: first.Lat, Lng: last.Lng}, last}, 10)
	return [][]models.Coordinates{main, detour}, nil
}

func TestEngine_CrowdOperations(t *testing.T) {
	e := New(testutil.NewMockRouteProvider())
	defer e.Close()

	pop, err := e.AddPerson(23.1821, 75.7890, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, pop)

	pop, err = e.AddPerson(23.1831, 75.7900, 40)
	require.NoError(t, err)
	assert.Equal(t, 40, pop)

	areas, err := e.PopulatedAreas()
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.Equal(t, 20, areas[0].Population)
	assert.Equal(t, 40, areas[1].Population)

	got, err := e.Population(23.1821, 75.7890)
	require.NoError(t, err)
	assert.Equal(t, 20, got)

	weight, err := e.RoutingWeight(23.1831, 75.7900)
	require.NoError(t, err)
	assert.Equal(t, 20, weight)

	weight, err = e.RoutingWeight(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, weight)

	zones, err := e.Zones()
	require.NoError(t, err)
	assert.Len(t, zones, 2)

	require.NoError(t, e.ClearAll())
	areas, err = e.PopulatedAreas()
	require.NoError(t, err)
	assert.Empty(t, areas)
	zones, err = e.Zones()
	require.NoError(t, err)
	assert.Empty(t, zones)
}

func TestEngine_AddPersonInvalidCoordinate(t *testing.T) {
	e := New(testutil.NewMockRouteProvider())
	defer e.Close()

	_, err := e.AddPerson(91, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = e.AddPerson(math.NaN(), 0, 1)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	areas, err := e.PopulatedAreas()
	require.NoError(t, err)
	assert.Empty(t, areas)
}

func TestEngine_CalculateRoutePrefersUncrowdedCandidate(t *testing.T) {
	mock := testutil.NewMockRouteProvider()
	mock.Handler = detourHandler
	e := New(mock)
	defer e.Close()

	_, err := e.AddPerson(23.185, 75.80, 10)
	require.NoError(t, err)

	result, err := e.CalculateRoute(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 3)
	require.NotNil(t, result.Selected)

	assert.Equal(t, 2, result.Selected.Index)
	assert.Equal(t, models.RouteKindAlternative, result.Selected.Route.Kind)
	assert.Equal(t, 0.0, result.Selected.Route.Intersection.TotalIntersection)
	assert.Greater(t, result.Candidates[0].Intersection.TotalIntersection, 0.0)

	stats := result.Selected.Statistics
	assert.Equal(t, len(result.Selected.Route.Points), stats.TotalPoints)
	assert.Equal(t, 0, stats.CrowdedPoints)
	assert.Equal(t, 100.0, stats.EfficiencyPercent)
	assert.Equal(t, models.RouteKindAlternative, stats.RouteType)
}

func TestEngine_CalculateRouteNoCrowd(t *testing.T) {
	mock := testutil.NewMockRouteProvider()
	e := New(mock)
	defer e.Close()

	result, err := e.CalculateRoute(context.Background(), start, end)
	require.NoError(t, err)
	require.NotNil(t, result.Selected)

	assert.Equal(t, 0, result.Selected.Index)
	assert.Equal(t, models.RouteKindDirect, result.Selected.Route.Kind)
	// no zones, no alternative from the default mock
	assert.Len(t, result.Candidates, 1)
	assert.Len(t, mock.Calls(), 2)
}

func TestEngine_CalculateRouteNoRouteFound(t *testing.T) {
	mock := testutil.NewMockRouteProvider()
	mock.Handler = func(ctx context.Context, waypoints []models.Coordinates, alternatives bool) ([][]models.Coordinates, error) {
		return nil, errors.New("connection refused")
	}
	e := New(mock)
	defer e.Close()

	result, err := e.CalculateRoute(context.Background(), start, end)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Nil(t, result.Selected)
	assert.Empty(t, result.Candidates)
}

func TestEngine_CalculateRouteInvalidEndpoints(t *testing.T) {
	mock := testutil.NewMockRouteProvider()
	e := New(mock)
	defer e.Close()

	_, err := e.CalculateRoute(context.Background(), models.Coordinates{Lat: 100, Lng: 0}, end)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = e.CalculateRoute(context.Background(), start, models.Coordinates{Lat: 0, Lng: math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	assert.Empty(t, mock.Calls())
}

func TestEngine_CalculateRoutePassesZoneSnapshot(t *testing.T) {
	src := &staticSource{}
	e := New(nil, WithCandidateSource(src))
	defer e.Close()

	_, err := e.AddPerson(23.185, 75.80, 6)
	require.NoError(t, err)

	_, err = e.CalculateRoute(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, src.zones, 1)

	// later additions do not reach the snapshot already handed out
	_, err = e.AddPerson(23.185, 75.80, 10)
	require.NoError(t, err)
	assert.Equal(t, 6, src.zones[0].Population)
}

func TestEngine_SelectRoute(t *testing.T) {
	src := &staticSource{candidates: []models.RouteCandidate{
		{Kind: models.RouteKindDirect, Points: []models.Coordinates{start, end}, Intersection: models.IntersectionReport{TotalIntersection: 3}},
		{Kind: models.RouteKindAlternative, Points: []models.Coordinates{start, end}, Intersection: models.IntersectionReport{TotalIntersection: 1}},
	}}
	e := New(nil, WithCandidateSource(src))
	defer e.Close()

	result, err := e.CalculateRoute(context.Background(), start, end)
	require.NoError(t, err)
	require.NotNil(t, result.Selected)
	assert.Equal(t, 1, result.Selected.Index)

	sel, err := e.SelectRoute(result.Candidates, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, sel.Index)
	assert.Equal(t, models.RouteKindDirect, sel.Route.Kind)
	assert.Equal(t, models.RouteKindDirect, sel.Statistics.RouteType)
	assert.Equal(t, 3.0, sel.Statistics.CrowdIntersection)

	_, err = e.SelectRoute(result.Candidates, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.SelectRoute(result.Candidates, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEngine_Closed(t *testing.T) {
	e := New(testutil.NewMockRouteProvider())
	_, err := e.AddPerson(1, 1, 5)
	require.NoError(t, err)

	e.Close()
	e.Close()

	_, err = e.AddPerson(1, 1, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.Zones()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.CalculateRoute(context.Background(), start, end)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, e.ClearAll(), ErrClosed)
}

func TestEngine_LookupsRejectInvalidCoordinates(t *testing.T) {
	e := New(testutil.NewMockRouteProvider())
	defer e.Close()

	for _, c := range []models.Coordinates{
		{Lat: math.NaN(), Lng: 0},
		{Lat: math.Inf(1), Lng: 0},
		{Lat: 0, Lng: math.Inf(-1)},
		{Lat: -90.5, Lng: 0},
	} {
		_, err := e.Population(c.Lat, c.Lng)
		assert.ErrorIs(t, err, ErrInvalidCoordinate, "population at %v", c)

		_, err = e.RoutingWeight(c.Lat, c.Lng)
		assert.ErrorIs(t, err, ErrInvalidCoordinate, "weight at %v", c)
	}
}

func TestEngine_CloseWaitsForInFlightCalculation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	mock := testutil.NewMockRouteProvider()
	mock.Handler = func(ctx context.Context, waypoints []models.Coordinates, alternatives bool) ([][]models.Coordinates, error) {
		once.Do(func() { close(started) })
		<-release
		return [][]models.Coordinates{testutil.StraightLine(waypoints, 10)}, nil
	}
	e := New(mock)

	_, err := e.AddPerson(23.185, 75.80, 10)
	require.NoError(t, err)

	type outcome struct {
		result *models.RouteResult
		err    error
	}
	calculated := make(chan outcome, 1)
	go func() {
		result, err := e.CalculateRoute(context.Background(), start, end)
		calculated <- outcome{result, err}
	}()
	<-started

	closed := make(chan struct{})
	go func() {
		e.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a calculation was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	out := <-calculated
	require.NoError(t, out.err)
	require.NotNil(t, out.result.Selected)
	assert.Greater(t, out.result.Selected.Statistics.TotalPoints, 0)

	<-closed
	_, err = e.Zones()
	assert.ErrorIs(t, err, ErrClosed)
}
