package crowd

import (
	"fmt"
	"log"
	"math"
	"slices"
	"sync"

	"crowd-router/internal/models"
)

// GridSize is the cell edge length in degrees (~55m at the equator)
const GridSize = 0.0005

// cellKey identifies a grid cell by its quantized indices
type cellKey struct {
	lat, lng int64
}

func keyFor(lat, lng float64) cellKey {
	return cellKey{
		lat: int64(math.Floor(lat / GridSize)),
		lng: int64(math.Floor(lng / GridSize)),
	}
}

// origin returns the south-west corner of the cell in degrees
func (k cellKey) origin() models.Coordinates {
	return models.Coordinates{
		Lat: float64(k.lat) * GridSize,
		Lng: float64(k.lng) * GridSize,
	}
}

// Grid is the spatial population index. It owns the cell counts and the
// zone set derived from them. All methods are safe for concurrent use.
type Grid struct {
	mu     sync.RWMutex
	counts map[cellKey]int
	order  []cellKey // insertion order of occupied cells
	zones  []models.CrowdZone
}

// NewGrid creates an empty population grid
func NewGrid() *Grid {
	return &Grid{
		counts: make(map[cellKey]int),
	}
}

// ValidateCoordinates checks that lat/lng are finite and within range
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return fmt.Errorf("%w: lat=%v lng=%v is not a finite number", ErrInvalidCoordinate, lat, lng)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: lat=%v out of range [-90, 90]", ErrInvalidCoordinate, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: lng=%v out of range [-180, 180]", ErrInvalidCoordinate, lng)
	}
	return nil
}

// AddPerson adds count people to the cell containing (lat, lng), recomputes
// the zone set and returns the cell's new population.
func (g *Grid) AddPerson(lat, lng float64, count int) (int, error) {
	if err := ValidateCoordinates(lat, lng); err != nil {
		return 0, err
	}
	if count <= 0 {
		return 0, fmt.Errorf("%w: count must be positive, got %d", ErrInvalidArgument, count)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := keyFor(lat, lng)
	if _, ok := g.counts[key]; !ok {
		g.order = append(g.order, key)
	}
	g.counts[key] += count
	g.zones = BuildZones(g.populatedAreasLocked())

	pop := g.counts[key]
	log.Printf("[CROWD] Added people: lat=%.6f lng=%.6f count=%d cell_population=%d zones=%d", lat, lng, count, pop, len(g.zones))
	return pop, nil
}

// Population returns the population of the cell containing (lat, lng)
func (g *Grid) Population(lat, lng float64) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.counts[keyFor(lat, lng)]
}

// RoutingWeight returns the routing penalty at (lat, lng)
func (g *Grid) RoutingWeight(lat, lng float64) int {
	return WeightForPopulation(g.Population(lat, lng))
}

// PopulatedAreas returns every cell with a positive population in insertion order
func (g *Grid) PopulatedAreas() []models.PopulatedArea {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.populatedAreasLocked()
}

func (g *Grid) populatedAreasLocked() []models.PopulatedArea {
	areas := make([]models.PopulatedArea, 0, len(g.order))
	for _, key := range g.order {
		pop := g.counts[key]
		if pop <= 0 {
			continue
		}
		origin := key.origin()
		areas = append(areas, models.PopulatedArea{
			Lat:        origin.Lat,
			Lng:        origin.Lng,
			Population: pop,
		})
	}
	return areas
}

// Zones returns a copy of the current zone set
func (g *Grid) Zones() []models.CrowdZone {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.zones)
}

// ClearAll removes all cells and zones
func (g *Grid) ClearAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counts = make(map[cellKey]int)
	g.order = nil
	g.zones = nil
	log.Printf("[CROWD] Cleared all crowd data")
}

// WeightForPopulation maps a cell population to its routing weight
func WeightForPopulation(pop int) int {
	switch {
	case pop >= 10:
		return 20
	case pop >= 6:
		return 10
	case pop >= 3:
		return 5
	case pop >= 1:
		return 2
	default:
		return 1
	}
}
