package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crowd-router/internal/database"
	"crowd-router/internal/metrics"
	"crowd-router/internal/models"
)

// DefaultBaseURL is the public OSRM demo server
const DefaultBaseURL = "https://router.project-osrm.org"

// RouteProvider computes driving paths through an ordered list of waypoints.
// Each returned path is a latitude-first point sequence; when alternatives is
// true the provider may return more than one path, best first.
type RouteProvider interface {
	Route(ctx context.Context, waypoints []models.Coordinates, alternatives bool) ([][]models.Coordinates, error)
}

// ErrProviderUnavailable is returned when the routing provider cannot produce a route
type ErrProviderUnavailable struct {
	Waypoints int
	Reason    string
}

func (e *ErrProviderUnavailable) Error() string {
	return fmt.Sprintf("routing provider unavailable: %s", e.Reason)
}

type osrmProvider struct {
	baseURL    string
	httpClient *http.Client
	cache      database.RouteCacheRepository
}

type osrmGeometry struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type osrmRoute struct {
	Geometry osrmGeometry `json:"geometry"`
	Distance float64      `json:"distance"`
	Duration float64      `json:"duration"`
}

type osrmRouteResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Routes  []osrmRoute `json:"routes"`
}

// NewOSRMProvider creates an OSRM route service client. cache may be nil.
func NewOSRMProvider(baseURL string, timeout time.Duration, cache database.RouteCacheRepository) RouteProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &osrmProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache: cache,
	}
}

// ToProviderOrder converts latitude-first points into OSRM [lng, lat] pairs
func ToProviderOrder(points []models.Coordinates) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = []float64{p.Lng, p.Lat}
	}
	return out
}

// FromProviderOrder converts OSRM [lng, lat] pairs into latitude-first points
func FromProviderOrder(pairs [][]float64) ([]models.Coordinates, error) {
	out := make([]models.Coordinates, len(pairs))
	for i, pair := range pairs {
		if len(pair) < 2 {
			return nil, fmt.Errorf("coordinate %d has %d components", i, len(pair))
		}
		out[i] = models.Coordinates{Lat: pair[1], Lng: pair[0]}
	}
	return out, nil
}

func (p *osrmProvider) routeURL(waypoints []models.Coordinates, alternatives bool) string {
	coords := make([]string, len(waypoints))
	for i, pair := range ToProviderOrder(waypoints) {
		coords[i] = fmt.Sprintf("%.6f,%.6f", pair[0], pair[1])
	}

	query := url.Values{}
	query.Set("overview", "full")
	query.Set("geometries", "geojson")
	if alternatives {
		query.Set("alternatives", "true")
	}

	return fmt.Sprintf("%s/route/v1/driving/%s?%s", p.baseURL, strings.Join(coords, ";"), query.Encode())
}

func (p *osrmProvider) Route(ctx context.Context, waypoints []models.Coordinates, alternatives bool) ([][]models.Coordinates, error) {
	n := len(waypoints)
	if n < 2 {
		return nil, &ErrProviderUnavailable{Waypoints: n, Reason: "at least two waypoints are required"}
	}

	queryURL := p.routeURL(waypoints, alternatives)

	if p.cache != nil {
		cached, err := p.cache.Get(ctx, queryURL)
		if err != nil {
			log.Printf("[OSRM] Cache read failed: waypoints=%d err=%v", n, err)
		} else if cached != nil {
			metrics.RouteCacheHitsTotal.Inc()
			return cached.Routes, nil
		}
		metrics.RouteCacheMissesTotal.Inc()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to create OSRM request: waypoints=%d err=%v", n, err)
		return nil, &ErrProviderUnavailable{Waypoints: n, Reason: err.Error()}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Printf("[ERROR] OSRM API request failed: waypoints=%d err=%v", n, err)
		return nil, &ErrProviderUnavailable{Waypoints: n, Reason: err.Error()}
	}
	defer resp.Body.Close()

	var osrmResp osrmRouteResponse
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		// OSRM reports routing errors such as NoRoute with a 400 and a JSON body
		if json.Unmarshal(body, &osrmResp) == nil && osrmResp.Code != "" {
			log.Printf("[ERROR] OSRM returned error code: waypoints=%d status=%d code=%s message=%s", n, resp.StatusCode, osrmResp.Code, osrmResp.Message)
			return nil, &ErrProviderUnavailable{Waypoints: n, Reason: fmt.Sprintf("OSRM error: %s %s", osrmResp.Code, osrmResp.Message)}
		}
		log.Printf("[ERROR] OSRM API error: waypoints=%d status=%d body=%s", n, resp.StatusCode, string(body))
		return nil, &ErrProviderUnavailable{
			Waypoints: n,
			Reason:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(&osrmResp); err != nil {
		log.Printf("[ERROR] Failed to decode OSRM response: waypoints=%d err=%v", n, err)
		return nil, &ErrProviderUnavailable{Waypoints: n, Reason: err.Error()}
	}

	if osrmResp.Code != "Ok" {
		log.Printf("[ERROR] OSRM returned error code: waypoints=%d code=%s message=%s", n, osrmResp.Code, osrmResp.Message)
		return nil, &ErrProviderUnavailable{Waypoints: n, Reason: fmt.Sprintf("OSRM error: %s %s", osrmResp.Code, osrmResp.Message)}
	}

	if len(osrmResp.Routes) == 0 {
		log.Printf("[ERROR] OSRM returned no routes: waypoints=%d", n)
		return nil, &ErrProviderUnavailable{Waypoints: n, Reason: "no routes returned"}
	}

	routes := make([][]models.Coordinates, 0, len(osrmResp.Routes))
	for i, r := range osrmResp.Routes {
		points, err := FromProviderOrder(r.Geometry.Coordinates)
		if err != nil {
			log.Printf("[ERROR] Malformed OSRM geometry: waypoints=%d route=%d err=%v", n, i, err)
			return nil, &ErrProviderUnavailable{Waypoints: n, Reason: err.Error()}
		}
		routes = append(routes, points)
	}

	log.Printf("[OSRM] Route response: waypoints=%d alternatives=%t routes=%d points=%d", n, alternatives, len(routes), len(routes[0]))

	if p.cache != nil {
		entry := &models.RouteCacheEntry{Key: queryURL, Routes: routes, CreatedAt: time.Now()}
		if err := p.cache.Set(ctx, entry); err != nil {
			log.Printf("[OSRM] Cache write failed: waypoints=%d err=%v", n, err)
		}
	}

	return routes, nil
}
