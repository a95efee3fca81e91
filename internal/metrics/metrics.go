package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crowdrouter_provider_requests_total",
		Help: "Routing provider requests by candidate branch",
	}, []string{"branch"})
	ProviderFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crowdrouter_provider_failures_total",
		Help: "Routing provider failures by candidate branch",
	}, []string{"branch"})
	ProviderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crowdrouter_provider_duration_ms",
		Help:    "Routing provider latency in milliseconds",
		Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"branch"})
	RouteCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crowdrouter_route_cache_hits_total",
		Help: "Routing provider responses served from cache",
	})
	RouteCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crowdrouter_route_cache_misses_total",
		Help: "Routing provider requests not found in cache",
	})
	RouteCalculationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crowdrouter_route_calculations_total",
		Help: "Route calculations requested",
	})
	NoRouteFoundTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crowdrouter_no_route_found_total",
		Help: "Route calculations that produced no candidate",
	})
	CandidatesPerCalculation = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "crowdrouter_candidates_per_calculation",
		Help:    "Number of candidate routes produced per calculation",
		Buckets: []float64{0, 1, 2, 3},
	})
	PeopleAddedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crowdrouter_people_added_total",
		Help: "People added to population grids",
	})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "crowdrouter_active_sessions",
		Help: "Engine sessions currently alive",
	})
)

func init() {
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderFailuresTotal)
	prometheus.MustRegister(ProviderDurationMs)
	prometheus.MustRegister(RouteCacheHitsTotal)
	prometheus.MustRegister(RouteCacheMissesTotal)
	prometheus.MustRegister(RouteCalculationsTotal)
	prometheus.MustRegister(NoRouteFoundTotal)
	prometheus.MustRegister(CandidatesPerCalculation)
	prometheus.MustRegister(PeopleAddedTotal)
	prometheus.MustRegister(ActiveSessions)
}

// Handler exposes the registered metrics for scraping
func Handler() http.Handler { return promhttp.Handler() }
