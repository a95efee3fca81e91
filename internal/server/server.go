package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"crowd-router/internal/config"
	"crowd-router/internal/engine"
	"crowd-router/internal/handlers"
	"crowd-router/internal/metrics"
	"crowd-router/internal/provider"
	"crowd-router/internal/routing"
	"crowd-router/internal/sqlite"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	cache      *sqlite.Store
	listener   net.Listener
	addr       string
}

// New creates and initializes a new server (does not start it)
func New(cfg config.Config) (*Server, error) {
	log.Printf("Initializing route cache...")
	cache, err := sqlite.New(cfg.CachePath, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize route cache: %w", err)
	}

	routeProvider := provider.NewOSRMProvider(cfg.OSRMBaseURL, cfg.ProviderTimeout, cache.RouteCache())
	sessions := handlers.NewSessionStore(func() *engine.Engine {
		return engine.New(routeProvider, engine.WithGeneratorOptions(routing.WithBranchTimeout(cfg.BranchTimeout)))
	})

	handler := &handlers.Handler{
		Sessions: sessions,
		Cache:    cache,
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		cache:      cache,
		addr:       cfg.Addr,
	}, nil
}

// NewRouter builds the full HTTP handler chain around the API
func NewRouter(handler *handlers.Handler) http.Handler {
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	cors := ghandlers.CORS(
		ghandlers.AllowedOrigins([]string{"*"}),
		ghandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		ghandlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := ghandlers.RecoveryHandler(ghandlers.PrintRecoveryStack(true))

	return ghandlers.LoggingHandler(os.Stdout, recovery(cors(r)))
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	log.Printf("Starting server on %s", actualAddr)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server error: %v", err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server, then disposes sessions and the cache
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.handler.Sessions.CloseAll()
	return s.cache.Close()
}
