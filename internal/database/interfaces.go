package database

import (
	"context"

	"crowd-router/internal/models"
)

// CacheStore is the interface for the routing response cache backend
type CacheStore interface {
	Close() error
	HealthCheck(ctx context.Context) error
	RouteCache() RouteCacheRepository
}

// RouteCacheRepository stores routing provider responses by request key.
// Get returns nil, nil on a miss.
type RouteCacheRepository interface {
	Get(ctx context.Context, key string) (*models.RouteCacheEntry, error)
	Set(ctx context.Context, entry *models.RouteCacheEntry) error
	Clear(ctx context.Context) error
}
