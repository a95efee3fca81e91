package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crowd-router/internal/database"
	"crowd-router/internal/models"
)

type routeCacheRepository struct {
	store *Store
}

func (r *routeCacheRepository) Get(ctx context.Context, key string) (*models.RouteCacheEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if r.store.closed {
		return nil, database.ErrCacheClosed
	}

	query := `SELECT cache_key, routes_json, created_at FROM route_cache WHERE cache_key = ?`

	var (
		routesJSON string
		createdAt  int64
		entry      models.RouteCacheEntry
	)
	err := r.store.db.QueryRowContext(ctx, query, key).Scan(&entry.Key, &routesJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get route cache entry: %w", err)
	}

	entry.CreatedAt = time.UnixMilli(createdAt)
	if r.store.ttl > 0 && time.Since(entry.CreatedAt) > r.store.ttl {
		return nil, nil
	}

	if err := json.Unmarshal([]byte(routesJSON), &entry.Routes); err != nil {
		return nil, fmt.Errorf("failed to decode route cache entry: %w", err)
	}

	return &entry, nil
}

func (r *routeCacheRepository) Set(ctx context.Context, entry *models.RouteCacheEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.closed {
		return database.ErrCacheClosed
	}

	routesJSON, err := json.Marshal(entry.Routes)
	if err != nil {
		return fmt.Errorf("failed to encode route cache entry: %w", err)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `INSERT OR REPLACE INTO route_cache (cache_key, routes_json, created_at) VALUES (?, ?, ?)`
	if _, err := r.store.db.ExecContext(ctx, query, entry.Key, string(routesJSON), createdAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to set route cache entry: %w", err)
	}

	if r.store.ttl > 0 {
		cutoff := time.Now().Add(-r.store.ttl).UnixMilli()
		if _, err := r.store.db.ExecContext(ctx, `DELETE FROM route_cache WHERE created_at < ?`, cutoff); err != nil {
			return fmt.Errorf("failed to purge expired route cache entries: %w", err)
		}
	}

	return nil
}

func (r *routeCacheRepository) Clear(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.closed {
		return database.ErrCacheClosed
	}

	if _, err := r.store.db.ExecContext(ctx, "DELETE FROM route_cache"); err != nil {
		return fmt.Errorf("failed to clear route cache: %w", err)
	}

	return nil
}
