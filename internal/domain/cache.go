package domain

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations.
// Supports two-phase caching: local LRU (Community) + Redis (Pro).
// All methods require tenantID for strict multi-tenancy isolation.
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, tenantID string, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, tenantID string, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, tenantID string, key string) error

	// GetNormalized retrieves a cached normalized-claim snapshot.
	GetNormalized(ctx context.Context, tenantID string, claimID string) (*NormalizedSnapshot, error)

	// SetNormalized caches a normalized-claim snapshot so re-audits after a
	// manual correction skip re-normalization of untouched claims.
	SetNormalized(ctx context.Context, tenantID string, claimID string, snap *NormalizedSnapshot, ttl time.Duration) error

	// IncrementCounter atomically increments a counter and returns new value.
	// Used for per-tenant audit volume counters.
	IncrementCounter(ctx context.Context, tenantID string, key string, window time.Duration) (int64, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// NormalizedSnapshot is a cached normalized claim.
type NormalizedSnapshot struct {
	ClaimID      string         `json:"claimId"`
	InsurerCode  InsurerCode    `json:"insurerCode"`
	Normalized   map[string]any `json:"normalized"`
	Success      bool           `json:"success"`
	NormalizedAt string         `json:"normalizedAt"`
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings (Community tier)
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings (Pro tier)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Two-phase settings
	EnableTwoPhase bool // If true, check local first, then Redis
}
