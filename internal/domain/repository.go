// Package domain defines the core interfaces and types for Centinela.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
// All methods require tenantID for strict multi-tenancy isolation.
type Repository interface {
	// Claim operations
	SaveClaim(ctx context.Context, tenantID string, claim *Claim) error
	GetClaim(ctx context.Context, tenantID string, claimID string) (*Claim, error)

	// Scoring rule operations
	SaveRule(ctx context.Context, tenantID string, rule *ScoringRule) error
	GetRule(ctx context.Context, tenantID string, ruleID string) (*ScoringRule, error)
	ListRules(ctx context.Context, tenantID string) ([]*ScoringRule, error)
	DeleteRule(ctx context.Context, tenantID string, ruleID string) error

	// Audit results
	SaveAudit(ctx context.Context, tenantID string, audit *Audit) error
	GetAudit(ctx context.Context, tenantID string, auditID string) (*Audit, error)
	ListAuditsByClaim(ctx context.Context, tenantID string, claimID string) ([]*Audit, error)

	// Patient policies
	SavePolicy(ctx context.Context, tenantID string, policy *PatientPolicy) error
	GetPolicy(ctx context.Context, tenantID string, numeroPoliza string) (*PatientPolicy, error)

	// Insurer mapping configurations
	SaveInsurerConfig(ctx context.Context, tenantID string, cfg *InsurerConfig) error
	GetInsurerConfig(ctx context.Context, tenantID string, code InsurerCode) (*InsurerConfig, error)
	ListInsurerConfigs(ctx context.Context, tenantID string) ([]*InsurerConfig, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
