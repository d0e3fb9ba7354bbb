// Centinela - Medical claim auditing that deploys in 60 seconds.
// Copyright (c) 2025 opensource.health
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/opensource-health/centinela/internal/api"
	"github.com/opensource-health/centinela/internal/audit"
	"github.com/opensource-health/centinela/internal/bus"
	"github.com/opensource-health/centinela/internal/cache"
	"github.com/opensource-health/centinela/internal/domain"
	"github.com/opensource-health/centinela/internal/normalizer"
	"github.com/opensource-health/centinela/internal/policy"
	"github.com/opensource-health/centinela/internal/repository"
	"github.com/opensource-health/centinela/internal/rules"
	"github.com/opensource-health/centinela/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("CENTINELA_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting centinela",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("CENTINELA_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Normalizer with built-in insurer mapping tables,
	// then overlay any tables stored in the database.
	norm := normalizer.New()
	loadInsurerConfigsFromDatabase(ctx, repo, norm)
	slog.Info("normalizer initialized", "insurers", len(norm.Configs()))

	// Initialize Rule Engine
	engine := rules.NewEngine()

	// Load rules from database (no hardcoded defaults - configure via API)
	loadRulesFromDatabase(ctx, repo, engine)
	slog.Info("rule engine initialized", "rules_count", engine.RulesCount())

	// Initialize Policy Validator. The external semantic matcher is optional;
	// without it the semantic exclusion check degrades to no-match.
	validator := policy.NewValidator(nil)
	validator.ConfidenceThreshold = cfg.Audit.SemanticConfidence
	validator.MedicalWeight = cfg.Audit.CombinedMedicalWeight
	slog.Info("policy validator initialized",
		"semantic_confidence", validator.ConfidenceThreshold,
	)

	// Initialize Audit Pipeline
	pipeline := audit.NewPipeline(norm, engine, validator, repo, cacheImpl, Version, cfg.Audit.AlertThreshold)
	slog.Info("audit pipeline initialized", "alert_threshold", cfg.Audit.AlertThreshold)

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("CENTINELA_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, pipeline)

		tenantIDs := []string{}
		if envTenants := os.Getenv("CENTINELA_TENANTS"); envTenants != "" {
			tenantIDs = strings.Split(envTenants, ",")
		}

		workerCfg := worker.Config{
			TenantIDs: tenantIDs,
		}

		if err := asyncWorker.Start(workerCfg); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "tenant_count", len(tenantIDs))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, engine, norm, validator, pipeline, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("centinela is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("centinela shutdown complete")
}

// GlobalTenantID is used for rules that apply to all tenants.
const GlobalTenantID = "*"

// loadRulesFromDatabase loads scoring rules from the database into the engine.
// All rules must be configured via POST /rules API - no hardcoded defaults.
func loadRulesFromDatabase(ctx context.Context, repo domain.Repository, engine *rules.Engine) {
	dbRules, err := repo.ListRules(ctx, GlobalTenantID)
	if err != nil {
		slog.Warn("failed to list rules from database", "error", err)
		return // Start with empty rules - they can be added via API
	}

	if len(dbRules) > 0 {
		slog.Info("loading rules from database", "count", len(dbRules))
		engine.LoadRules(dbRules)
		return
	}

	slog.Info("no rules in database - configure via POST /rules API")
}

// loadInsurerConfigsFromDatabase overlays stored mapping tables on the
// built-in ones.
func loadInsurerConfigsFromDatabase(ctx context.Context, repo domain.Repository, norm *normalizer.Normalizer) {
	configs, err := repo.ListInsurerConfigs(ctx, GlobalTenantID)
	if err != nil {
		slog.Warn("failed to list insurer configs from database", "error", err)
		return
	}

	if len(configs) > 0 {
		slog.Info("loading insurer configs from database", "count", len(configs))
		norm.LoadConfigs(configs)
	}
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║              🏥 CENTINELA                 ║")
	fmt.Println("  ║      Medical Claim Audit Engine           ║")
	fmt.Println("  ║       Eyes on every claim.                ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /audits             - Audit a claim")
	fmt.Println("    GET  /audits/{id}        - Get audit by ID")
	fmt.Println("    GET  /claims/{id}        - Get claim by ID")
	fmt.Println("    GET  /claims/{id}/audits - Audit history of a claim")
	fmt.Println("    POST /validate           - Run the policy cross-reference")
	fmt.Println("    GET  /rules              - List all rules")
	fmt.Println("    POST /rules              - Create a new rule")
	fmt.Println("    POST /rules/reload       - Hot-reload rules from database")
	fmt.Println("    GET  /insurers           - List insurer mapping tables")
	fmt.Println("    PUT  /insurers/{code}    - Replace an insurer mapping table")
	fmt.Println("    POST /policies           - Store a patient policy")
	fmt.Println("    GET  /health             - Health check")
	fmt.Println()
}
