// Package worker provides async claim processing for the Pro tier.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-health/centinela/internal/audit"
	"github.com/opensource-health/centinela/internal/domain"
)

// Worker processes claims asynchronously from the EventBus.
type Worker struct {
	bus      domain.EventBus
	pipeline *audit.Pipeline

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = all via wildcard if supported)
	TenantIDs []string
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, pipeline *audit.Pipeline) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      bus,
		pipeline: pipeline,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins processing messages for the given tenants.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.TenantIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, tenantID := range cfg.TenantIDs {
		if err := w.startTenantWorker(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
	)

	return nil
}

// startGlobalWorker starts a worker that processes all tenants (for testing/dev).
func (w *Worker) startGlobalWorker() error {
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicClaimReceived, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startTenantWorker starts workers for a specific tenant.
func (w *Worker) startTenantWorker(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicClaimReceived, func(ctx context.Context, msg *domain.Message) error {
		return w.processClaim(ctx, tenantID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
		"topic", domain.TopicClaimReceived,
	)

	return nil
}

// handleMessage handles messages from global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processClaim(ctx, msg.TenantID, msg)
}

// processClaim runs a claim event through the audit pipeline and publishes
// the typed result envelope.
func (w *Worker) processClaim(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	event, err := domain.DecodeClaimReceived(msg.Payload)
	if err != nil {
		slog.Error("discarding claim event",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Use event tenant if provided
	if event.TenantID != "" {
		tenantID = event.TenantID
	}

	traceID := event.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("processing claim",
		"claim_id", event.ClaimID,
		"tenant_id", tenantID,
		"trace_id", traceID,
	)

	claim := &domain.Claim{
		ID:          event.ClaimID,
		TenantID:    tenantID,
		InsurerCode: event.InsurerCode,
		Raw:         event.Record,
		ReceivedAt:  time.Now().UTC(),
	}

	out, err := w.pipeline.Run(ctx, &audit.Input{
		TenantID:   tenantID,
		TraceID:    traceID,
		Claim:      claim,
		Policy:     event.Policy,
		Conditions: event.Conditions,
	})
	if err != nil {
		slog.Error("audit pipeline failed",
			"claim_id", event.ClaimID,
			"error", err,
		)
		return err
	}

	alert := w.pipeline.ShouldAlert(out.Audit)
	resultPayload, err := domain.NewAuditCompletedEvent(out.Audit, alert).Encode()
	if err != nil {
		slog.Error("failed to encode audit event",
			"claim_id", event.ClaimID,
			"error", err,
		)
		return err
	}

	if err := w.bus.Publish(ctx, tenantID, domain.TopicAuditCompleted, resultPayload); err != nil {
		slog.Error("failed to publish audit completed",
			"claim_id", event.ClaimID,
			"error", err,
		)
	}

	// Below the alert threshold the same envelope goes to the alert topic
	if alert {
		if err := w.bus.Publish(ctx, tenantID, domain.TopicAuditAlert, resultPayload); err != nil {
			slog.Error("failed to publish audit alert",
				"claim_id", event.ClaimID,
				"error", err,
			)
		}
	}

	slog.Info("claim processed",
		"claim_id", event.ClaimID,
		"tenant_id", tenantID,
		"final_score", out.Audit.FinalScore(),
		"findings", len(out.Audit.Findings),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
