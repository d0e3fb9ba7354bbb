package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opensource-health/centinela/internal/audit"
	"github.com/opensource-health/centinela/internal/bus"
	"github.com/opensource-health/centinela/internal/domain"
	"github.com/opensource-health/centinela/internal/normalizer"
	"github.com/opensource-health/centinela/internal/policy"
	"github.com/opensource-health/centinela/internal/rules"
)

// gnpRecord is a minimal GNP claim that satisfies every required mapping.
func gnpRecord() map[string]any {
	return map[string]any{
		"datos_paciente": map[string]any{
			"nombre_completo":  "MARIA GARCIA",
			"fecha_nacimiento": "15/03/1980",
		},
		"datos_poliza": map[string]any{"numero_poliza": "GNP-001234"},
		"diagnostico":  map[string]any{"descripcion_diagnostico": "Apendicitis aguda"},
		"medico_tratante": map[string]any{
			"nombre": "DR. HERNANDEZ",
		},
	}
}

func newTestPipeline(alertThreshold int) *audit.Pipeline {
	engine := rules.NewEngine()
	engine.LoadRules([]*domain.ScoringRule{
		{
			ID:     "diagnostico-ausente",
			Name:   "Diagnóstico ausente",
			Level:  domain.LevelCritico,
			Points: 18,
			Conditions: []domain.RuleCondition{
				{ID: "c1", Field: domain.FieldDiagnosticoDescripcion, Operator: domain.OpIsEmpty},
			},
			LogicOperator: domain.LogicAnd,
			Enabled:       true,
		},
	})

	return audit.NewPipeline(normalizer.New(), engine, policy.NewValidator(nil), nil, nil, "test", alertThreshold)
}

func TestWorker(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	pipeline := newTestPipeline(60)
	worker := NewWorker(eventBus, pipeline)

	t.Run("StartAndStop", func(t *testing.T) {
		cfg := Config{
			TenantIDs: []string{"tenant-001"},
		}

		err := worker.Start(cfg)
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		stats := worker.GetStats()
		if stats.SubscriptionCount != 1 {
			t.Errorf("expected 1 subscription, got %d", stats.SubscriptionCount)
		}

		err = worker.Stop()
		if err != nil {
			t.Errorf("Stop failed: %v", err)
		}

		stats = worker.GetStats()
		if stats.SubscriptionCount != 0 {
			t.Errorf("expected 0 subscriptions after stop, got %d", stats.SubscriptionCount)
		}
	})

	t.Run("ProcessClaim", func(t *testing.T) {
		w := NewWorker(eventBus, pipeline)

		cfg := Config{
			TenantIDs: []string{"tenant-test"},
		}
		w.Start(cfg)
		defer w.Stop()

		var completedReceived atomic.Bool
		var completedPayload []byte

		eventBus.Subscribe(context.Background(), "tenant-test", domain.TopicAuditCompleted, func(ctx context.Context, msg *domain.Message) error {
			completedPayload = msg.Payload
			completedReceived.Store(true)
			return nil
		})

		// Allow subscriptions to be active
		time.Sleep(50 * time.Millisecond)

		payload, err := (&domain.ClaimReceivedEvent{
			ClaimID:     "claim-001",
			TenantID:    "tenant-test",
			TraceID:     "trace-001",
			InsurerCode: domain.InsurerGNP,
			Record:      gnpRecord(),
		}).Encode()
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if err := eventBus.Publish(context.Background(), "tenant-test", domain.TopicClaimReceived, payload); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		// Wait for processing
		time.Sleep(100 * time.Millisecond)

		if !completedReceived.Load() {
			t.Fatal("expected completed audit to be published")
		}

		result, err := domain.DecodeAuditCompleted(completedPayload)
		if err != nil {
			t.Fatalf("failed to parse audit event: %v", err)
		}

		if result.ClaimID != "claim-001" {
			t.Errorf("expected claimID 'claim-001', got '%s'", result.ClaimID)
		}
		if result.TenantID != "tenant-test" {
			t.Errorf("expected tenantID 'tenant-test', got '%s'", result.TenantID)
		}
		if result.Audit == nil || result.Audit.Metadata.TraceID != "trace-001" {
			t.Errorf("expected traceID 'trace-001' inside the audit, got %+v", result.Audit)
		}
		if result.FinalScore != 100 {
			t.Errorf("expected final score 100 for a clean claim, got %d", result.FinalScore)
		}
		if result.Alert {
			t.Error("expected no alert flag for a clean claim")
		}
	})

	t.Run("AlertPublished", func(t *testing.T) {
		// Threshold above the defective claim's score of 82
		alertPipeline := newTestPipeline(90)
		w := NewWorker(eventBus, alertPipeline)

		cfg := Config{
			TenantIDs: []string{"tenant-alert"},
		}
		w.Start(cfg)
		defer w.Stop()

		var alertReceived atomic.Bool
		var alertPayload []byte

		eventBus.Subscribe(context.Background(), "tenant-alert", domain.TopicAuditAlert, func(ctx context.Context, msg *domain.Message) error {
			alertPayload = msg.Payload
			alertReceived.Store(true)
			return nil
		})

		time.Sleep(50 * time.Millisecond)

		// Claim without a diagnosis triggers the CRITICO rule (100 - 18 = 82)
		record := gnpRecord()
		delete(record, "diagnostico")

		payload, _ := (&domain.ClaimReceivedEvent{
			ClaimID:     "claim-alert",
			TenantID:    "tenant-alert",
			InsurerCode: domain.InsurerGNP,
			Record:      record,
		}).Encode()
		eventBus.Publish(context.Background(), "tenant-alert", domain.TopicClaimReceived, payload)

		time.Sleep(100 * time.Millisecond)

		if !alertReceived.Load() {
			t.Fatal("expected alert to be published for low-scoring claim")
		}

		event, err := domain.DecodeAuditCompleted(alertPayload)
		if err != nil {
			t.Fatalf("failed to parse alert event: %v", err)
		}
		if !event.Alert {
			t.Error("expected the alert flag set on the alert topic")
		}
		if event.FinalScore != 82 {
			t.Errorf("expected final score 82, got %d", event.FinalScore)
		}
	})

	t.Run("MultiTenant", func(t *testing.T) {
		w := NewWorker(eventBus, pipeline)

		cfg := Config{
			TenantIDs: []string{"tenant-a", "tenant-b"},
		}
		w.Start(cfg)
		defer w.Stop()

		stats := w.GetStats()
		if stats.SubscriptionCount != 2 {
			t.Errorf("expected 2 subscriptions for 2 tenants, got %d", stats.SubscriptionCount)
		}
	})
}

func TestClaimEventDecoding(t *testing.T) {
	t.Run("CarriesPolicyTerms", func(t *testing.T) {
		data, err := (&domain.ClaimReceivedEvent{
			ClaimID:     "claim-123",
			TenantID:    "tenant-001",
			TraceID:     "trace-456",
			InsurerCode: domain.InsurerMapfre,
			Record:      map[string]any{"nombre_paciente": "JOSE LOPEZ"},
			Policy: &domain.PatientPolicy{
				NumeroPoliza:  "MF-000123",
				SumaAsegurada: 500000,
			},
		}).Encode()
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		parsed, err := domain.DecodeClaimReceived(data)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if parsed.ClaimID != "claim-123" {
			t.Errorf("expected ClaimID 'claim-123', got '%s'", parsed.ClaimID)
		}
		if parsed.Policy == nil || parsed.Policy.NumeroPoliza != "MF-000123" {
			t.Errorf("policy terms did not survive the bus: %+v", parsed.Policy)
		}
	})

	t.Run("RejectsMissingRecord", func(t *testing.T) {
		data, _ := (&domain.ClaimReceivedEvent{
			ClaimID:     "claim-empty",
			InsurerCode: domain.InsurerGNP,
		}).Encode()

		if _, err := domain.DecodeClaimReceived(data); err == nil {
			t.Error("expected an error for a claim event without a record")
		}
	})

	t.Run("RejectsMalformedPayload", func(t *testing.T) {
		if _, err := domain.DecodeClaimReceived([]byte("not-json")); err == nil {
			t.Error("expected an error for a malformed payload")
		}
	})
}
