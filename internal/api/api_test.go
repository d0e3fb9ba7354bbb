package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opensource-health/centinela/internal/audit"
	"github.com/opensource-health/centinela/internal/domain"
	"github.com/opensource-health/centinela/internal/normalizer"
	"github.com/opensource-health/centinela/internal/policy"
	"github.com/opensource-health/centinela/internal/rules"
)

// createTestServer wires a server with one loaded rule and no repository.
func createTestServer() *Server {
	cfg := domain.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 30,
	}

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

	norm := normalizer.New()
	validator := policy.NewValidator(nil)
	pipeline := audit.NewPipeline(norm, engine, validator, nil, nil, "test-v1", 60)

	return NewServer(cfg, nil, nil, nil, engine, norm, validator, pipeline, "test-v1")
}

func auditBody(t *testing.T, req AuditRequest) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return bytes.NewBuffer(body)
}

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

func TestAuditEndpoint(t *testing.T) {
	server := createTestServer()

	t.Run("SuccessfulAudit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/audits", auditBody(t, AuditRequest{
			InsurerCode: "GNP",
			Record:      gnpRecord(),
		}))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp AuditResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if resp.AuditID == "" {
			t.Error("expected auditId in response")
		}
		if resp.ClaimID == "" {
			t.Error("expected claimId in response")
		}
		if resp.MedicalReportScore != 100 {
			t.Errorf("expected score 100 for a clean claim, got %d", resp.MedicalReportScore)
		}
		if resp.PolicyScore != nil {
			t.Error("expected no policy score without policy input")
		}
		if resp.Metadata.EngineVersion != "test-v1" {
			t.Errorf("expected engine version test-v1, got %s", resp.Metadata.EngineVersion)
		}
		if resp.Metadata.TraceID == "" {
			t.Error("expected traceId in metadata")
		}
		if resp.Metadata.RulesEvaluated != 1 {
			t.Errorf("expected 1 rule evaluated, got %d", resp.Metadata.RulesEvaluated)
		}
	})

	t.Run("TriggeredRule", func(t *testing.T) {
		record := gnpRecord()
		delete(record, "diagnostico")

		req := httptest.NewRequest(http.MethodPost, "/audits", auditBody(t, AuditRequest{
			InsurerCode: "GNP",
			Record:      record,
		}))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp AuditResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if resp.MedicalReportScore != 82 {
			t.Errorf("expected score 82 (100 - 18), got %d", resp.MedicalReportScore)
		}
		if len(resp.Findings) != 1 {
			t.Fatalf("expected 1 finding, got %d", len(resp.Findings))
		}
		if resp.Findings[0].Severity != domain.SeverityCritico {
			t.Errorf("expected CRITICO finding, got %s", resp.Findings[0].Severity)
		}
	})

	t.Run("WithPolicy", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/audits", auditBody(t, AuditRequest{
			InsurerCode: "GNP",
			Record:      gnpRecord(),
			Policy: &domain.PatientPolicy{
				NumeroPoliza:  "GNP-001234",
				VigenciaDesde: "01/01/2020",
				VigenciaHasta: "31/12/2030",
				SumaAsegurada: 1000000,
				Deducible:     15000,
				Coaseguro:     10,
			},
		}))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp AuditResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if resp.PolicyScore == nil {
			t.Fatal("expected policy score with policy input")
		}
		if resp.CombinedScore == nil {
			t.Fatal("expected combined score with policy input")
		}
	})

	t.Run("MissingTenantID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/audits", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")
		// No X-Tenant-ID header

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/audits", bytes.NewBufferString("not-json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("UnknownInsurer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/audits", auditBody(t, AuditRequest{
			InsurerCode: "ACME",
			Record:      gnpRecord(),
		}))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("MissingRecord", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/audits", auditBody(t, AuditRequest{
			InsurerCode: "GNP",
		}))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("ResponseHeaders", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/audits", auditBody(t, AuditRequest{
			InsurerCode: "GNP",
			Record:      gnpRecord(),
		}))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header in response")
		}
		if rr.Header().Get("X-Trace-ID") == "" {
			t.Error("expected X-Trace-ID header in response")
		}
		if rr.Header().Get("Content-Type") != "application/json" {
			t.Error("expected Content-Type: application/json")
		}
	})
}

func TestValidateEndpoint(t *testing.T) {
	server := createTestServer()

	t.Run("RequiresPolicy", func(t *testing.T) {
		body, _ := json.Marshal(ValidateRequest{Record: map[string]any{}})
		req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("SuccessfulValidation", func(t *testing.T) {
		medicalScore := 85
		body, _ := json.Marshal(ValidateRequest{
			Record: map[string]any{
				domain.FieldFechaIngreso: "10/05/2025",
			},
			Policy: &domain.PatientPolicy{
				NumeroPoliza:  "GNP-001234",
				VigenciaHasta: "31/12/2030",
				Deducible:     15000,
				Coaseguro:     10,
			},
			MedicalScore: &medicalScore,
		})
		req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var summary domain.PolicyValidationSummary
		if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if summary.PolicyComplianceScore != 100 {
			t.Errorf("expected compliance score 100, got %d", summary.PolicyComplianceScore)
		}
		// round(0.5*85 + 0.5*100) = 93
		if summary.CombinedScore == nil || *summary.CombinedScore != 93 {
			t.Errorf("expected combined score 93, got %v", summary.CombinedScore)
		}
	})
}

func TestRuleEndpoints(t *testing.T) {
	server := createTestServer()

	t.Run("ListRules", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rules", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 1 {
			t.Errorf("expected 1 rule, got %d", resp.Count)
		}
	})

	t.Run("GetRule", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rules/diagnostico-ausente", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var rule domain.ScoringRule
		json.Unmarshal(rr.Body.Bytes(), &rule)
		if rule.ID != "diagnostico-ausente" {
			t.Errorf("unexpected rule: %+v", rule)
		}
	})

	t.Run("GetRuleNotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rules/nonexistent", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("CreateRuleRejectsInvalid", func(t *testing.T) {
		// No conditions
		body, _ := json.Marshal(domain.ScoringRule{
			ID:    "bad-rule",
			Name:  "Bad",
			Level: domain.LevelModerado,
		})
		req := httptest.NewRequest(http.MethodPost, "/rules", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("CreateRule", func(t *testing.T) {
		body, _ := json.Marshal(domain.ScoringRule{
			ID:     "medico-sin-cedula",
			Name:   "Médico sin cédula",
			Level:  domain.LevelImportante,
			Points: 10,
			Conditions: []domain.RuleCondition{
				{ID: "c1", Field: domain.FieldMedicoCedula, Operator: domain.OpIsEmpty},
			},
			Enabled: true,
		})
		req := httptest.NewRequest(http.MethodPost, "/rules", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}
	})
}

func TestUpdateRule(t *testing.T) {
	server := createTestServer()

	t.Run("SeverityRelabelResetsPoints", func(t *testing.T) {
		// The loaded rule is CRITICO with 18 points; re-labelling it DISCRETO
		// must land on the DISCRETO default of 2, not a clamped boundary.
		body, _ := json.Marshal(domain.ScoringRule{
			Name:   "Diagnóstico ausente",
			Level:  domain.LevelDiscreto,
			Points: 18,
			Conditions: []domain.RuleCondition{
				{ID: "c1", Field: domain.FieldDiagnosticoDescripcion, Operator: domain.OpIsEmpty},
			},
			Enabled: true,
		})
		req := httptest.NewRequest(http.MethodPut, "/rules/diagnostico-ausente", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var rule domain.ScoringRule
		json.Unmarshal(rr.Body.Bytes(), &rule)
		if rule.Level != domain.LevelDiscreto {
			t.Errorf("expected DISCRETO level, got %s", rule.Level)
		}
		if rule.Points != 2 {
			t.Errorf("expected points reset to the DISCRETO default 2, got %d", rule.Points)
		}

		// The edit is live in the engine immediately.
		req = httptest.NewRequest(http.MethodGet, "/rules/diagnostico-ausente", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")
		rr = httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		var loaded domain.ScoringRule
		json.Unmarshal(rr.Body.Bytes(), &loaded)
		if loaded.Points != 2 {
			t.Errorf("expected loaded rule with 2 points after update, got %d", loaded.Points)
		}
	})

	t.Run("PointsInsideNewRangeAreKept", func(t *testing.T) {
		body, _ := json.Marshal(domain.ScoringRule{
			Name:   "Diagnóstico ausente",
			Level:  domain.LevelImportante,
			Points: 11,
			Conditions: []domain.RuleCondition{
				{ID: "c1", Field: domain.FieldDiagnosticoDescripcion, Operator: domain.OpIsEmpty},
			},
			Enabled: true,
		})
		req := httptest.NewRequest(http.MethodPut, "/rules/diagnostico-ausente", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var rule domain.ScoringRule
		json.Unmarshal(rr.Body.Bytes(), &rule)
		if rule.Points != 11 {
			t.Errorf("expected points 11 kept inside the IMPORTANTE range, got %d", rule.Points)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		body, _ := json.Marshal(domain.ScoringRule{
			Name:  "Ghost",
			Level: domain.LevelModerado,
			Conditions: []domain.RuleCondition{
				{ID: "c1", Field: domain.FieldMedicoCedula, Operator: domain.OpIsEmpty},
			},
			Enabled: true,
		})
		req := httptest.NewRequest(http.MethodPut, "/rules/nonexistent", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("RejectsInvalid", func(t *testing.T) {
		// No conditions
		body, _ := json.Marshal(domain.ScoringRule{
			Name:  "Bad",
			Level: domain.LevelModerado,
		})
		req := httptest.NewRequest(http.MethodPut, "/rules/diagnostico-ausente", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestInsurerEndpoints(t *testing.T) {
	server := createTestServer()

	t.Run("ListInsurers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/insurers", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 5 {
			t.Errorf("expected 5 built-in insurers, got %d", resp.Count)
		}
	})

	t.Run("GetInsurer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/insurers/GNP", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var cfg domain.InsurerConfig
		json.Unmarshal(rr.Body.Bytes(), &cfg)
		if cfg.Code != domain.InsurerGNP {
			t.Errorf("expected GNP config, got %s", cfg.Code)
		}
	})

	t.Run("GetInsurerNotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/insurers/ACME", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("UpdateInsurerRejectsUnknownParser", func(t *testing.T) {
		body, _ := json.Marshal(domain.InsurerConfig{
			DisplayName: "Mapfre",
			Mappings: map[string]domain.MappingEntry{
				domain.FieldPacienteNombre: {SourcePath: "nombre", Parser: "no-such-parser"},
			},
		})
		req := httptest.NewRequest(http.MethodPut, "/insurers/MAPFRE", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("UpdateInsurer", func(t *testing.T) {
		body, _ := json.Marshal(domain.InsurerConfig{
			DisplayName: "Mapfre Custom",
			Mappings: map[string]domain.MappingEntry{
				domain.FieldPacienteNombre: {SourcePath: "paciente", Parser: "trim", Validator: "non_empty"},
			},
		})
		req := httptest.NewRequest(http.MethodPut, "/insurers/MAPFRE", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		// The new table is live immediately
		req = httptest.NewRequest(http.MethodGet, "/insurers/MAPFRE", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")
		rr = httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		var cfg domain.InsurerConfig
		json.Unmarshal(rr.Body.Bytes(), &cfg)
		if cfg.DisplayName != "Mapfre Custom" {
			t.Errorf("expected updated display name, got %q", cfg.DisplayName)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	server := createTestServer()

	t.Run("HealthCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}

		var resp map[string]string
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if resp["status"] != "healthy" {
			t.Errorf("expected status 'healthy', got '%s'", resp["status"])
		}
		if resp["version"] != "test-v1" {
			t.Errorf("expected version 'test-v1', got '%s'", resp["version"])
		}
	})

	t.Run("ReadyCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("TenantMiddlewareExtractsID", func(t *testing.T) {
		var capturedTenantID string

		handler := TenantMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedTenantID = GetTenantID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Tenant-ID", "my-tenant-123")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedTenantID != "my-tenant-123" {
			t.Errorf("expected tenant ID 'my-tenant-123', got '%s'", capturedTenantID)
		}
	})

	t.Run("TracingMiddlewareSetsRequestID", func(t *testing.T) {
		var capturedRequestID string

		handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v, ok := r.Context().Value(RequestIDKey).(string); ok {
				capturedRequestID = v
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedRequestID == "" {
			t.Error("expected request ID to be set")
		}

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID response header")
		}
	})

	t.Run("BodyLimitRejectsOversizedPayload", func(t *testing.T) {
		handler := BodyLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := io.ReadAll(r.Body); err != nil {
				http.Error(w, `{"error":"request body too large"}`, http.StatusRequestEntityTooLarge)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, maxRequestBody+1)))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("expected status 413, got %d", rr.Code)
		}
	})

	t.Run("RecoverMiddlewareHandlesPanic", func(t *testing.T) {
		handler := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("test panic")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()

		// Should not panic
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rr.Code)
		}
	})
}
