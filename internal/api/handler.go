package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-health/centinela/internal/audit"
	"github.com/opensource-health/centinela/internal/domain"
	"github.com/opensource-health/centinela/internal/normalizer"
	"github.com/opensource-health/centinela/internal/policy"
	"github.com/opensource-health/centinela/internal/rules"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo       domain.Repository
	cache      domain.Cache
	bus        domain.EventBus
	engine     *rules.Engine
	normalizer *normalizer.Normalizer
	validator  *policy.Validator
	pipeline   *audit.Pipeline
	version    string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *rules.Engine, n *normalizer.Normalizer, validator *policy.Validator, pipeline *audit.Pipeline, version string) *Handler {
	return &Handler{
		repo:       repo,
		cache:      cache,
		bus:        bus,
		engine:     engine,
		normalizer: n,
		validator:  validator,
		pipeline:   pipeline,
		version:    version,
	}
}

// AuditRequest is the request body for POST /audits.
type AuditRequest struct {
	ClaimID     string         `json:"claimId,omitempty"`
	InsurerCode string         `json:"insurerCode"`
	Record      map[string]any `json:"record"`

	// Policy and Conditions enable the cross-reference stage.
	Policy     *domain.PatientPolicy     `json:"policy,omitempty"`
	Conditions *domain.GeneralConditions `json:"conditions,omitempty"`
}

// AuditResponse is the response for POST /audits.
type AuditResponse struct {
	AuditID            string               `json:"auditId"`
	ClaimID            string               `json:"claimId"`
	MedicalReportScore int                  `json:"medicalReportScore"`
	PolicyScore        *int                 `json:"policyScore,omitempty"`
	CombinedScore      *int                 `json:"combinedScore,omitempty"`
	Findings           []domain.Finding     `json:"findings"`
	Warnings           []string             `json:"warnings,omitempty"`
	Metadata           domain.AuditMetadata `json:"metadata"`
}

// CreateAudit handles POST /audits: the full pipeline for one claim.
func (h *Handler) CreateAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	traceID := GetTraceID(ctx)

	var req AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	code := domain.InsurerCode(req.InsurerCode)
	if !domain.ValidInsurer(code) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown insurerCode: " + req.InsurerCode,
		})
		return
	}
	if len(req.Record) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "record is required",
		})
		return
	}

	claimID := req.ClaimID
	if claimID == "" {
		claimID = uuid.New().String()
	}

	claim := &domain.Claim{
		ID:          claimID,
		TenantID:    tenantID,
		InsurerCode: code,
		Raw:         req.Record,
		ReceivedAt:  time.Now().UTC(),
	}

	out, err := h.pipeline.Run(ctx, &audit.Input{
		TenantID:   tenantID,
		TraceID:    traceID,
		Claim:      claim,
		Policy:     req.Policy,
		Conditions: req.Conditions,
	})
	if err != nil {
		slog.Error("audit pipeline failed", "claim_id", claimID, "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": err.Error(),
		})
		return
	}

	h.publishAudit(ctx, tenantID, out.Audit)

	writeJSON(w, http.StatusOK, AuditResponse{
		AuditID:            out.Audit.ID,
		ClaimID:            claimID,
		MedicalReportScore: out.Audit.MedicalReportScore,
		PolicyScore:        out.Audit.PolicyScore,
		CombinedScore:      out.Audit.CombinedScore,
		Findings:           out.Audit.Findings,
		Warnings:           out.Normalization.Warnings,
		Metadata:           out.Audit.Metadata,
	})
}

// publishAudit emits the completed event and, below the alert threshold,
// the alert event.
func (h *Handler) publishAudit(ctx context.Context, tenantID string, a *domain.Audit) {
	if h.bus == nil {
		return
	}

	alert := h.pipeline.ShouldAlert(a)
	payload, err := domain.NewAuditCompletedEvent(a, alert).Encode()
	if err != nil {
		slog.Error("failed to encode audit event", "audit_id", a.ID, "error", err)
		return
	}

	if err := h.bus.Publish(ctx, tenantID, domain.TopicAuditCompleted, payload); err != nil {
		slog.Error("failed to publish audit completed", "audit_id", a.ID, "error", err)
	}
	if alert {
		if err := h.bus.Publish(ctx, tenantID, domain.TopicAuditAlert, payload); err != nil {
			slog.Error("failed to publish audit alert", "audit_id", a.ID, "error", err)
		}
	}
}

// Health returns the health status of the server and its dependencies.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// GetAudit retrieves an audit by ID.
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	auditID := chi.URLParam(r, "id")

	if auditID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "audit id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	a, err := h.repo.GetAudit(ctx, tenantID, auditID)
	if err != nil {
		slog.Error("failed to get audit", "id", auditID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "audit not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// GetClaim retrieves a claim by ID.
func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	claimID := chi.URLParam(r, "id")

	if claimID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "claim id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	claim, err := h.repo.GetClaim(ctx, tenantID, claimID)
	if err != nil {
		slog.Error("failed to get claim", "id", claimID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "claim not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, claim)
}

// ListClaimAudits retrieves the audit history of a claim, newest first.
func (h *Handler) ListClaimAudits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	claimID := chi.URLParam(r, "id")

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	audits, err := h.repo.ListAuditsByClaim(ctx, tenantID, claimID)
	if err != nil {
		slog.Error("failed to list audits", "claim_id", claimID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list audits",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"audits": audits,
		"count":  len(audits),
	})
}

// ValidateRequest is the request body for POST /validate: the standalone
// policy cross-reference, without the rule engine stage.
type ValidateRequest struct {
	Record       map[string]any            `json:"record"`
	Policy       *domain.PatientPolicy     `json:"policy"`
	Conditions   *domain.GeneralConditions `json:"conditions,omitempty"`
	MedicalScore *int                      `json:"medicalScore,omitempty"`
}

// ValidatePolicy handles POST /validate requests.
func (h *Handler) ValidatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.Policy == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "policy is required",
		})
		return
	}

	summary := h.validator.Validate(ctx, req.Record, req.Policy, req.Conditions, req.MedicalScore)
	writeJSON(w, http.StatusOK, summary)
}

// ListRules returns all loaded rules from the engine.
// Rules are loaded from the database at startup and can be reloaded via POST /rules/reload.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	loadedRules := h.engine.Rules()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules":  loadedRules,
		"count":  len(loadedRules),
		"source": "database",
	})
}

// GetRule retrieves a rule by ID from the loaded engine rules.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	for _, rule := range h.engine.Rules() {
		if rule.ID == ruleID {
			writeJSON(w, http.StatusOK, rule)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "rule not found",
	})
}

// GlobalTenantID is used for rules that apply to all tenants.
const GlobalTenantID = "*"

// CreateRule creates a new scoring rule and saves it to the database.
// Rules are saved globally (tenant_id = "*") so they apply to all tenants.
// After saving, call POST /rules/reload to hot-reload into the engine.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rule domain.ScoringRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	rule.TenantID = GlobalTenantID
	if rule.Version == "" {
		rule.Version = "1.0.0"
	}
	rule.Normalize()

	if err := h.engine.ValidateRule(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveRule(ctx, GlobalTenantID, &rule); err != nil {
			slog.Error("failed to save rule", "id", rule.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule",
			})
			return
		}
	}

	slog.Info("rule created", "id", rule.ID, "name", rule.Name)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"rule":    rule,
		"message": "Rule created. Call POST /rules/reload to apply changes.",
	})
}

// UpdateRule replaces a rule definition in place. A severity re-label keeps
// the configured points only when they fit the new level's range; otherwise
// they reset to the new level's default, so an 18-point rule dropped to
// DISCRETO lands on 2 instead of a clamped boundary value.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	var existing *domain.ScoringRule
	for _, loaded := range h.engine.Rules() {
		if loaded.ID == ruleID {
			existing = loaded
			break
		}
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "rule not found",
		})
		return
	}

	var rule domain.ScoringRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	rule.ID = ruleID
	rule.TenantID = GlobalTenantID
	if rule.Version == "" {
		rule.Version = existing.Version
	}
	if rule.Level == "" {
		rule.Level = existing.Level
	}

	// Recompute points before Normalize: its clamp would turn a re-labelled
	// rule's old points into a range boundary rather than the level default.
	if rule.Level != existing.Level {
		rule.Points = domain.AdjustPointsForLevelChange(rule.Points, rule.Level)
	}
	rule.Normalize()

	if err := h.engine.ValidateRule(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveRule(ctx, GlobalTenantID, &rule); err != nil {
			slog.Error("failed to save rule", "id", rule.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule",
			})
			return
		}

		// Auto-reload the engine after update
		dbRules, err := h.repo.ListRules(ctx, GlobalTenantID)
		if err != nil {
			slog.Error("failed to reload rules after update", "error", err)
		} else {
			h.engine.ReloadRules(dbRules)
		}
	} else {
		// Without persistence the engine snapshot is the source of truth;
		// swap the edited rule into a fresh snapshot directly.
		loaded := h.engine.Rules()
		updated := make([]*domain.ScoringRule, 0, len(loaded))
		for _, lr := range loaded {
			if lr.ID == ruleID {
				updated = append(updated, &rule)
			} else {
				updated = append(updated, lr)
			}
		}
		h.engine.ReloadRules(updated)
	}

	slog.Info("rule updated", "id", rule.ID, "level", rule.Level, "points", rule.Points)
	writeJSON(w, http.StatusOK, rule)
}

// DeleteRule soft-deletes a rule and auto-reloads the engine.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.DeleteRule(ctx, GlobalTenantID, ruleID); err != nil {
			slog.Error("failed to delete rule", "id", ruleID, "error", err)
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "rule not found",
			})
			return
		}

		// Auto-reload the engine after delete
		dbRules, err := h.repo.ListRules(ctx, GlobalTenantID)
		if err != nil {
			slog.Error("failed to reload rules after delete", "error", err)
		} else {
			h.engine.ReloadRules(dbRules)
			slog.Info("rules auto-reloaded after delete", "count", len(dbRules))
		}
	}

	slog.Info("rule deleted", "id", ruleID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Rule deleted and engine reloaded.",
	})
}

// ReloadRules reloads all rules from the database into the engine.
// This enables hot-reloading without server restart.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	dbRules, err := h.repo.ListRules(ctx, GlobalTenantID)
	if err != nil {
		slog.Error("failed to list rules from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rules from database",
		})
		return
	}

	h.engine.ReloadRules(dbRules)

	slog.Info("rules reloaded from database", "count", len(dbRules))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "rules reloaded successfully",
		"count":   len(dbRules),
	})
}

// ListInsurers returns the active insurer mapping tables.
func (h *Handler) ListInsurers(w http.ResponseWriter, r *http.Request) {
	configs := h.normalizer.Configs()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"insurers": configs,
		"count":    len(configs),
	})
}

// GetInsurer retrieves one insurer's mapping table.
func (h *Handler) GetInsurer(w http.ResponseWriter, r *http.Request) {
	code := domain.InsurerCode(chi.URLParam(r, "code"))

	cfg, ok := h.normalizer.Config(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "insurer not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// UpdateInsurer replaces one insurer's mapping table. The table is persisted
// and swapped into the normalizer immediately.
func (h *Handler) UpdateInsurer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := domain.InsurerCode(chi.URLParam(r, "code"))

	if !domain.ValidInsurer(code) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown insurer code: " + string(code),
		})
		return
	}

	var cfg domain.InsurerConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	cfg.Code = code

	if len(cfg.Mappings) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "mappings are required",
		})
		return
	}

	// Reject references to unregistered transforms before the table goes live.
	for canonical, entry := range cfg.Mappings {
		if entry.SourcePath == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "sourcePath is required for " + canonical,
			})
			return
		}
		if _, err := normalizer.LookupParser(entry.Parser); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
			return
		}
		if _, err := normalizer.LookupValidator(entry.Validator); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
			return
		}
	}

	if h.repo != nil {
		if err := h.repo.SaveInsurerConfig(ctx, GlobalTenantID, &cfg); err != nil {
			slog.Error("failed to save insurer config", "code", code, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save insurer config",
			})
			return
		}
	}

	h.normalizer.LoadConfigs([]*domain.InsurerConfig{&cfg})

	slog.Info("insurer config updated", "code", code)
	writeJSON(w, http.StatusOK, cfg)
}

// CreatePolicy stores a patient policy for later cross-reference runs.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var p domain.PatientPolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if p.NumeroPoliza == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "numeroPoliza is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	p.TenantID = tenantID
	if err := h.repo.SavePolicy(ctx, tenantID, &p); err != nil {
		slog.Error("failed to save policy", "numero", p.NumeroPoliza, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save policy",
		})
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// GetPolicy retrieves a patient policy by policy number.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	numero := chi.URLParam(r, "numero")

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	p, err := h.repo.GetPolicy(ctx, tenantID, numero)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "policy not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
