// Package audit orchestrates the claim-audit pipeline: normalization, rule
// evaluation, and the optional policy cross-reference, producing one
// persisted Audit per run.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-health/centinela/internal/domain"
	"github.com/opensource-health/centinela/internal/normalizer"
	"github.com/opensource-health/centinela/internal/policy"
	"github.com/opensource-health/centinela/internal/rules"
)

// Pipeline wires the three evaluation stages together. Stages never mutate
// the raw claim; a manual correction produces a new claim version and a
// fresh run through the whole pipeline.
type Pipeline struct {
	normalizer *normalizer.Normalizer
	engine     *rules.Engine
	validator  *policy.Validator
	repo       domain.Repository
	cache      domain.Cache

	version        string
	alertThreshold int
	snapshotTTL    time.Duration
}

// NewPipeline creates an audit pipeline. repo and cache may be nil; the
// pipeline then runs stateless.
func NewPipeline(n *normalizer.Normalizer, engine *rules.Engine, validator *policy.Validator, repo domain.Repository, cache domain.Cache, version string, alertThreshold int) *Pipeline {
	return &Pipeline{
		normalizer:     n,
		engine:         engine,
		validator:      validator,
		repo:           repo,
		cache:          cache,
		version:        version,
		alertThreshold: alertThreshold,
		snapshotTTL:    time.Hour,
	}
}

// Input is one audit request.
type Input struct {
	TenantID string
	TraceID  string
	Claim    *domain.Claim

	// Policy and Conditions enable the cross-reference stage.
	Policy     *domain.PatientPolicy
	Conditions *domain.GeneralConditions
}

// Output carries the audit plus the normalization diagnostics and, when the
// cross-reference stage ran, its summary.
type Output struct {
	Audit         *domain.Audit
	Normalization *domain.NormalizationResult
	PolicySummary *domain.PolicyValidationSummary
}

// Run executes the pipeline for one claim.
func (p *Pipeline) Run(ctx context.Context, in *Input) (*Output, error) {
	start := time.Now()
	claim := in.Claim

	// Stage 1: normalization. A cached snapshot from a previous run of the
	// same claim skips the mapping pass.
	normStart := time.Now()
	normResult, err := p.normalize(ctx, in.TenantID, claim)
	if err != nil {
		return nil, err
	}
	normMs := time.Since(normStart).Milliseconds()
	claim.Normalized = normResult.Normalized

	// Stage 2: rule evaluation over the canonical record.
	rulesStart := time.Now()
	ruleResult := p.engine.Evaluate(normResult.Normalized)
	rulesMs := time.Since(rulesStart).Milliseconds()

	audit := &domain.Audit{
		ID:                 uuid.New().String(),
		TenantID:           in.TenantID,
		ClaimID:            claim.ID,
		Timestamp:          time.Now().UTC(),
		MedicalReportScore: ruleResult.FinalScore,
		Findings:           ruleResult.Findings,
		Metadata: domain.AuditMetadata{
			TraceID:        in.TraceID,
			NormalizeMs:    normMs,
			RulesMs:        rulesMs,
			RulesEvaluated: ruleResult.RulesEvaluated,
			RulesTriggered: ruleResult.RulesTriggered,
			EngineVersion:  p.version,
		},
	}

	out := &Output{Audit: audit, Normalization: normResult}

	// Stage 3: policy cross-reference, only when policy terms are supplied.
	if in.Policy != nil {
		policyStart := time.Now()
		med := ruleResult.FinalScore
		summary := p.validator.Validate(ctx, normResult.Normalized, in.Policy, in.Conditions, &med)
		audit.Metadata.PolicyMs = time.Since(policyStart).Milliseconds()

		audit.Findings = append(audit.Findings, summary.Findings...)
		audit.PolicyScore = &summary.PolicyComplianceScore
		audit.CombinedScore = summary.CombinedScore
		out.PolicySummary = summary
	}

	audit.Metadata.TotalMs = time.Since(start).Milliseconds()

	p.persist(ctx, in.TenantID, claim, audit, normResult)

	slog.Info("claim audited",
		"claim_id", claim.ID,
		"tenant_id", in.TenantID,
		"insurer", claim.InsurerCode,
		"medical_score", audit.MedicalReportScore,
		"final_score", audit.FinalScore(),
		"findings", len(audit.Findings),
		"duration_ms", audit.Metadata.TotalMs,
	)

	return out, nil
}

// normalize resolves the claim's canonical record, preferring a cached
// snapshot when one exists.
func (p *Pipeline) normalize(ctx context.Context, tenantID string, claim *domain.Claim) (*domain.NormalizationResult, error) {
	if p.cache != nil && claim.ID != "" {
		snap, err := p.cache.GetNormalized(ctx, tenantID, claim.ID)
		if err != nil {
			slog.Warn("normalized snapshot lookup failed", "claim_id", claim.ID, "error", err)
		} else if snap != nil && snap.Success {
			return &domain.NormalizationResult{
				Success:    true,
				Raw:        claim.Raw,
				Normalized: snap.Normalized,
				Metadata: domain.NormalizationMetadata{
					InsurerCode: snap.InsurerCode,
				},
			}, nil
		}
	}

	result, err := p.normalizer.Normalize(claim.InsurerCode, claim.Raw)
	if err != nil {
		return nil, fmt.Errorf("normalization failed for claim %s: %w", claim.ID, err)
	}

	if p.cache != nil && claim.ID != "" && result.Success {
		snap := &domain.NormalizedSnapshot{
			ClaimID:      claim.ID,
			InsurerCode:  claim.InsurerCode,
			Normalized:   result.Normalized,
			Success:      true,
			NormalizedAt: result.Metadata.NormalizedAt.Format(time.RFC3339),
		}
		if err := p.cache.SetNormalized(ctx, tenantID, claim.ID, snap, p.snapshotTTL); err != nil {
			slog.Warn("failed to cache normalized snapshot", "claim_id", claim.ID, "error", err)
		}
	}

	return result, nil
}

// persist stores the claim and audit. Persistence failures are logged, not
// fatal: the caller still gets the audit result.
func (p *Pipeline) persist(ctx context.Context, tenantID string, claim *domain.Claim, audit *domain.Audit, norm *domain.NormalizationResult) {
	if p.repo == nil {
		return
	}

	if err := p.repo.SaveClaim(ctx, tenantID, claim); err != nil {
		slog.Error("failed to save claim", "claim_id", claim.ID, "error", err)
	}
	if err := p.repo.SaveAudit(ctx, tenantID, audit); err != nil {
		slog.Error("failed to save audit", "audit_id", audit.ID, "error", err)
	}

	if p.cache != nil {
		if _, err := p.cache.IncrementCounter(ctx, tenantID, "audits", 24*time.Hour); err != nil {
			slog.Warn("failed to increment audit counter", "error", err)
		}
	}
}

// ShouldAlert reports whether an audit's final score falls below the alert
// threshold.
func (p *Pipeline) ShouldAlert(audit *domain.Audit) bool {
	return audit.FinalScore() < p.alertThreshold
}
