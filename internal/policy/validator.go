// Package policy implements the cross-reference validator: it combines a
// normalized claim record, the patient's policy terms, and a product's
// general-conditions document into coverage-risk findings and a second
// compliance score.
package policy

import (
	"context"
	"log/slog"
	"time"

	"github.com/opensource-health/centinela/internal/domain"
	"github.com/opensource-health/centinela/internal/fieldpath"
	"github.com/opensource-health/centinela/internal/normalize"
	"github.com/opensource-health/centinela/internal/scoring"
)

// Validator runs the eight independent cross-reference checks. The checks
// are deterministic and side-effect-free except the semantic exclusion
// match, which consults the external matcher.
type Validator struct {
	matcher SemanticMatcher

	// ConfidenceThreshold bounds false positives from the semantic oracle.
	ConfidenceThreshold float64

	// MedicalWeight is the medical-report share of the combined score.
	MedicalWeight float64

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewValidator creates a validator with the default thresholds.
// A nil matcher disables the semantic exclusion check gracefully.
func NewValidator(matcher SemanticMatcher) *Validator {
	if matcher == nil {
		matcher = NoopMatcher{}
	}
	return &Validator{
		matcher:             matcher,
		ConfidenceThreshold: 0.70,
		MedicalWeight:       0.5,
		now:                 time.Now,
	}
}

// Validate runs every check and aggregates the findings into a policy
// compliance score. No check can suppress another; each contributes zero or
// more findings. conditions may be nil, which disables the checks that
// depend on the general-conditions document. priorMedicalScore, when
// supplied, yields the combined score.
func (v *Validator) Validate(ctx context.Context, claim map[string]any, policy *domain.PatientPolicy, conditions *domain.GeneralConditions, priorMedicalScore *int) *domain.PolicyValidationSummary {
	summary := &domain.PolicyValidationSummary{}
	if policy == nil {
		summary.PolicyComplianceScore = scoring.Baseline
		return summary
	}

	refDate := v.referenceDate(claim)

	summary.Findings = append(summary.Findings, v.checkExpiration(policy, refDate)...)
	summary.Findings = append(summary.Findings, v.checkWaitingPeriods(claim, policy, conditions, refDate)...)
	summary.Findings = append(summary.Findings, v.checkPreexistence(claim, policy, conditions)...)
	summary.Findings = append(summary.Findings, v.checkCoverageLimit(claim, policy)...)

	deductible, estimates := v.checkDeductible(claim, policy, conditions)
	summary.Findings = append(summary.Findings, deductible...)
	summary.DeducibleEstimado = estimates.deducible
	summary.CoaseguroEstimado = estimates.coaseguro
	summary.MontoEstimadoPaciente = estimates.montoPaciente

	summary.Findings = append(summary.Findings, v.checkAgeLimit(claim, conditions)...)
	summary.Findings = append(summary.Findings, v.checkPriorAuthorization(claim, conditions)...)
	summary.Findings = append(summary.Findings, v.checkSemanticExclusion(ctx, claim, policy, conditions)...)

	summary.PolicyComplianceScore = scoring.FromFindings(summary.Findings)

	if priorMedicalScore != nil {
		med := *priorMedicalScore
		combined := scoring.Combine(med, summary.PolicyComplianceScore, v.MedicalWeight)
		summary.MedicalReportScore = &med
		summary.CombinedScore = &combined
	}

	return summary
}

// referenceDate is the claim's admission date, falling back to the current
// date when the claim has none.
func (v *Validator) referenceDate(claim map[string]any) time.Time {
	if t := normalize.ParseDate(normalize.Stringify(fieldpath.Get(claim, domain.FieldFechaIngreso))); t != nil {
		return *t
	}
	return v.now()
}

// checkSemanticExclusion delegates to the external matcher; the verdict is
// accepted only above the confidence threshold, and a matcher failure
// degrades to no-match so document availability never fails the
// deterministic checks.
func (v *Validator) checkSemanticExclusion(ctx context.Context, claim map[string]any, policy *domain.PatientPolicy, conditions *domain.GeneralConditions) []domain.Finding {
	diagnosis := normalize.Stringify(fieldpath.Get(claim, domain.FieldDiagnosticoDescripcion))
	cieCode := normalize.Stringify(fieldpath.Get(claim, domain.FieldDiagnosticoCIE))
	if diagnosis == "" && cieCode == "" {
		return nil
	}

	exclusions := append([]string{}, policy.ExclusionesPermanentes...)
	if conditions != nil {
		exclusions = append(exclusions, conditions.Exclusiones...)
	}
	if len(exclusions) == 0 {
		return nil
	}

	excluded, confidence, err := v.matcher.MatchExclusion(ctx, diagnosis, cieCode, exclusions)
	if err != nil {
		slog.Warn("semantic exclusion match failed; treating as not excluded", "error", err)
		return nil
	}
	if !excluded || confidence < v.ConfidenceThreshold {
		return nil
	}

	return []domain.Finding{{
		Type:        domain.FindingExclusionSemantica,
		Severity:    domain.SeverityCritico,
		Title:       "Diagnóstico posiblemente excluido",
		Description: "El diagnóstico coincide semánticamente con una exclusión de la póliza o de las condiciones generales.",
		Source:      domain.SourceCrossReference,
		RelatedFields: []string{
			domain.FieldDiagnosticoDescripcion,
			domain.FieldDiagnosticoCIE,
		},
		CalculatedValues: map[string]any{"confianza": confidence},
	}}
}
