// Package scoring implements the deterministic compliance-score arithmetic
// shared by the rule engine and the policy cross-reference validator.
//
// Both scores start at a perfect 100 and subtract severity-weighted
// deductions per finding; results always clamp to [0,100] so the model stays
// auditable: the same findings always produce the same score.
package scoring

import (
	"math"

	"github.com/opensource-health/centinela/internal/domain"
)

// Baseline is the perfect compliance score.
const Baseline = 100

// Fixed per-severity deductions for policy cross-reference findings.
const (
	DeductionCritico     = 25
	DeductionImportante  = 15
	DeductionModerado    = 8
	DeductionInformativo = 0
)

// Clamp forces a score into [0, 100].
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > Baseline {
		return Baseline
	}
	return score
}

// DeductionFor returns the fixed deduction for a policy finding severity.
// Unrecognized severities deduct nothing: findings are data, and unknown
// data must not move the score.
func DeductionFor(severity domain.FindingSeverity) int {
	switch severity {
	case domain.SeverityCritico:
		return DeductionCritico
	case domain.SeverityImportante:
		return DeductionImportante
	case domain.SeverityModerado:
		return DeductionModerado
	case domain.SeverityInformativo:
		return DeductionInformativo
	default:
		return 0
	}
}

// FromFindings computes a policy compliance score from a finding set using
// the fixed per-severity deductions.
func FromFindings(findings []domain.Finding) int {
	score := Baseline
	for _, f := range findings {
		score -= DeductionFor(f.Severity)
	}
	return Clamp(score)
}

// Combine blends the medical-report score and the policy score.
// medicalWeight is the medical share; the policy share is its complement.
// A weight outside (0,1) falls back to the even 50/50 split.
func Combine(medicalScore, policyScore int, medicalWeight float64) int {
	if medicalWeight <= 0 || medicalWeight >= 1 {
		medicalWeight = 0.5
	}
	combined := medicalWeight*float64(medicalScore) + (1-medicalWeight)*float64(policyScore)
	return Clamp(int(math.Round(combined)))
}
