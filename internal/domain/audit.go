package domain

import "time"

// Audit is the complete audit result for one claim: the rule-engine findings
// and score, plus the policy cross-reference summary when policy data was
// supplied.
type Audit struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	ClaimID   string    `json:"claimId"`
	Timestamp time.Time `json:"timestamp"`

	MedicalReportScore int       `json:"medicalReportScore"`
	Findings           []Finding `json:"findings"`

	PolicyScore   *int `json:"policyScore,omitempty"`
	CombinedScore *int `json:"combinedScore,omitempty"`

	Metadata AuditMetadata `json:"metadata"`
}

// AuditMetadata carries processing diagnostics for one audit.
type AuditMetadata struct {
	TraceID        string `json:"traceId"`
	NormalizeMs    int64  `json:"normalizeMs"`
	RulesMs        int64  `json:"rulesMs"`
	PolicyMs       int64  `json:"policyMs,omitempty"`
	TotalMs        int64  `json:"totalMs"`
	RulesEvaluated int    `json:"rulesEvaluated"`
	RulesTriggered int    `json:"rulesTriggered"`
	EngineVersion  string `json:"engineVersion"`
}

// FinalScore returns the combined score when available, otherwise the
// medical report score.
func (a *Audit) FinalScore() int {
	if a.CombinedScore != nil {
		return *a.CombinedScore
	}
	return a.MedicalReportScore
}

// CriticalFindings counts findings at CRITICO severity.
func (a *Audit) CriticalFindings() int {
	n := 0
	for _, f := range a.Findings {
		if f.Severity == SeverityCritico {
			n++
		}
	}
	return n
}
