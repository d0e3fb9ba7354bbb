// Package rules provides the claim-audit rule evaluation engine.
package rules

import (
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-health/centinela/internal/domain"
	"github.com/opensource-health/centinela/internal/scoring"
)

// Engine evaluates scoring rules against claim records. Rules are held as an
// immutable snapshot behind a RWMutex: concurrent edits never affect an
// in-flight evaluation, and re-evaluation after a manual record correction
// always runs from scratch against the full snapshot.
type Engine struct {
	mu    sync.RWMutex
	rules []*domain.ScoringRule
}

// NewEngine creates an empty rule engine.
func NewEngine() *Engine {
	return &Engine{}
}

// ValidateRule checks the invariants a rule must satisfy before it can be
// stored: a non-empty condition list and points inside the level's range.
func (e *Engine) ValidateRule(rule *domain.ScoringRule) error {
	if rule == nil {
		return domain.ErrInvalidRule
	}
	if rule.ID == "" || rule.Name == "" || len(rule.Conditions) == 0 {
		return domain.ErrInvalidRule
	}
	if domain.ClampPoints(rule.Level, rule.Points) != rule.Points {
		return domain.ErrPointsOutOfRange
	}
	return nil
}

// LoadRules appends enabled rules to the active snapshot.
func (e *Engine) LoadRules(rules []*domain.ScoringRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, rule := range rules {
		if rule == nil || !rule.Enabled {
			continue
		}
		r := *rule
		r.Normalize()
		e.rules = append(e.rules, &r)
	}
}

// ReloadRules swaps the active snapshot for a new one.
func (e *Engine) ReloadRules(rules []*domain.ScoringRule) {
	next := make([]*domain.ScoringRule, 0, len(rules))
	for _, rule := range rules {
		if rule == nil || !rule.Enabled {
			continue
		}
		r := *rule
		r.Normalize()
		next = append(next, &r)
	}

	e.mu.Lock()
	e.rules = next
	e.mu.Unlock()
}

// Rules returns the active snapshot.
func (e *Engine) Rules() []*domain.ScoringRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*domain.ScoringRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// EvaluateRule reports whether a single rule triggers against a record:
// the AND/OR combination of its conditions' trigger states.
func EvaluateRule(rule *domain.ScoringRule, record map[string]any) bool {
	if rule == nil || len(rule.Conditions) == 0 {
		return false
	}

	overrides := pathOverrides(rule, domain.RecordProvider(record))

	for i, cond := range rule.Conditions {
		triggered := EvaluateCondition(cond, record, overrides(i))
		if rule.LogicOperator == domain.LogicOr {
			if triggered {
				return true
			}
		} else if !triggered {
			return false
		}
	}
	return rule.LogicOperator != domain.LogicOr
}

// pathOverrides returns an accessor for the rule's per-insurer field-path
// overrides: the i-th path overrides the i-th condition; a single configured
// path applies to every condition.
func pathOverrides(rule *domain.ScoringRule, provider domain.InsurerCode) func(i int) string {
	paths := rule.FieldMappings[provider]
	return func(i int) string {
		switch {
		case len(paths) == 0:
			return ""
		case len(paths) == 1:
			return paths[0]
		case i < len(paths):
			return paths[i]
		default:
			return ""
		}
	}
}

// Result is the outcome of evaluating a rule set against one record.
type Result struct {
	Findings       []domain.Finding
	FinalScore     int
	RulesEvaluated int
	RulesTriggered int
	ElapsedMs      int64
}

// Evaluate runs every applicable rule in the snapshot against a record.
// Scoring starts at 100, subtracts each triggered rule's points, and clamps
// to [0,100]. One finding is emitted per triggered rule.
func (e *Engine) Evaluate(record map[string]any) *Result {
	start := time.Now()
	snapshot := e.Rules()
	provider := domain.RecordProvider(record)

	result := &Result{FinalScore: scoring.Baseline}

	for _, rule := range snapshot {
		if !rule.AppliesTo(provider) {
			continue
		}
		result.RulesEvaluated++

		if !EvaluateRule(rule, record) {
			continue
		}
		result.RulesTriggered++
		result.FinalScore -= rule.Points
		result.Findings = append(result.Findings, domain.Finding{
			Type:          domain.FindingRegla,
			Severity:      domain.LevelToSeverity(rule.Level),
			Title:         rule.Name,
			Description:   rule.Description,
			Source:        domain.SourceReporteMedico,
			RelatedFields: rule.AffectedFields,
			CalculatedValues: map[string]any{
				"regla_id": rule.ID,
				"puntos":   rule.Points,
			},
		})
		slog.Debug("rule triggered",
			"rule_id", rule.ID,
			"level", rule.Level,
			"points", rule.Points,
		)
	}

	result.FinalScore = scoring.Clamp(result.FinalScore)
	result.ElapsedMs = time.Since(start).Milliseconds()
	return result
}
