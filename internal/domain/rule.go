package domain

// Operator is the closed enumeration of condition operators. Rules are
// user-authored, so evaluation of an unrecognized operator resolves to
// "not triggered" instead of an error.
type Operator string

const (
	// Existence
	OpIsEmpty    Operator = "IS_EMPTY"
	OpIsNotEmpty Operator = "IS_NOT_EMPTY"
	OpRequires   Operator = "REQUIRES" // bidirectional: exactly one of field/compareField present
	OpIfThen     Operator = "IF_THEN"  // one-directional: field present, compareField missing

	// Comparison
	OpEquals             Operator = "EQUALS"
	OpNotEquals          Operator = "NOT_EQUALS"
	OpGreaterThan        Operator = "GREATER_THAN"
	OpLessThan           Operator = "LESS_THAN"
	OpGreaterThanOrEqual Operator = "GREATER_THAN_OR_EQUAL"
	OpLessThanOrEqual    Operator = "LESS_THAN_OR_EQUAL"

	// Dates
	OpDateMissing Operator = "DATE_MISSING"
	OpDateInvalid Operator = "DATE_INVALID"
	OpIsDate      Operator = "IS_DATE"
	OpDateBefore  Operator = "DATE_BEFORE"
	OpDateAfter   Operator = "DATE_AFTER"

	// Formats
	OpIsNumber Operator = "IS_NUMBER"
	OpIsEmail  Operator = "IS_EMAIL"
	OpIsRFC    Operator = "IS_RFC"
	OpIsPhone  Operator = "IS_PHONE"

	// Pattern / text
	OpRegex             Operator = "REGEX"
	OpContains          Operator = "CONTAINS"
	OpNotContains       Operator = "NOT_CONTAINS"
	OpLengthLessThan    Operator = "LENGTH_LESS_THAN"
	OpLengthGreaterThan Operator = "LENGTH_GREATER_THAN"

	// Multi-field
	OpMutuallyExclusive Operator = "MUTUALLY_EXCLUSIVE"
	OpOneOfRequired     Operator = "ONE_OF_REQUIRED"
	OpAllRequired       Operator = "ALL_REQUIRED"
)

// DateSentinelToday is the literal condition value resolved to the current
// date by DATE_BEFORE / DATE_AFTER.
const DateSentinelToday = "TODAY"

// RuleCondition is one predicate over a record. A triggered condition means
// "problem detected", not "data valid".
type RuleCondition struct {
	ID               string   `json:"id"`
	Field            string   `json:"field"`
	Operator         Operator `json:"operator"`
	Value            any      `json:"value,omitempty"`
	CompareField     string   `json:"compareField,omitempty"`
	AdditionalFields []string `json:"additionalFields,omitempty"`
}

// LogicOperator combines a rule's condition trigger states.
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// ScoringRule is one configurable audit rule. Immutable once loaded into the
// engine; edits go through the repository and a reload (snapshot swap).
type ScoringRule struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenantId"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Version     string        `json:"version"`
	Level       SeverityLevel `json:"level"`
	Points      int           `json:"points"`

	// ProviderTargets limits the rule to specific insurer codes, or "ALL".
	// Never empty: normalized to ["ALL"] on load.
	ProviderTargets []string `json:"providerTargets"`

	// FieldMappings supplies per-insurer path overrides when a rule spans
	// insurers whose schemas place the same concept at different paths.
	// The i-th path overrides the i-th condition's field; a single path
	// applies to every condition.
	FieldMappings map[InsurerCode][]string `json:"fieldMappings,omitempty"`

	// NormalizedFieldName names the cross-insurer concept the mappings cover.
	NormalizedFieldName string `json:"normalizedFieldName,omitempty"`

	Conditions     []RuleCondition `json:"conditions"`
	LogicOperator  LogicOperator   `json:"logicOperator"`
	AffectedFields []string        `json:"affectedFields"`
	IsCustom       bool            `json:"isCustom"`
	Enabled        bool            `json:"enabled"`
}

// Normalize applies the rule invariants: provider targets default to ALL,
// the logic operator defaults to AND, and points are clamped into the
// level's range.
func (r *ScoringRule) Normalize() {
	if len(r.ProviderTargets) == 0 {
		r.ProviderTargets = []string{TargetAll}
	}
	if r.LogicOperator != LogicOr {
		r.LogicOperator = LogicAnd
	}
	r.Points = ClampPoints(r.Level, r.Points)
}

// AppliesTo reports whether the rule participates in evaluation for a record
// from the given insurer.
func (r *ScoringRule) AppliesTo(provider InsurerCode) bool {
	for _, target := range r.ProviderTargets {
		if target == TargetAll || InsurerCode(target) == provider {
			return true
		}
	}
	return false
}
