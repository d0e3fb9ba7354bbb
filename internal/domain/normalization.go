package domain

import "time"

// MappingEntry maps one canonical field to a path in an insurer's source
// schema. Parser and Validator reference named transforms registered in the
// normalizer, so configs serialize to JSON and persist in the repository.
type MappingEntry struct {
	SourcePath string `json:"sourcePath"`
	Optional   bool   `json:"optional"`
	Parser     string `json:"parser,omitempty"`
	Validator  string `json:"validator,omitempty"`
}

// InsurerConfig is one insurer's mapping table: canonical dotted path to
// mapping entry. Immutable after definition; looked up by code at
// normalization time.
type InsurerConfig struct {
	Code        InsurerCode             `json:"code"`
	DisplayName string                  `json:"displayName"`
	Mappings    map[string]MappingEntry `json:"mappings"`
}

// MappingError records a per-field failure during normalization.
type MappingError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// NormalizationMetadata captures the diagnostics of one normalization pass.
type NormalizationMetadata struct {
	InsurerCode   InsurerCode       `json:"insurerCode"`
	NormalizedAt  time.Time         `json:"normalizedAt"`
	MappedFields  map[string]string `json:"mappedFields"`  // canonical -> source
	MissingFields []string          `json:"missingFields"` // optional source paths that resolved empty
	MappingErrors []MappingError    `json:"mappingErrors"`
}

// NormalizationResult is the immutable outcome of one normalization call.
// Partial results remain inspectable when Success is false.
type NormalizationResult struct {
	Success    bool                  `json:"success"`
	Raw        map[string]any        `json:"raw"`
	Normalized map[string]any        `json:"normalized"`
	Warnings   []string              `json:"warnings"`
	Errors     []string              `json:"errors"`
	Metadata   NormalizationMetadata `json:"metadata"`
}
