package domain

// InsurerCode identifies which insurer document schema a claim belongs to.
type InsurerCode string

// Supported insurer codes. Each has a built-in mapping table in the
// normalizer; unknown codes are a caller error, never silently defaulted.
const (
	InsurerGNP       InsurerCode = "GNP"
	InsurerAXA       InsurerCode = "AXA"
	InsurerMetlife   InsurerCode = "METLIFE"
	InsurerMonterrey InsurerCode = "MONTERREY"
	InsurerMapfre    InsurerCode = "MAPFRE"
)

// TargetAll marks a rule as applicable to every insurer.
const TargetAll = "ALL"

// ProviderField is the top-level record key carrying the insurer discriminator.
const ProviderField = "provider"

// AllInsurers lists the configured insurer codes.
func AllInsurers() []InsurerCode {
	return []InsurerCode{InsurerGNP, InsurerAXA, InsurerMetlife, InsurerMonterrey, InsurerMapfre}
}

// ValidInsurer reports whether code is one of the configured insurers.
func ValidInsurer(code InsurerCode) bool {
	for _, c := range AllInsurers() {
		if c == code {
			return true
		}
	}
	return false
}

// RecordProvider extracts the insurer discriminator from a record tree.
// Returns "" when the record does not declare one.
func RecordProvider(record map[string]any) InsurerCode {
	if record == nil {
		return ""
	}
	if s, ok := record[ProviderField].(string); ok {
		return InsurerCode(s)
	}
	return ""
}
