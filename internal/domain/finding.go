package domain

// FindingSeverity classifies an emitted audit observation.
type FindingSeverity string

const (
	SeverityCritico     FindingSeverity = "CRITICO"
	SeverityImportante  FindingSeverity = "IMPORTANTE"
	SeverityModerado    FindingSeverity = "MODERADO"
	SeverityDiscreto    FindingSeverity = "DISCRETO"
	SeverityInformativo FindingSeverity = "INFORMATIVO"
)

// FindingSource identifies which document produced a finding.
type FindingSource string

const (
	SourceReporteMedico        FindingSource = "REPORTE_MEDICO"
	SourcePolizaPaciente       FindingSource = "POLIZA_PACIENTE"
	SourceCondicionesGenerales FindingSource = "CONDICIONES_GENERALES"
	SourceCrossReference       FindingSource = "CROSS_REFERENCE"
)

// Finding type identifiers emitted by the policy cross-reference validator.
const (
	FindingPolizaVencida      = "poliza_vencida"
	FindingPeriodoEspera      = "periodo_espera"
	FindingPreexistencia      = "preexistencia"
	FindingLimiteCobertura    = "limite_cobertura"
	FindingDeducibleCoaseguro = "deducible_coaseguro"
	FindingLimiteEdad         = "limite_edad"
	FindingAutorizacionPrevia = "autorizacion_previa"
	FindingExclusionSemantica = "exclusion_semantica"
	FindingRegla              = "regla"
)

// Finding is one emitted audit observation. Produced fresh on every
// evaluation call and never mutated afterward.
type Finding struct {
	Type             string          `json:"type"`
	Severity         FindingSeverity `json:"severity"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Source           FindingSource   `json:"source"`
	RelatedFields    []string        `json:"relatedFields,omitempty"`
	CalculatedValues map[string]any  `json:"calculatedValues,omitempty"`
}

// LevelToSeverity maps a scoring-rule severity level onto a finding severity.
func LevelToSeverity(level SeverityLevel) FindingSeverity {
	switch level {
	case LevelCritico:
		return SeverityCritico
	case LevelImportante:
		return SeverityImportante
	case LevelModerado:
		return SeverityModerado
	case LevelDiscreto:
		return SeverityDiscreto
	default:
		return SeverityModerado
	}
}
