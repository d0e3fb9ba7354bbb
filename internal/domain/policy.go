package domain

// PatientPolicy describes one patient's policy terms. Supplied read-only by
// collaborators; this core never creates or mutates it. Dates are DD/MM/YYYY
// strings at the boundary.
type PatientPolicy struct {
	NumeroPoliza    string  `json:"numeroPoliza"`
	TenantID        string  `json:"tenantId"`
	Titular         string  `json:"titular"`
	VigenciaDesde   string  `json:"vigenciaDesde"`
	VigenciaHasta   string  `json:"vigenciaHasta"`
	FechaAntiguedad string  `json:"fechaAntiguedad"`
	SumaAsegurada   float64 `json:"sumaAsegurada"`
	Deducible       float64 `json:"deducible"`
	Coaseguro       float64 `json:"coaseguro"` // percent, e.g. 10 = 10%

	CoberturasIncluidas    []string `json:"coberturasIncluidas,omitempty"`
	ExclusionesPermanentes []string `json:"exclusionesPermanentes,omitempty"`
}

// WaitingPeriod is one tenure requirement from a product's general conditions.
// Padecimiento "general" (or "all"/"todos") applies to every diagnosis.
type WaitingPeriod struct {
	Padecimiento string `json:"padecimiento"`
	CodigoCIE    string `json:"codigoCie,omitempty"`
	Meses        int    `json:"meses"`
}

// GeneralConditions describes one insurance product's general-conditions
// document. Optional input: absence disables the checks that depend on it.
type GeneralConditions struct {
	Producto              string          `json:"producto"`
	InsurerCode           InsurerCode     `json:"insurerCode"`
	PeriodosEspera        []WaitingPeriod `json:"periodosEspera,omitempty"`
	Exclusiones           []string        `json:"exclusiones,omitempty"`
	PreexistenciaExcluida bool            `json:"preexistenciaExcluida"`

	// Procedures requiring prior authorization before coverage applies.
	AutorizacionPrevia []string `json:"autorizacionPrevia,omitempty"`

	EdadMaximaRenovacion int `json:"edadMaximaRenovacion,omitempty"`

	// Coinsurance overrides by attention type, e.g. "hospitalaria" -> 10.
	ReglasCoaseguro map[string]float64 `json:"reglasCoaseguro,omitempty"`
}

// PolicyValidationSummary is the output of the cross-reference validator.
type PolicyValidationSummary struct {
	PolicyComplianceScore int       `json:"policyComplianceScore"`
	MedicalReportScore    *int      `json:"medicalReportScore,omitempty"`
	CombinedScore         *int      `json:"combinedScore,omitempty"`
	Findings              []Finding `json:"findings"`

	DeducibleEstimado     *float64 `json:"deducibleEstimado,omitempty"`
	CoaseguroEstimado     *float64 `json:"coaseguroEstimado,omitempty"`
	MontoEstimadoPaciente *float64 `json:"montoEstimadoPaciente,omitempty"`
}
