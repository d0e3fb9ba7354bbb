package policy

import (
	"fmt"
	"time"

	"github.com/opensource-health/centinela/internal/domain"
	"github.com/opensource-health/centinela/internal/fieldpath"
	"github.com/opensource-health/centinela/internal/normalize"
)

// Waiting-period rules targeting these padecimiento labels apply to every
// diagnosis.
var generalWaitingTargets = map[string]bool{
	"general": true,
	"all":     true,
	"todos":   true,
}

// checkExpiration compares the policy's validity end against the reference
// date (admission date or today).
func (v *Validator) checkExpiration(policy *domain.PatientPolicy, refDate time.Time) []domain.Finding {
	hasta := normalize.ParseDate(policy.VigenciaHasta)
	if hasta == nil {
		return nil
	}
	if !refDate.After(*hasta) {
		return nil
	}

	return []domain.Finding{{
		Type:        domain.FindingPolizaVencida,
		Severity:    domain.SeverityCritico,
		Title:       "Póliza vencida",
		Description: fmt.Sprintf("La vigencia de la póliza terminó el %s, antes de la fecha de atención.", policy.VigenciaHasta),
		Source:      domain.SourcePolizaPaciente,
		CalculatedValues: map[string]any{
			"vigencia_hasta":   policy.VigenciaHasta,
			"fecha_referencia": normalize.FormatDate(refDate),
		},
	}}
}

// checkWaitingPeriods flags diagnoses whose waiting period has not elapsed:
// policy tenure in months versus each configured waiting-period rule.
func (v *Validator) checkWaitingPeriods(claim map[string]any, policy *domain.PatientPolicy, conditions *domain.GeneralConditions, refDate time.Time) []domain.Finding {
	if conditions == nil || len(conditions.PeriodosEspera) == 0 {
		return nil
	}
	antiguedad := normalize.ParseDate(policy.FechaAntiguedad)
	if antiguedad == nil {
		return nil
	}

	elapsed := normalize.MonthsBetween(*antiguedad, refDate)
	diagnosis := normalize.Stringify(fieldpath.Get(claim, domain.FieldDiagnosticoDescripcion))
	cieCode := normalize.Stringify(fieldpath.Get(claim, domain.FieldDiagnosticoCIE))

	var findings []domain.Finding
	for _, wp := range conditions.PeriodosEspera {
		if elapsed >= wp.Meses {
			continue
		}
		if !waitingPeriodApplies(wp, diagnosis, cieCode) {
			continue
		}
		findings = append(findings, domain.Finding{
			Type:     domain.FindingPeriodoEspera,
			Severity: domain.SeverityCritico,
			Title:    "Periodo de espera no cumplido",
			Description: fmt.Sprintf("El padecimiento %q requiere %d meses de antigüedad; la póliza tiene %d.",
				wp.Padecimiento, wp.Meses, elapsed),
			Source:        domain.SourceCondicionesGenerales,
			RelatedFields: []string{domain.FieldDiagnosticoDescripcion},
			CalculatedValues: map[string]any{
				"meses_requeridos":    wp.Meses,
				"meses_transcurridos": elapsed,
				"faltan_meses":        wp.Meses - elapsed,
			},
		})
	}
	return findings
}

func waitingPeriodApplies(wp domain.WaitingPeriod, diagnosis, cieCode string) bool {
	if generalWaitingTargets[normalize.Clean(wp.Padecimiento)] {
		return true
	}
	if normalize.ContainsFold(diagnosis, wp.Padecimiento) {
		return true
	}
	return wp.CodigoCIE != "" && normalize.ContainsFold(cieCode, wp.CodigoCIE)
}

// checkPreexistence substring-matches the patient's pathological history and
// diagnosis against permanently-excluded conditions. Policy exclusions
// always apply; general-conditions exclusions join when available.
func (v *Validator) checkPreexistence(claim map[string]any, policy *domain.PatientPolicy, conditions *domain.GeneralConditions) []domain.Finding {
	historia := normalize.Stringify(fieldpath.Get(claim, domain.FieldPadecimientoHistoria))
	diagnosis := normalize.Stringify(fieldpath.Get(claim, domain.FieldDiagnosticoDescripcion))
	if historia == "" && diagnosis == "" {
		return nil
	}

	excluded := append([]string{}, policy.ExclusionesPermanentes...)
	if conditions != nil && conditions.PreexistenciaExcluida {
		excluded = append(excluded, conditions.Exclusiones...)
	}

	var findings []domain.Finding
	for _, exclusion := range excluded {
		if !normalize.ContainsFold(historia, exclusion) && !normalize.ContainsFold(diagnosis, exclusion) {
			continue
		}
		findings = append(findings, domain.Finding{
			Type:     domain.FindingPreexistencia,
			Severity: domain.SeverityImportante,
			Title:    "Posible preexistencia",
			Description: fmt.Sprintf("Los antecedentes o el diagnóstico mencionan %q, padecimiento excluido de forma permanente.",
				exclusion),
			Source: domain.SourcePolizaPaciente,
			RelatedFields: []string{
				domain.FieldPadecimientoHistoria,
				domain.FieldDiagnosticoDescripcion,
			},
			CalculatedValues: map[string]any{"exclusion": exclusion},
		})
	}
	return findings
}

// checkCoverageLimit sums the available fee estimates and compares the
// total against the policy's insured sum.
func (v *Validator) checkCoverageLimit(claim map[string]any, policy *domain.PatientPolicy) []domain.Finding {
	if policy.SumaAsegurada <= 0 {
		return nil
	}

	total := 0.0
	found := false
	for _, field := range []string{
		domain.FieldHonorariosCirujano,
		domain.FieldHonorariosAnestesiologo,
		domain.FieldHonorariosPresupuesto,
	} {
		if amount, ok := normalize.ParseAmount(fieldpath.Get(claim, field)); ok {
			total += amount
			found = true
		}
	}
	if !found || total <= policy.SumaAsegurada {
		return nil
	}

	return []domain.Finding{{
		Type:     domain.FindingLimiteCobertura,
		Severity: domain.SeverityImportante,
		Title:    "Monto estimado excede la suma asegurada",
		Description: fmt.Sprintf("Los honorarios estimados (%.2f) superan la suma asegurada (%.2f).",
			total, policy.SumaAsegurada),
		Source: domain.SourceCrossReference,
		RelatedFields: []string{
			domain.FieldHonorariosCirujano,
			domain.FieldHonorariosAnestesiologo,
			domain.FieldHonorariosPresupuesto,
		},
		CalculatedValues: map[string]any{
			"monto_estimado": total,
			"suma_asegurada": policy.SumaAsegurada,
			"excedente":      total - policy.SumaAsegurada,
		},
	}}
}

type costEstimates struct {
	deducible     *float64
	coaseguro     *float64
	montoPaciente *float64
}

// checkDeductible always emits the informative deductible/coinsurance
// summary (deduction 0) and computes the patient-cost estimates.
func (v *Validator) checkDeductible(claim map[string]any, policy *domain.PatientPolicy, conditions *domain.GeneralConditions) ([]domain.Finding, costEstimates) {
	coaseguroPct := policy.Coaseguro
	if conditions != nil && len(conditions.ReglasCoaseguro) > 0 {
		hospitalaria, _ := fieldpath.Get(claim, domain.FieldAtencionHospitalaria).(bool)
		key := "ambulatoria"
		if hospitalaria {
			key = "hospitalaria"
		}
		if pct, ok := conditions.ReglasCoaseguro[key]; ok {
			coaseguroPct = pct
		}
	}

	estimates := costEstimates{}
	deducible := policy.Deducible
	estimates.deducible = &deducible

	total := 0.0
	for _, field := range []string{
		domain.FieldHonorariosCirujano,
		domain.FieldHonorariosAnestesiologo,
		domain.FieldHonorariosPresupuesto,
	} {
		if amount, ok := normalize.ParseAmount(fieldpath.Get(claim, field)); ok {
			total += amount
		}
	}
	if total > deducible {
		coaseguro := (total - deducible) * coaseguroPct / 100
		monto := deducible + coaseguro
		estimates.coaseguro = &coaseguro
		estimates.montoPaciente = &monto
	}

	finding := domain.Finding{
		Type:     domain.FindingDeducibleCoaseguro,
		Severity: domain.SeverityInformativo,
		Title:    "Deducible y coaseguro aplicables",
		Description: fmt.Sprintf("Deducible %.2f, coaseguro %.1f%% según los términos de la póliza.",
			deducible, coaseguroPct),
		Source: domain.SourcePolizaPaciente,
		CalculatedValues: map[string]any{
			"deducible": deducible,
			"coaseguro": coaseguroPct,
		},
	}
	return []domain.Finding{finding}, estimates
}

// checkAgeLimit compares the patient's age against the product's maximum
// renewal age.
func (v *Validator) checkAgeLimit(claim map[string]any, conditions *domain.GeneralConditions) []domain.Finding {
	if conditions == nil || conditions.EdadMaximaRenovacion <= 0 {
		return nil
	}
	edad, ok := normalize.ParseAmount(fieldpath.Get(claim, domain.FieldPacienteEdad))
	if !ok {
		return nil
	}
	if int(edad) <= conditions.EdadMaximaRenovacion {
		return nil
	}

	return []domain.Finding{{
		Type:     domain.FindingLimiteEdad,
		Severity: domain.SeverityCritico,
		Title:    "Edad fuera del límite de renovación",
		Description: fmt.Sprintf("El paciente tiene %d años; el producto renueva hasta los %d.",
			int(edad), conditions.EdadMaximaRenovacion),
		Source:        domain.SourceCondicionesGenerales,
		RelatedFields: []string{domain.FieldPacienteEdad},
		CalculatedValues: map[string]any{
			"edad":        int(edad),
			"edad_maxima": conditions.EdadMaximaRenovacion,
		},
	}}
}

// checkPriorAuthorization flags special procedures that require prior
// authorization and appear in the diagnosis, treatment, or surgical
// technique text. Globally excluded procedures are skipped: an excluded
// procedure is a coverage problem, not an authorization problem.
func (v *Validator) checkPriorAuthorization(claim map[string]any, conditions *domain.GeneralConditions) []domain.Finding {
	if conditions == nil || len(conditions.AutorizacionPrevia) == 0 {
		return nil
	}

	texts := []string{
		normalize.Stringify(fieldpath.Get(claim, domain.FieldDiagnosticoDescripcion)),
		normalize.Stringify(fieldpath.Get(claim, domain.FieldTratamientoDescripcion)),
		normalize.Stringify(fieldpath.Get(claim, domain.FieldTratamientoTecnica)),
	}

	var findings []domain.Finding
	for _, procedure := range conditions.AutorizacionPrevia {
		if isGloballyExcluded(procedure, conditions.Exclusiones) {
			continue
		}
		matched := false
		for _, text := range texts {
			if normalize.ContainsFold(text, procedure) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		findings = append(findings, domain.Finding{
			Type:     domain.FindingAutorizacionPrevia,
			Severity: domain.SeverityImportante,
			Title:    "Procedimiento requiere autorización previa",
			Description: fmt.Sprintf("El procedimiento %q requiere autorización previa de la aseguradora.",
				procedure),
			Source: domain.SourceCondicionesGenerales,
			RelatedFields: []string{
				domain.FieldTratamientoDescripcion,
				domain.FieldTratamientoTecnica,
			},
			CalculatedValues: map[string]any{"procedimiento": procedure},
		})
	}
	return findings
}

func isGloballyExcluded(procedure string, exclusions []string) bool {
	for _, exclusion := range exclusions {
		if normalize.ContainsFold(exclusion, procedure) || normalize.ContainsFold(procedure, exclusion) {
			return true
		}
	}
	return false
}
