package domain

import "time"

// Claim is one medical reimbursement claim document: the raw tree produced
// by the extraction collaborator plus, once normalized, its canonical form.
// Read-only during evaluation; corrections produce a fresh audit from scratch.
type Claim struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenantId"`
	InsurerCode InsurerCode    `json:"insurerCode"`
	Raw         map[string]any `json:"raw"`
	Normalized  map[string]any `json:"normalized,omitempty"`
	ReceivedAt  time.Time      `json:"receivedAt"`
}

// Canonical record paths shared by the normalizer, rule engine, and policy
// validator. The normalizer guarantees this shape regardless of insurer.
const (
	FieldPacienteNombre     = "paciente.nombre"
	FieldPacienteNacimiento = "paciente.fecha_nacimiento"
	FieldPacienteEdad       = "paciente.edad"
	FieldPacienteGenero     = "paciente.genero"

	FieldPolizaNumero = "poliza.numero"

	FieldDiagnosticoDescripcion = "diagnostico.descripcion"
	FieldDiagnosticoCIE         = "diagnostico.codigo_cie"
	FieldPadecimientoHistoria   = "padecimiento.historia"
	FieldPadecimientoInicio     = "padecimiento.fecha_inicio"

	FieldFechaIngreso = "fecha.ingreso"
	FieldFechaEgreso  = "fecha.egreso"
	FieldFechaInforme = "fecha.informe"

	FieldMedicoNombre       = "medico.nombre"
	FieldMedicoCedula       = "medico.cedula"
	FieldMedicoEspecialidad = "medico.especialidad"
	FieldMedicoRFC          = "medico.rfc"
	FieldMedicoEmail        = "medico.email"
	FieldMedicoTelefono     = "medico.telefono"

	FieldHonorariosCirujano      = "honorarios.cirujano"
	FieldHonorariosAnestesiologo = "honorarios.anestesiologo"
	FieldHonorariosPresupuesto   = "honorarios.presupuesto"

	FieldTratamientoDescripcion = "tratamiento.descripcion"
	FieldTratamientoTecnica     = "tratamiento.tecnica_quirurgica"

	FieldAtencionHospitalaria = "atencion.es_hospitalaria"
)
