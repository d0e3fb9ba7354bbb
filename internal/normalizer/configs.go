package normalizer

import "github.com/opensource-health/centinela/internal/domain"

// Built-in mapping tables for the supported insurers. Each insurer's
// extraction schema is structurally different; the tables map every source
// shape onto the same canonical paths. Repository-stored configs override
// these at load time.

// BuiltinConfigs returns the default per-insurer mapping tables.
func BuiltinConfigs() []*domain.InsurerConfig {
	return []*domain.InsurerConfig{
		gnpConfig(),
		axaConfig(),
		metlifeConfig(),
		monterreyConfig(),
		mapfreConfig(),
	}
}

// GNP forms group everything under "datos_*" sections.
func gnpConfig() *domain.InsurerConfig {
	return &domain.InsurerConfig{
		Code:        domain.InsurerGNP,
		DisplayName: "Grupo Nacional Provincial",
		Mappings: map[string]domain.MappingEntry{
			domain.FieldPacienteNombre:     {SourcePath: "datos_paciente.nombre_completo", Parser: "trim", Validator: "non_empty"},
			domain.FieldPacienteNacimiento: {SourcePath: "datos_paciente.fecha_nacimiento", Parser: "parse_date"},
			domain.FieldPacienteEdad:       {SourcePath: "datos_paciente.edad", Optional: true},
			domain.FieldPacienteGenero:     {SourcePath: "datos_paciente.sexo", Optional: true, Parser: "upper"},

			domain.FieldPolizaNumero: {SourcePath: "datos_poliza.numero_poliza", Parser: "trim", Validator: "non_empty"},

			domain.FieldDiagnosticoDescripcion: {SourcePath: "diagnostico.descripcion_diagnostico", Parser: "trim", Validator: "non_empty"},
			domain.FieldDiagnosticoCIE:         {SourcePath: "diagnostico.cie10", Optional: true, Parser: "upper"},
			domain.FieldPadecimientoHistoria:   {SourcePath: "antecedentes.patologicos", Optional: true, Parser: "trim"},
			domain.FieldPadecimientoInicio:     {SourcePath: "padecimiento_actual.fecha_inicio", Optional: true, Parser: "parse_date"},

			domain.FieldFechaIngreso: {SourcePath: "hospitalizacion.fecha_ingreso", Optional: true, Parser: "parse_date"},
			domain.FieldFechaEgreso:  {SourcePath: "hospitalizacion.fecha_egreso", Optional: true, Parser: "parse_date"},
			domain.FieldFechaInforme: {SourcePath: "informe.fecha_elaboracion", Optional: true, Parser: "parse_date"},

			domain.FieldMedicoNombre:       {SourcePath: "medico_tratante.nombre", Parser: "trim", Validator: "non_empty"},
			domain.FieldMedicoCedula:       {SourcePath: "medico_tratante.cedula_profesional", Optional: true, Parser: "digits_only"},
			domain.FieldMedicoEspecialidad: {SourcePath: "medico_tratante.especialidad", Optional: true, Parser: "trim"},
			domain.FieldMedicoRFC:          {SourcePath: "medico_tratante.rfc", Optional: true, Parser: "upper"},
			domain.FieldMedicoTelefono:     {SourcePath: "medico_tratante.telefono", Optional: true, Parser: "digits_only"},

			domain.FieldHonorariosCirujano:      {SourcePath: "honorarios.honorarios_cirujano", Optional: true, Parser: "parse_amount"},
			domain.FieldHonorariosAnestesiologo: {SourcePath: "honorarios.honorarios_anestesiologo", Optional: true, Parser: "parse_amount"},
			domain.FieldHonorariosPresupuesto:   {SourcePath: "honorarios.presupuesto_total", Optional: true, Parser: "parse_amount"},

			domain.FieldTratamientoDescripcion: {SourcePath: "tratamiento.descripcion_tratamiento", Optional: true, Parser: "trim"},
			domain.FieldTratamientoTecnica:     {SourcePath: "tratamiento.tecnica_quirurgica", Optional: true, Parser: "trim"},
		},
	}
}

// AXA nests the whole form under "solicitud".
func axaConfig() *domain.InsurerConfig {
	return &domain.InsurerConfig{
		Code:        domain.InsurerAXA,
		DisplayName: "AXA Seguros",
		Mappings: map[string]domain.MappingEntry{
			domain.FieldPacienteNombre:     {SourcePath: "solicitud.asegurado.nombre", Parser: "trim", Validator: "non_empty"},
			domain.FieldPacienteNacimiento: {SourcePath: "solicitud.asegurado.nacimiento", Parser: "parse_date"},
			domain.FieldPacienteEdad:       {SourcePath: "solicitud.asegurado.edad", Optional: true},
			domain.FieldPacienteGenero:     {SourcePath: "solicitud.asegurado.genero", Optional: true, Parser: "upper"},

			domain.FieldPolizaNumero: {SourcePath: "solicitud.poliza", Parser: "trim", Validator: "non_empty"},

			domain.FieldDiagnosticoDescripcion: {SourcePath: "solicitud.diagnostico.texto", Parser: "trim", Validator: "non_empty"},
			domain.FieldDiagnosticoCIE:         {SourcePath: "solicitud.diagnostico.codigo", Optional: true, Parser: "upper"},
			domain.FieldPadecimientoHistoria:   {SourcePath: "solicitud.historia_clinica", Optional: true, Parser: "trim"},
			domain.FieldPadecimientoInicio:     {SourcePath: "solicitud.diagnostico.inicio_sintomas", Optional: true, Parser: "parse_date"},

			domain.FieldFechaIngreso: {SourcePath: "solicitud.estancia.ingreso", Optional: true, Parser: "parse_date"},
			domain.FieldFechaEgreso:  {SourcePath: "solicitud.estancia.egreso", Optional: true, Parser: "parse_date"},
			domain.FieldFechaInforme: {SourcePath: "solicitud.fecha", Optional: true, Parser: "parse_date"},

			domain.FieldMedicoNombre:       {SourcePath: "solicitud.medico.nombre_completo", Parser: "trim", Validator: "non_empty"},
			domain.FieldMedicoCedula:       {SourcePath: "solicitud.medico.cedula", Optional: true, Parser: "digits_only"},
			domain.FieldMedicoEspecialidad: {SourcePath: "solicitud.medico.especialidad", Optional: true, Parser: "trim"},
			domain.FieldMedicoEmail:        {SourcePath: "solicitud.medico.correo", Optional: true, Validator: "valid_email"},

			domain.FieldHonorariosCirujano:      {SourcePath: "solicitud.costos.cirujano", Optional: true, Parser: "parse_amount"},
			domain.FieldHonorariosAnestesiologo: {SourcePath: "solicitud.costos.anestesiologo", Optional: true, Parser: "parse_amount"},
			domain.FieldHonorariosPresupuesto:   {SourcePath: "solicitud.costos.presupuesto", Optional: true, Parser: "parse_amount"},

			domain.FieldTratamientoDescripcion: {SourcePath: "solicitud.plan_tratamiento", Optional: true, Parser: "trim"},
			domain.FieldTratamientoTecnica:     {SourcePath: "solicitud.cirugia.tecnica", Optional: true, Parser: "trim"},
		},
	}
}

// MetLife uses flat English-ish section names and arrays for physicians.
func metlifeConfig() *domain.InsurerConfig {
	return &domain.InsurerConfig{
		Code:        domain.InsurerMetlife,
		DisplayName: "MetLife México",
		Mappings: map[string]domain.MappingEntry{
			domain.FieldPacienteNombre:     {SourcePath: "informacion_general.paciente", Parser: "trim", Validator: "non_empty"},
			domain.FieldPacienteNacimiento: {SourcePath: "informacion_general.fecha_nacimiento", Parser: "parse_date"},
			domain.FieldPacienteEdad:       {SourcePath: "informacion_general.edad", Optional: true},

			domain.FieldPolizaNumero: {SourcePath: "informacion_general.no_poliza", Parser: "trim", Validator: "non_empty"},

			domain.FieldDiagnosticoDescripcion: {SourcePath: "informe_medico.diagnostico", Parser: "trim", Validator: "non_empty"},
			domain.FieldDiagnosticoCIE:         {SourcePath: "informe_medico.codigo_cie", Optional: true, Parser: "upper"},
			domain.FieldPadecimientoHistoria:   {SourcePath: "informe_medico.antecedentes", Optional: true, Parser: "trim"},
			domain.FieldPadecimientoInicio:     {SourcePath: "informe_medico.inicio_padecimiento", Optional: true, Parser: "parse_date"},

			domain.FieldFechaIngreso: {SourcePath: "informe_medico.fechas.ingreso_hospital", Optional: true, Parser: "parse_date"},
			domain.FieldFechaEgreso:  {SourcePath: "informe_medico.fechas.egreso_hospital", Optional: true, Parser: "parse_date"},
			domain.FieldFechaInforme: {SourcePath: "informe_medico.fechas.informe", Optional: true, Parser: "parse_date"},

			// First physician in the list is the treating physician.
			domain.FieldMedicoNombre:       {SourcePath: "medicos[0].nombre", Parser: "trim", Validator: "non_empty"},
			domain.FieldMedicoCedula:       {SourcePath: "medicos[0].cedula", Optional: true, Parser: "digits_only"},
			domain.FieldMedicoEspecialidad: {SourcePath: "medicos[0].especialidad", Optional: true, Parser: "trim"},
			domain.FieldMedicoTelefono:     {SourcePath: "medicos[0].telefono", Optional: true, Parser: "digits_only"},

			domain.FieldHonorariosCirujano:      {SourcePath: "desglose.honorarios_medicos", Optional: true, Parser: "parse_amount"},
			domain.FieldHonorariosAnestesiologo: {SourcePath: "desglose.honorarios_anestesia", Optional: true, Parser: "parse_amount"},
			domain.FieldHonorariosPresupuesto:   {SourcePath: "desglose.total_estimado", Optional: true, Parser: "parse_amount"},

			domain.FieldTratamientoDescripcion: {SourcePath: "informe_medico.tratamiento", Optional: true, Parser: "trim"},
			domain.FieldTratamientoTecnica:     {SourcePath: "informe_medico.tecnica", Optional: true, Parser: "trim"},
		},
	}
}

// Seguros Monterrey forms split across numbered "seccion_N" blocks.
func monterreyConfig() *domain.InsurerConfig {
	return &domain.InsurerConfig{
		Code:        domain.InsurerMonterrey,
		DisplayName: "Seguros Monterrey New York Life",
		Mappings: map[string]domain.MappingEntry{
			domain.FieldPacienteNombre:     {SourcePath: "seccion_1.nombre_asegurado", Parser: "trim", Validator: "non_empty"},
			domain.FieldPacienteNacimiento: {SourcePath: "seccion_1.fecha_nac", Parser: "parse_date"},
			domain.FieldPacienteEdad:       {SourcePath: "seccion_1.edad", Optional: true},
			domain.FieldPacienteGenero:     {SourcePath: "seccion_1.genero", Optional: true, Parser: "upper"},

			domain.FieldPolizaNumero: {SourcePath: "seccion_1.poliza", Parser: "trim", Validator: "non_empty"},

			domain.FieldDiagnosticoDescripcion: {SourcePath: "seccion_2.diagnostico_definitivo", Parser: "trim", Validator: "non_empty"},
			domain.FieldDiagnosticoCIE:         {SourcePath: "seccion_2.cie", Optional: true, Parser: "upper"},
			domain.FieldPadecimientoHistoria:   {SourcePath: "seccion_2.antecedentes_personales", Optional: true, Parser: "trim"},
			domain.FieldPadecimientoInicio:     {SourcePath: "seccion_2.fecha_primeros_sintomas", Optional: true, Parser: "parse_date"},

			domain.FieldFechaIngreso: {SourcePath: "seccion_3.ingreso", Optional: true, Parser: "parse_date"},
			domain.FieldFechaEgreso:  {SourcePath: "seccion_3.egreso", Optional: true, Parser: "parse_date"},
			domain.FieldFechaInforme: {SourcePath: "seccion_4.fecha_firma", Optional: true, Parser: "parse_date"},

			domain.FieldMedicoNombre:       {SourcePath: "seccion_4.medico.nombre", Parser: "trim", Validator: "non_empty"},
			domain.FieldMedicoCedula:       {SourcePath: "seccion_4.medico.cedula", Optional: true, Parser: "digits_only"},
			domain.FieldMedicoEspecialidad: {SourcePath: "seccion_4.medico.especialidad", Optional: true, Parser: "trim"},
			domain.FieldMedicoRFC:          {SourcePath: "seccion_4.medico.rfc", Optional: true, Parser: "upper", Validator: "valid_rfc"},

			domain.FieldHonorariosCirujano:      {SourcePath: "seccion_5.honorarios_cirujano", Optional: true, Parser: "parse_amount"},
			domain.FieldHonorariosAnestesiologo: {SourcePath: "seccion_5.honorarios_anestesiologo", Optional: true, Parser: "parse_amount"},
			domain.FieldHonorariosPresupuesto:   {SourcePath: "seccion_5.presupuesto", Optional: true, Parser: "parse_amount"},

			domain.FieldTratamientoDescripcion: {SourcePath: "seccion_3.tratamiento_propuesto", Optional: true, Parser: "trim"},
			domain.FieldTratamientoTecnica:     {SourcePath: "seccion_3.tecnica_quirurgica", Optional: true, Parser: "trim"},
		},
	}
}

// Mapfre delivers a mostly-flat schema with underscore keys.
func mapfreConfig() *domain.InsurerConfig {
	return &domain.InsurerConfig{
		Code:        domain.InsurerMapfre,
		DisplayName: "Mapfre México",
		Mappings: map[string]domain.MappingEntry{
			domain.FieldPacienteNombre:     {SourcePath: "nombre_paciente", Parser: "trim", Validator: "non_empty"},
			domain.FieldPacienteNacimiento: {SourcePath: "fecha_nacimiento_paciente", Parser: "parse_date"},
			domain.FieldPacienteEdad:       {SourcePath: "edad_paciente", Optional: true},

			domain.FieldPolizaNumero: {SourcePath: "numero_poliza", Parser: "trim", Validator: "non_empty"},

			domain.FieldDiagnosticoDescripcion: {SourcePath: "diagnostico_principal", Parser: "trim", Validator: "non_empty"},
			domain.FieldDiagnosticoCIE:         {SourcePath: "codigo_cie10", Optional: true, Parser: "upper"},
			domain.FieldPadecimientoHistoria:   {SourcePath: "antecedentes_patologicos", Optional: true, Parser: "trim"},
			domain.FieldPadecimientoInicio:     {SourcePath: "fecha_inicio_padecimiento", Optional: true, Parser: "parse_date"},

			domain.FieldFechaIngreso: {SourcePath: "fecha_ingreso", Optional: true, Parser: "parse_date"},
			domain.FieldFechaEgreso:  {SourcePath: "fecha_egreso", Optional: true, Parser: "parse_date"},
			domain.FieldFechaInforme: {SourcePath: "fecha_informe", Optional: true, Parser: "parse_date"},

			domain.FieldMedicoNombre:   {SourcePath: "medico.nombre", Parser: "trim", Validator: "non_empty"},
			domain.FieldMedicoCedula:   {SourcePath: "medico.cedula", Optional: true, Parser: "digits_only"},
			domain.FieldMedicoTelefono: {SourcePath: "medico.telefono_contacto", Optional: true, Parser: "digits_only"},

			domain.FieldHonorariosCirujano:      {SourcePath: "costos.cirujano", Optional: true, Parser: "parse_amount", Validator: "positive_amount"},
			domain.FieldHonorariosAnestesiologo: {SourcePath: "costos.anestesiologo", Optional: true, Parser: "parse_amount"},
			domain.FieldHonorariosPresupuesto:   {SourcePath: "costos.presupuesto_global", Optional: true, Parser: "parse_amount"},

			domain.FieldTratamientoDescripcion: {SourcePath: "tratamiento_indicado", Optional: true, Parser: "trim"},
			domain.FieldTratamientoTecnica:     {SourcePath: "tecnica_quirurgica", Optional: true, Parser: "trim"},
		},
	}
}
