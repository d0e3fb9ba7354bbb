package normalizer

import (
	"errors"
	"testing"
	"time"

	"github.com/opensource-health/centinela/internal/domain"
	"github.com/opensource-health/centinela/internal/fieldpath"
)

func fixedNormalizer() *Normalizer {
	n := New()
	n.now = func() time.Time {
		return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	}
	return n
}

func TestNormalizeGNP(t *testing.T) {
	n := fixedNormalizer()

	raw := map[string]any{
		"datos_paciente": map[string]any{
			"nombre_completo":  "  MARIA GARCIA  ",
			"fecha_nacimiento": "1980-03-15",
			"edad":             float64(45),
			"sexo":             "f",
		},
		"datos_poliza": map[string]any{"numero_poliza": "GNP-001234"},
		"diagnostico": map[string]any{
			"descripcion_diagnostico": "Apendicitis aguda",
			"cie10":                   "k35.8",
		},
		"hospitalizacion": map[string]any{
			"fecha_ingreso": "10/05/2025",
			"fecha_egreso":  "14/05/2025",
		},
		"medico_tratante": map[string]any{
			"nombre":             "DR. HERNANDEZ",
			"cedula_profesional": "CED-1234567",
		},
		"honorarios": map[string]any{
			"honorarios_cirujano": "$45,000.00",
		},
	}

	result, err := n.Normalize(domain.InsurerGNP, raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, errors: %v", result.Errors)
	}

	rec := result.Normalized

	got := func(path string) any {
		return fieldpath.Get(rec, path)
	}

	if got(domain.FieldPacienteNombre) != "MARIA GARCIA" {
		t.Errorf("expected trimmed name, got %v", got(domain.FieldPacienteNombre))
	}
	if got(domain.FieldPacienteNacimiento) != "15/03/1980" {
		t.Errorf("expected ISO date re-rendered as DD/MM/YYYY, got %v", got(domain.FieldPacienteNacimiento))
	}
	if got(domain.FieldPacienteGenero) != "F" {
		t.Errorf("expected uppercased gender, got %v", got(domain.FieldPacienteGenero))
	}
	if got(domain.FieldDiagnosticoCIE) != "K35.8" {
		t.Errorf("expected uppercased CIE code, got %v", got(domain.FieldDiagnosticoCIE))
	}
	if got(domain.FieldMedicoCedula) != "1234567" {
		t.Errorf("expected digits-only cedula, got %v", got(domain.FieldMedicoCedula))
	}
	if got(domain.FieldHonorariosCirujano) != float64(45000) {
		t.Errorf("expected parsed amount 45000, got %v", got(domain.FieldHonorariosCirujano))
	}

	// Both stay dates present: hospital care derived true
	if got(domain.FieldAtencionHospitalaria) != true {
		t.Error("expected es_hospitalaria true with ingreso and egreso")
	}

	// Provider marker written for rule targeting
	if rec[domain.ProviderField] != "GNP" {
		t.Errorf("expected provider marker GNP, got %v", rec[domain.ProviderField])
	}

	if result.Metadata.MappedFields[domain.FieldPolizaNumero] != "datos_poliza.numero_poliza" {
		t.Errorf("expected mapped-field diagnostics, got %v", result.Metadata.MappedFields)
	}
}

func TestNormalizeMapfre(t *testing.T) {
	n := fixedNormalizer()

	raw := map[string]any{
		"nombre_paciente":           "JOSE LOPEZ",
		"fecha_nacimiento_paciente": "22/07/1975",
		"numero_poliza":             "MF-000123",
		"diagnostico_principal":     "Hernia inguinal",
		"medico":                    map[string]any{"nombre": "DRA. MARTINEZ"},
		"costos":                    map[string]any{"cirujano": float64(30000)},
	}

	result, err := n.Normalize(domain.InsurerMapfre, raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, errors: %v", result.Errors)
	}

	if fieldpath.Get(result.Normalized, domain.FieldPacienteNombre) != "JOSE LOPEZ" {
		t.Errorf("flat schema did not map: %v", result.Normalized)
	}

	// No stay dates: ambulatory care
	if fieldpath.Get(result.Normalized, domain.FieldAtencionHospitalaria) != false {
		t.Error("expected es_hospitalaria false without stay dates")
	}
}

func TestNormalizeMetlifePhysicianArray(t *testing.T) {
	n := fixedNormalizer()

	raw := map[string]any{
		"informacion_general": map[string]any{
			"paciente":         "ANA RODRIGUEZ",
			"fecha_nacimiento": "01/01/1990",
			"no_poliza":        "ML-555",
		},
		"informe_medico": map[string]any{"diagnostico": "Neumonia"},
		"medicos": []any{
			map[string]any{"nombre": "DR. PRIMERO"},
			map[string]any{"nombre": "DR. SEGUNDO"},
		},
	}

	result, err := n.Normalize(domain.InsurerMetlife, raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, errors: %v", result.Errors)
	}

	if fieldpath.Get(result.Normalized, domain.FieldMedicoNombre) != "DR. PRIMERO" {
		t.Errorf("expected first physician as treating physician, got %v",
			fieldpath.Get(result.Normalized, domain.FieldMedicoNombre))
	}
}

func TestNormalizeRequiredFieldMissing(t *testing.T) {
	n := fixedNormalizer()

	raw := map[string]any{
		"nombre_paciente":           "JOSE LOPEZ",
		"fecha_nacimiento_paciente": "22/07/1975",
		// numero_poliza missing
		"diagnostico_principal": "Hernia inguinal",
		"medico":                map[string]any{"nombre": "DRA. MARTINEZ"},
	}

	result, err := n.Normalize(domain.InsurerMapfre, raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if result.Success {
		t.Error("expected failure for missing required field")
	}
	if len(result.Errors) == 0 {
		t.Error("expected an error entry for the missing field")
	}

	// Partial result stays inspectable
	if fieldpath.Get(result.Normalized, domain.FieldPacienteNombre) != "JOSE LOPEZ" {
		t.Error("expected partial result to keep mapped fields")
	}
}

func TestNormalizeValidatorFailure(t *testing.T) {
	n := fixedNormalizer()

	raw := map[string]any{
		"seccion_1": map[string]any{
			"nombre_asegurado": "PEDRO SANCHEZ",
			"fecha_nac":        "02/02/1982",
			"poliza":           "MTY-777",
		},
		"seccion_2": map[string]any{"diagnostico_definitivo": "Fractura de radio"},
		"seccion_4": map[string]any{
			"medico": map[string]any{
				"nombre": "DR. TORRES",
				"rfc":    "NO-ES-RFC", // optional field, but invalid once present
			},
		},
	}

	result, err := n.Normalize(domain.InsurerMonterrey, raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if result.Success {
		t.Error("expected failure for invalid RFC")
	}
	if fieldpath.Get(result.Normalized, domain.FieldMedicoRFC) != nil {
		t.Error("expected invalid RFC to not be written")
	}
}

func TestNormalizeDefaultsReportDate(t *testing.T) {
	n := fixedNormalizer()

	raw := map[string]any{
		"nombre_paciente":           "JOSE LOPEZ",
		"fecha_nacimiento_paciente": "22/07/1975",
		"numero_poliza":             "MF-000123",
		"diagnostico_principal":     "Hernia inguinal",
		"medico":                    map[string]any{"nombre": "DRA. MARTINEZ"},
	}

	result, err := n.Normalize(domain.InsurerMapfre, raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if fieldpath.Get(result.Normalized, domain.FieldFechaInforme) != "10/06/2025" {
		t.Errorf("expected report date defaulted to today, got %v",
			fieldpath.Get(result.Normalized, domain.FieldFechaInforme))
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for the defaulted report date")
	}
}

func TestNormalizeUnknownInsurer(t *testing.T) {
	n := fixedNormalizer()

	_, err := n.Normalize(domain.InsurerCode("ACME"), map[string]any{})
	if !errors.Is(err, domain.ErrUnknownInsurer) {
		t.Errorf("expected ErrUnknownInsurer, got %v", err)
	}
}

func TestLoadConfigsOverridesBuiltin(t *testing.T) {
	n := fixedNormalizer()

	n.LoadConfigs([]*domain.InsurerConfig{
		{
			Code:        domain.InsurerMapfre,
			DisplayName: "Mapfre Custom",
			Mappings: map[string]domain.MappingEntry{
				domain.FieldPacienteNombre: {SourcePath: "paciente", Parser: "trim", Validator: "non_empty"},
			},
		},
	})

	cfg, ok := n.Config(domain.InsurerMapfre)
	if !ok || cfg.DisplayName != "Mapfre Custom" {
		t.Fatalf("expected custom config to be active: %+v", cfg)
	}

	// Other built-ins stay in place
	if _, ok := n.Config(domain.InsurerGNP); !ok {
		t.Error("expected GNP built-in to survive")
	}

	result, err := n.Normalize(domain.InsurerMapfre, map[string]any{"paciente": "LUIS"})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if fieldpath.Get(result.Normalized, domain.FieldPacienteNombre) != "LUIS" {
		t.Errorf("expected custom mapping to resolve, got %v", result.Normalized)
	}
}

func TestTransforms(t *testing.T) {
	t.Run("UnknownParser", func(t *testing.T) {
		if _, err := LookupParser("no-such"); err == nil {
			t.Error("expected error for unknown parser")
		}
	})

	t.Run("EmptyNamesAreNoops", func(t *testing.T) {
		p, err := LookupParser("")
		if err != nil || p != nil {
			t.Errorf("expected nil parser for empty name, got %v, %v", p, err)
		}
		v, err := LookupValidator("")
		if err != nil || v != nil {
			t.Errorf("expected nil validator for empty name, got %v, %v", v, err)
		}
	})

	t.Run("ValidRFC", func(t *testing.T) {
		validate, _ := LookupValidator("valid_rfc")

		if !validate("GOMC860404HD9") {
			t.Error("expected valid RFC to pass")
		}
		if validate("123") {
			t.Error("expected short string to fail")
		}
	})

	t.Run("ValidEmail", func(t *testing.T) {
		validate, _ := LookupValidator("valid_email")

		if !validate("doctor@hospital.mx") {
			t.Error("expected valid email to pass")
		}
		if validate("no-arroba") {
			t.Error("expected string without @ to fail")
		}
	})

	t.Run("PositiveAmount", func(t *testing.T) {
		validate, _ := LookupValidator("positive_amount")

		if !validate("$100.00") {
			t.Error("expected positive amount to pass")
		}
		if validate(float64(-5)) {
			t.Error("expected negative amount to fail")
		}
		if validate(float64(0)) {
			t.Error("expected zero to fail")
		}
	})
}
