package rules

import (
	"testing"
	"time"

	"github.com/opensource-health/centinela/internal/domain"
)

// A triggered condition means "problem detected".
func TestEvaluateCondition(t *testing.T) {
	record := map[string]any{
		"paciente": map[string]any{
			"nombre": "MARIA GARCIA",
			"edad":   float64(45),
		},
		"poliza": map[string]any{"numero": "GNP-001234"},
		"diagnostico": map[string]any{
			"descripcion": "Apendicitis aguda",
			"codigo_cie":  "K35.8",
		},
		"fecha": map[string]any{
			"ingreso": "10/05/2025",
			"egreso":  "14/05/2025",
		},
		"medico": map[string]any{
			"nombre":   "DR. HERNANDEZ",
			"cedula":   "1234567",
			"email":    "dr@hospital.mx",
			"telefono": "5512345678",
			"rfc":      "GOMC860404HD9",
		},
		"honorarios": map[string]any{"cirujano": float64(45000)},
		"vacio":      "",
	}

	tests := []struct {
		name string
		cond domain.RuleCondition
		want bool
	}{
		// Existence
		{"IS_EMPTY on missing field", domain.RuleCondition{Field: "tratamiento.descripcion", Operator: domain.OpIsEmpty}, true},
		{"IS_EMPTY on blank string", domain.RuleCondition{Field: "vacio", Operator: domain.OpIsEmpty}, true},
		{"IS_EMPTY on present field", domain.RuleCondition{Field: "paciente.nombre", Operator: domain.OpIsEmpty}, false},
		{"IS_NOT_EMPTY on present field", domain.RuleCondition{Field: "paciente.nombre", Operator: domain.OpIsNotEmpty}, true},

		// REQUIRES is bidirectional: exactly one side present triggers
		{"REQUIRES one side present", domain.RuleCondition{Field: "fecha.ingreso", Operator: domain.OpRequires, CompareField: "fecha.alta_medica"}, true},
		{"REQUIRES other side present", domain.RuleCondition{Field: "fecha.alta_medica", Operator: domain.OpRequires, CompareField: "fecha.ingreso"}, true},
		{"REQUIRES both present", domain.RuleCondition{Field: "fecha.ingreso", Operator: domain.OpRequires, CompareField: "fecha.egreso"}, false},
		{"REQUIRES both missing", domain.RuleCondition{Field: "a.b", Operator: domain.OpRequires, CompareField: "c.d"}, false},

		// IF_THEN is one-directional
		{"IF_THEN dependent missing", domain.RuleCondition{Field: "fecha.ingreso", Operator: domain.OpIfThen, CompareField: "fecha.alta_medica"}, true},
		{"IF_THEN dependent present", domain.RuleCondition{Field: "fecha.ingreso", Operator: domain.OpIfThen, CompareField: "fecha.egreso"}, false},
		{"IF_THEN antecedent missing", domain.RuleCondition{Field: "a.b", Operator: domain.OpIfThen, CompareField: "fecha.ingreso"}, false},

		// Comparison
		{"EQUALS case-insensitive", domain.RuleCondition{Field: "paciente.nombre", Operator: domain.OpEquals, Value: "maria garcia"}, true},
		{"EQUALS numeric coercion", domain.RuleCondition{Field: "paciente.edad", Operator: domain.OpEquals, Value: "45"}, true},
		{"NOT_EQUALS on differing value", domain.RuleCondition{Field: "paciente.nombre", Operator: domain.OpNotEquals, Value: "otro"}, true},
		{"NOT_EQUALS on missing field", domain.RuleCondition{Field: "a.b", Operator: domain.OpNotEquals, Value: "x"}, false},
		{"GREATER_THAN", domain.RuleCondition{Field: "honorarios.cirujano", Operator: domain.OpGreaterThan, Value: float64(40000)}, true},
		{"GREATER_THAN non-numeric field", domain.RuleCondition{Field: "paciente.nombre", Operator: domain.OpGreaterThan, Value: float64(1)}, false},
		{"LESS_THAN", domain.RuleCondition{Field: "paciente.edad", Operator: domain.OpLessThan, Value: float64(50)}, true},
		{"GREATER_THAN_OR_EQUAL boundary", domain.RuleCondition{Field: "paciente.edad", Operator: domain.OpGreaterThanOrEqual, Value: float64(45)}, true},
		{"LESS_THAN_OR_EQUAL boundary", domain.RuleCondition{Field: "paciente.edad", Operator: domain.OpLessThanOrEqual, Value: float64(44)}, false},

		// Dates
		{"DATE_MISSING on absent date", domain.RuleCondition{Field: "fecha.informe", Operator: domain.OpDateMissing}, true},
		{"DATE_INVALID on valid date", domain.RuleCondition{Field: "fecha.ingreso", Operator: domain.OpDateInvalid}, false},
		{"DATE_INVALID on garbage", domain.RuleCondition{Field: "paciente.nombre", Operator: domain.OpDateInvalid}, true},
		{"DATE_INVALID on missing is not triggered", domain.RuleCondition{Field: "a.b", Operator: domain.OpDateInvalid}, false},
		{"DATE_BEFORE compare field", domain.RuleCondition{Field: "fecha.ingreso", Operator: domain.OpDateBefore, CompareField: "fecha.egreso"}, true},
		{"DATE_AFTER egreso before ingreso", domain.RuleCondition{Field: "fecha.ingreso", Operator: domain.OpDateAfter, CompareField: "fecha.egreso"}, false},
		{"DATE_BEFORE literal", domain.RuleCondition{Field: "fecha.ingreso", Operator: domain.OpDateBefore, Value: "01/01/2030"}, true},
		{"DATE_BEFORE unparsable reference", domain.RuleCondition{Field: "fecha.ingreso", Operator: domain.OpDateBefore, Value: "pronto"}, false},

		// Formats: triggered when present and malformed
		{"IS_NUMBER on numeric", domain.RuleCondition{Field: "honorarios.cirujano", Operator: domain.OpIsNumber}, false},
		{"IS_NUMBER on text", domain.RuleCondition{Field: "paciente.nombre", Operator: domain.OpIsNumber}, true},
		{"IS_NUMBER on missing", domain.RuleCondition{Field: "a.b", Operator: domain.OpIsNumber}, false},
		{"IS_EMAIL on valid", domain.RuleCondition{Field: "medico.email", Operator: domain.OpIsEmail}, false},
		{"IS_EMAIL on invalid", domain.RuleCondition{Field: "paciente.nombre", Operator: domain.OpIsEmail}, true},
		{"IS_RFC on valid", domain.RuleCondition{Field: "medico.rfc", Operator: domain.OpIsRFC}, false},
		{"IS_RFC on invalid", domain.RuleCondition{Field: "medico.cedula", Operator: domain.OpIsRFC}, true},
		{"IS_PHONE ten digits", domain.RuleCondition{Field: "medico.telefono", Operator: domain.OpIsPhone}, false},
		{"IS_PHONE short number", domain.RuleCondition{Field: "medico.cedula", Operator: domain.OpIsPhone}, true},

		// Pattern / text
		{"REGEX non-matching triggers", domain.RuleCondition{Field: "poliza.numero", Operator: domain.OpRegex, Value: "^AXA-"}, true},
		{"REGEX matching", domain.RuleCondition{Field: "poliza.numero", Operator: domain.OpRegex, Value: "^GNP-"}, false},
		{"REGEX invalid pattern fails safe", domain.RuleCondition{Field: "poliza.numero", Operator: domain.OpRegex, Value: "("}, false},
		{"CONTAINS", domain.RuleCondition{Field: "diagnostico.descripcion", Operator: domain.OpContains, Value: "apendicitis"}, true},
		{"NOT_CONTAINS", domain.RuleCondition{Field: "diagnostico.descripcion", Operator: domain.OpNotContains, Value: "hernia"}, true},
		{"NOT_CONTAINS on missing field", domain.RuleCondition{Field: "a.b", Operator: domain.OpNotContains, Value: "x"}, false},
		{"LENGTH_LESS_THAN", domain.RuleCondition{Field: "medico.cedula", Operator: domain.OpLengthLessThan, Value: float64(10)}, true},
		{"LENGTH_GREATER_THAN", domain.RuleCondition{Field: "diagnostico.descripcion", Operator: domain.OpLengthGreaterThan, Value: float64(5)}, true},

		// Multi-field
		{"MUTUALLY_EXCLUSIVE both present", domain.RuleCondition{Field: "fecha.ingreso", Operator: domain.OpMutuallyExclusive, CompareField: "fecha.egreso"}, true},
		{"MUTUALLY_EXCLUSIVE one present", domain.RuleCondition{Field: "fecha.ingreso", Operator: domain.OpMutuallyExclusive, CompareField: "a.b"}, false},
		{"ONE_OF_REQUIRED none present", domain.RuleCondition{Field: "a.b", Operator: domain.OpOneOfRequired, AdditionalFields: []string{"c.d"}}, true},
		{"ONE_OF_REQUIRED one present", domain.RuleCondition{Field: "a.b", Operator: domain.OpOneOfRequired, AdditionalFields: []string{"paciente.nombre"}}, false},
		{"ALL_REQUIRED one missing", domain.RuleCondition{Field: "paciente.nombre", Operator: domain.OpAllRequired, AdditionalFields: []string{"a.b"}}, true},
		{"ALL_REQUIRED all present", domain.RuleCondition{Field: "paciente.nombre", Operator: domain.OpAllRequired, AdditionalFields: []string{"poliza.numero"}}, false},

		// Closed enumeration: unknown operators never trigger
		{"unknown operator fails safe", domain.RuleCondition{Field: "paciente.nombre", Operator: domain.Operator("EXPLODES")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateCondition(tt.cond, record, ""); got != tt.want {
				t.Errorf("EvaluateCondition(%s on %s) = %v, expected %v",
					tt.cond.Operator, tt.cond.Field, got, tt.want)
			}
		})
	}
}

func TestDateBeforeToday(t *testing.T) {
	yesterday := time.Now().AddDate(0, 0, -1).Format("02/01/2006")
	tomorrow := time.Now().AddDate(0, 0, 1).Format("02/01/2006")

	record := map[string]any{
		"fecha": map[string]any{
			"ayer":   yesterday,
			"manana": tomorrow,
		},
	}

	cond := domain.RuleCondition{Field: "fecha.ayer", Operator: domain.OpDateBefore, Value: "TODAY"}
	if !EvaluateCondition(cond, record, "") {
		t.Error("expected yesterday DATE_BEFORE TODAY to trigger")
	}

	cond = domain.RuleCondition{Field: "fecha.manana", Operator: domain.OpDateAfter, Value: "today"}
	if !EvaluateCondition(cond, record, "") {
		t.Error("expected tomorrow DATE_AFTER TODAY (sentinel is case-insensitive) to trigger")
	}

	cond = domain.RuleCondition{Field: "fecha.manana", Operator: domain.OpDateBefore, Value: "TODAY"}
	if EvaluateCondition(cond, record, "") {
		t.Error("expected tomorrow DATE_BEFORE TODAY to not trigger")
	}
}

func TestEvaluateConditionPathOverride(t *testing.T) {
	record := map[string]any{
		"seccion_2": map[string]any{"diagnostico_definitivo": "Apendicitis"},
	}

	cond := domain.RuleCondition{Field: "diagnostico.descripcion", Operator: domain.OpIsEmpty}

	if !EvaluateCondition(cond, record, "") {
		t.Error("expected canonical path to be empty in this record")
	}
	if EvaluateCondition(cond, record, "seccion_2.diagnostico_definitivo") {
		t.Error("expected override path to resolve the raw location")
	}
}

func TestEqualsOnArrayMembership(t *testing.T) {
	record := map[string]any{
		"estudios": []any{"radiografia", "tomografia"},
	}

	cond := domain.RuleCondition{Field: "estudios", Operator: domain.OpEquals, Value: "TOMOGRAFIA"}
	if !EvaluateCondition(cond, record, "") {
		t.Error("expected array membership equality")
	}

	cond.Value = "resonancia"
	if EvaluateCondition(cond, record, "") {
		t.Error("expected no match for absent element")
	}
}
