package filter

import "strings"

// ---------------- Operadores ----------------

// Operator es la etiqueta canónica de un operador de filtrado.
type Operator string

const (
	// Comparación
	OpEq       Operator = "="
	OpNe       Operator = "!="
	OpGt       Operator = ">"
	OpGte      Operator = ">="
	OpLt       Operator = "<"
	OpLte      Operator = "<="
	OpContains Operator = ":"

	// Rango
	OpIn    Operator = "in"
	OpNotIn Operator = "not_in"

	// Tipo
	OpIsNull     Operator = "is_null"
	OpIsNotNull  Operator = "is_not_null"
	OpIsEmpty    Operator = "is_empty"
	OpIsNotEmpty Operator = "is_not_empty"
	OpIsTrue     Operator = "is_true"
	OpIsFalse    Operator = "is_false"
)

// Family agrupa operadores que comparten la forma del valor.
type Family int

const (
	FamilyComparison Family = iota
	FamilyRange
	FamilyType
)

func (f Family) String() string {
	switch f {
	case FamilyComparison:
		return "comparison"
	case FamilyRange:
		return "range"
	case FamilyType:
		return "type"
	}
	return "unknown"
}

// aliases traduce cualquier alias aceptado a su etiqueta canónica.
var aliases = map[string]Operator{
	"=":  OpEq,
	"eq": OpEq,

	"!=":  OpNe,
	"ne":  OpNe,
	"neq": OpNe,

	">":  OpGt,
	"gt": OpGt,

	">=": OpGte,
	"ge": OpGte,

	"<":  OpLt,
	"lt": OpLt,

	"<=": OpLte,
	"le": OpLte,

	":":        OpContains,
	"has":      OpContains,
	"contains": OpContains,
	"includes": OpContains,
	"like":     OpContains,

	"in":     OpIn,
	"not_in": OpNotIn,

	"is_null":      OpIsNull,
	"is_not_null":  OpIsNotNull,
	"is_empty":     OpIsEmpty,
	"is_not_empty": OpIsNotEmpty,
	"is_true":      OpIsTrue,
	"is_false":     OpIsFalse,
}

var families = map[Operator]Family{
	OpEq:       FamilyComparison,
	OpNe:       FamilyComparison,
	OpGt:       FamilyComparison,
	OpGte:      FamilyComparison,
	OpLt:       FamilyComparison,
	OpLte:      FamilyComparison,
	OpContains: FamilyComparison,

	OpIn:    FamilyRange,
	OpNotIn: FamilyRange,

	OpIsNull:     FamilyType,
	OpIsNotNull:  FamilyType,
	OpIsEmpty:    FamilyType,
	OpIsNotEmpty: FamilyType,
	OpIsTrue:     FamilyType,
	OpIsFalse:    FamilyType,
}

// ResolveOperator devuelve la etiqueta canónica de un alias.
// Los alias alfabéticos no distinguen mayúsculas.
func ResolveOperator(alias string) (Operator, bool) {
	op, ok := aliases[strings.ToLower(strings.TrimSpace(alias))]
	return op, ok
}

// Family devuelve la familia del operador canónico.
func (o Operator) Family() Family {
	return families[o]
}

// IsRelational indica si el operador exige un orden estricto o parcial.
func (o Operator) IsRelational() bool {
	switch o {
	case OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// Aliases devuelve todos los alias que resuelven a la etiqueta canónica.
func (o Operator) Aliases() []string {
	var out []string
	for alias, op := range aliases {
		if op == o {
			out = append(out, alias)
		}
	}
	return out
}
