package filter

import (
	"fmt"
	"regexp"
	"time"
)

// ---------------- Predicados ----------------

type LogicalOperator string

const (
	LogicAnd LogicalOperator = "AND"
	LogicOr  LogicalOperator = "OR"
)

// Predicate es una condición booleana componible. Sólo Condition y Group
// la implementan; los adaptadores de persistencia hacen un type switch.
type Predicate interface {
	predicate()
}

// Condition compara un atributo del esquema con un valor.
// CastText pide al adaptador convertir la columna a texto antes de comparar.
type Condition struct {
	Attribute Attribute
	Operator  Operator
	Value     any
	CastText  bool
	pattern   *regexp.Regexp
}

// Group combina predicados con AND u OR. Un grupo vacío acepta todo.
type Group struct {
	Logic LogicalOperator
	Terms []Predicate
}

func (Condition) predicate() {}
func (Group) predicate()     {}

// And crea un Group con operador AND
func And(terms ...Predicate) Group { return Group{Logic: LogicAnd, Terms: terms} }

// Or crea un Group con operador OR
func Or(terms ...Predicate) Group { return Group{Logic: LogicOr, Terms: terms} }

// IsEmpty indica si el predicado no restringe nada.
func IsEmpty(p Predicate) bool {
	if p == nil {
		return true
	}
	g, ok := p.(Group)
	return ok && len(g.Terms) == 0
}

// ---------------- Constructores por operador ----------------

type builder func(a Attribute, d Descriptor) (Condition, error)

func plain(op Operator) builder {
	return func(a Attribute, d Descriptor) (Condition, error) {
		return Condition{Attribute: a, Operator: op, Value: valueFor(a, d)}, nil
	}
}

// valueFor elige el valor con el que se compara el atributo: los atributos
// de texto usan el valor original, sin coerción temporal.
func valueFor(a Attribute, d Descriptor) any {
	if a.Type != TypeText && a.Type != TypeEnum {
		return d.Value
	}
	if d.Raw != nil {
		return d.Raw
	}
	return textual(a, d.Value)
}

// textual deshace la coerción temporal en atributos de texto cuando el
// descriptor no trae el valor original.
func textual(a Attribute, value any) any {
	switch x := value.(type) {
	case time.Time:
		return PatternText(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = textual(a, item)
		}
		return out
	}
	return value
}

// textLike indica si el atributo admite operadores de texto (contains,
// is_empty): texto nativo o cualquier tipo que declare TextCast.
func textLike(a Attribute) bool {
	return a.Type == TypeText || a.TextCast
}

func contains(a Attribute, d Descriptor) (Condition, error) {
	if a.Type == TypeBoolean {
		return Condition{}, fmt.Errorf("pattern containment is undefined on boolean attributes")
	}
	if !textLike(a) {
		return Condition{}, fmt.Errorf("attribute does not support pattern containment")
	}
	pattern := PatternText(valueFor(a, d))
	re, err := regexp.Compile(LikeToRegex(pattern))
	if err != nil {
		return Condition{}, err
	}
	return Condition{
		Attribute: a,
		Operator:  OpContains,
		Value:     pattern,
		CastText:  a.TextCast,
		pattern:   re,
	}, nil
}

func emptiness(op Operator) builder {
	return func(a Attribute, _ Descriptor) (Condition, error) {
		if !textLike(a) {
			return Condition{}, fmt.Errorf("attribute is not textual")
		}
		return Condition{Attribute: a, Operator: op, CastText: a.TextCast && a.Type != TypeText}, nil
	}
}

func boolean(op Operator) builder {
	return func(a Attribute, _ Descriptor) (Condition, error) {
		if a.Type != TypeBoolean {
			return Condition{}, fmt.Errorf("attribute is not boolean")
		}
		return Condition{Attribute: a, Operator: op}, nil
	}
}

var builders = map[Operator]builder{
	OpEq:         plain(OpEq),
	OpNe:         plain(OpNe),
	OpGt:         plain(OpGt),
	OpGte:        plain(OpGte),
	OpLt:         plain(OpLt),
	OpLte:        plain(OpLte),
	OpContains:   contains,
	OpIn:         plain(OpIn),
	OpNotIn:      plain(OpNotIn),
	OpIsNull:     plain(OpIsNull),
	OpIsNotNull:  plain(OpIsNotNull),
	OpIsEmpty:    emptiness(OpIsEmpty),
	OpIsNotEmpty: emptiness(OpIsNotEmpty),
	OpIsTrue:     boolean(OpIsTrue),
	OpIsFalse:    boolean(OpIsFalse),
}

// Compile resuelve cada descriptor contra el esquema y los combina.
// Falla en el primer campo desconocido, antes de cualquier acceso a datos.
func Compile(schema Schema, descriptors []Descriptor, useOr bool) (Predicate, error) {
	terms := make([]Predicate, 0, len(descriptors))
	for _, d := range descriptors {
		attr, ok := schema.Lookup(d.Field)
		if !ok {
			return nil, &UnknownFieldError{Model: schema.Model(), Field: d.Field}
		}
		build, ok := builders[d.Operator]
		if !ok {
			return nil, &UnsupportedOperatorError{Field: d.Field, Operator: string(d.Operator)}
		}
		cond, err := build(attr, d)
		if err != nil {
			return nil, &ValidationError{Field: d.Field, Operator: string(d.Operator), Reason: err.Error()}
		}
		terms = append(terms, cond)
	}

	if useOr {
		return Or(terms...), nil
	}
	return And(terms...), nil
}

// PatternText devuelve el texto de patrón de un valor. Los valores que la
// coerción convirtió en fechas recuperan su forma textual.
func PatternText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(DateLayout)
		}
		return x.Format(TimestampLayout)
	}
	return fmt.Sprint(v)
}

// ---------------- Orden y consulta ----------------

// Order indica el atributo de ordenación y la dirección.
type Order struct {
	Attribute Attribute
	Desc      bool
}

// ResolveOrder devuelve nil si el campo está vacío o no existe en el
// esquema: un orden desconocido se ignora sin error.
func ResolveOrder(schema Schema, field string, desc bool) *Order {
	if field == "" {
		return nil
	}
	attr, ok := schema.Lookup(field)
	if !ok {
		return nil
	}
	return &Order{Attribute: attr, Desc: desc}
}

// Query es lo que el motor entrega al puerto de acceso a datos.
// Limit 0 significa sin límite.
type Query struct {
	Where  Predicate
	Order  *Order
	Limit  int
	Offset int
}
