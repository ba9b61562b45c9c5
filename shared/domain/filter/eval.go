package filter

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
)

// ---------------- Evaluación en memoria ----------------
//
// Semántica de nulos: un valor nulo sólo satisface is_null. Cualquier otra
// comparación (incluidos in y not_in) es falsa, igual que en SQL.

// FieldFunc devuelve el valor de una columna para un elemento.
type FieldFunc[T any] func(item T, column string) any

// Match evalúa un predicado contra un elemento.
func Match[T any](p Predicate, item T, field FieldFunc[T]) bool {
	switch x := p.(type) {
	case nil:
		return true
	case Group:
		if len(x.Terms) == 0 {
			return true
		}
		if x.Logic == LogicOr {
			for _, t := range x.Terms {
				if Match(t, item, field) {
					return true
				}
			}
			return false
		}
		for _, t := range x.Terms {
			if !Match(t, item, field) {
				return false
			}
		}
		return true
	case Condition:
		return matchCondition(x, Normalize(field(item, x.Attribute.Column)))
	}
	return false
}

func matchCondition(c Condition, v any) bool {
	switch c.Operator {
	case OpIsNull:
		return v == nil
	case OpIsNotNull:
		return v != nil
	}
	if v == nil {
		return false
	}

	switch c.Operator {
	case OpEq:
		return equal(v, c.Value)
	case OpNe:
		return !equal(v, c.Value)
	case OpGt, OpGte, OpLt, OpLte:
		cmp, ok := Compare(v, c.Value)
		if !ok {
			return false
		}
		switch c.Operator {
		case OpGt:
			return cmp > 0
		case OpGte:
			return cmp >= 0
		case OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	case OpContains:
		if c.pattern != nil {
			return c.pattern.MatchString(PatternText(v))
		}
		return Like(PatternText(v), PatternText(c.Value))
	case OpIn, OpNotIn:
		list, _ := c.Value.([]any)
		found := false
		for _, item := range list {
			if equal(v, item) {
				found = true
				break
			}
		}
		return found == (c.Operator == OpIn)
	case OpIsEmpty:
		s, ok := v.(string)
		return ok && s == ""
	case OpIsNotEmpty:
		s, ok := v.(string)
		return !ok || s != ""
	case OpIsTrue:
		b, ok := v.(bool)
		return ok && b
	case OpIsFalse:
		b, ok := v.(bool)
		return ok && !b
	}
	return false
}

func equal(a, b any) bool {
	cmp, ok := Compare(a, b)
	return ok && cmp == 0
}

// Compare ordena dos valores normalizados del mismo tipo lógico.
// ok es false si no son comparables.
func Compare(a, b any) (int, bool) {
	a, b = Normalize(a), Normalize(b)
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return cmpOrdered(x, y), true
		case float64:
			return cmpOrdered(float64(x), y), true
		}
	case float64:
		switch y := b.(type) {
		case int64:
			return cmpOrdered(x, float64(y)), true
		case float64:
			return cmpOrdered(x, y), true
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			}
			return 1, true
		}
	}
	return 0, false
}

func cmpOrdered[N int64 | float64](x, y N) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// Less ordena con nulos primero en ascendente y últimos en descendente.
func Less(a, b any, desc bool) bool {
	a, b = Normalize(a), Normalize(b)
	if a == nil || b == nil {
		if a == nil && b == nil {
			return false
		}
		return (a == nil) != desc
	}
	cmp, ok := Compare(a, b)
	if !ok {
		return false
	}
	if desc {
		return cmp > 0
	}
	return cmp < 0
}

// Normalize reduce los valores de entidad a los tipos que maneja el motor:
// punteros desreferenciados, enteros a int64, decimales a float64 y tipos
// con base string (enumerados) a string.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int64, float64, string, bool, time.Time:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return v
}

// Like aplica la semántica de LIKE: '%' cualquier secuencia, '_' un
// carácter. Distingue mayúsculas.
func Like(s, pattern string) bool {
	return LikeRegexp(pattern).MatchString(s)
}

// LikeRegexp traduce un patrón LIKE a una expresión regular anclada.
func LikeRegexp(pattern string) *regexp.Regexp {
	return regexp.MustCompile(LikeToRegex(pattern))
}

// LikeToRegex devuelve la expresión regular equivalente a un patrón LIKE.
func LikeToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}
