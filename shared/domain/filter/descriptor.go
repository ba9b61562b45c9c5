package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Formatos aceptados al coercionar valores de texto a tipos temporales.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Descriptor es un filtro ya normalizado: campo en snake_case, operador
// canónico y valor compatible con la familia del operador.
// Raw conserva el valor sin coerción temporal; los atributos de texto se
// comparan contra él.
type Descriptor struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
	Raw      any      `json:"-"`
}

// ---------------- Parser ----------------

// ParseDescriptors decodifica el parámetro `filters`: un objeto JSON o una
// lista de objetos. Una cadena vacía equivale a "sin filtros".
func ParseDescriptors(raw string) ([]Descriptor, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &MalformedFilterError{Reason: err.Error()}
	}
	if dec.More() {
		return nil, &MalformedFilterError{Reason: "trailing data after filters"}
	}

	var objects []map[string]any
	switch v := doc.(type) {
	case map[string]any:
		objects = append(objects, v)
	case []any:
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, &MalformedFilterError{Reason: fmt.Sprintf("element %d is not an object", i)}
			}
			objects = append(objects, obj)
		}
	default:
		return nil, &MalformedFilterError{Reason: "expected an object or a list of objects"}
	}

	descriptors := make([]Descriptor, 0, len(objects))
	for _, obj := range objects {
		field, isString := obj["field"].(string)
		if obj["field"] != nil && !isString {
			return nil, &ValidationError{Reason: "field must be a string"}
		}
		op, isString := obj["operator"].(string)
		if obj["operator"] != nil && !isString {
			return nil, &UnsupportedOperatorError{Field: field, Operator: fmt.Sprint(obj["operator"])}
		}

		d, err := NewDescriptor(field, op, obj["value"])
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// NewDescriptor normaliza y valida un filtro individual.
func NewDescriptor(field, operator string, value any) (Descriptor, error) {
	field = ToSnake(strings.TrimSpace(field))
	if field == "" {
		return Descriptor{}, &ValidationError{Operator: operator, Reason: "field required"}
	}

	op, ok := ResolveOperator(operator)
	if !ok {
		return Descriptor{}, &UnsupportedOperatorError{Field: field, Operator: operator}
	}

	raw, err := normalizeValue(value, false)
	if err != nil {
		return Descriptor{}, &ValidationError{Field: field, Operator: operator, Reason: err.Error()}
	}
	coerced, _ := normalizeValue(value, true)

	d := Descriptor{Field: field, Operator: op, Value: coerced, Raw: raw}
	if err := d.validate(); err != nil {
		return Descriptor{}, &ValidationError{Field: field, Operator: operator, Reason: err.Error()}
	}
	return d, nil
}

// validate comprueba la forma del valor según la familia del operador.
func (d Descriptor) validate() error {
	switch d.Operator.Family() {
	case FamilyComparison:
		if d.Value == nil {
			return fmt.Errorf("value required")
		}
		if _, isList := d.Value.([]any); isList {
			return fmt.Errorf("value must be a scalar")
		}
		if d.Operator.IsRelational() && !isOrdered(d.Value) {
			return fmt.Errorf("comparison operator requires a number, a date or a datetime: got %T", d.Value)
		}
	case FamilyRange:
		list, isList := d.Value.([]any)
		if !isList {
			return fmt.Errorf("value must be a list")
		}
		if len(list) == 0 {
			return fmt.Errorf("value cannot be empty")
		}
		for _, item := range list {
			if item == nil {
				return fmt.Errorf("list cannot contain null")
			}
			if _, nested := item.([]any); nested {
				return fmt.Errorf("list elements must be scalars")
			}
		}
	case FamilyType:
		if d.Value != nil {
			return fmt.Errorf("value must be empty")
		}
	}
	return nil
}

// ---------------- Normalización ----------------

// ToSnake convierte camelCase a snake_case: inserta '_' antes de cada
// mayúscula que no esté al inicio y pasa todo a minúsculas. Es idempotente.
func ToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CoerceTemporal intenta interpretar un texto como fecha o marca de tiempo.
// Si no encaja devuelve el texto tal cual: no es un error.
func CoerceTemporal(s string) any {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t
	}
	return s
}

// normalizeValue unifica los tipos de valor: enteros a int64, decimales a
// float64, textos con coerción temporal (si coerce) y listas elemento a
// elemento.
func normalizeValue(v any, coerce bool) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			n, err := normalizeScalar(item, coerce)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case []string:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = text(item, coerce)
		}
		return out, nil
	case []int:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = int64(item)
		}
		return out, nil
	}
	return normalizeScalar(v, coerce)
}

func text(s string, coerce bool) any {
	if coerce {
		return CoerceTemporal(s)
	}
	return s
}

func normalizeScalar(v any, coerce bool) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return text(x, coerce), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", x.String())
		}
		return f, nil
	case bool, int64, float64, time.Time:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float32:
		return float64(x), nil
	case map[string]any:
		return nil, fmt.Errorf("value must be a scalar or a list of scalars")
	case []any:
		return x, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func isOrdered(v any) bool {
	switch v.(type) {
	case int64, float64, time.Time:
		return true
	}
	return false
}
