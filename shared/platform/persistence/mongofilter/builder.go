package mongofilter

import (
	"fmt"

	"github.com/davicafu/hexafilter/shared/domain/filter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fields renombra columnas del esquema a campos del documento, p. ej.
// "id" -> "_id". Las columnas sin entrada conservan su nombre.
type Fields map[string]string

func (f Fields) name(column string) string {
	if n, ok := f[column]; ok {
		return n
	}
	return column
}

// Build traduce un predicado a un documento de filtro de MongoDB.
// Los nulos sólo coinciden con is_null, igual que en los adaptadores SQL.
func Build(p filter.Predicate) (bson.D, error) { return Fields(nil).Build(p) }

// Sort devuelve el documento de orden.
func Sort(o *filter.Order) bson.D { return Fields(nil).Sort(o) }

// Build traduce el predicado aplicando el renombrado de campos.
func (f Fields) Build(p filter.Predicate) (bson.D, error) {
	if filter.IsEmpty(p) {
		return bson.D{}, nil
	}
	switch x := p.(type) {
	case filter.Group:
		docs := make(bson.A, 0, len(x.Terms))
		for _, t := range x.Terms {
			d, err := f.Build(t)
			if err != nil {
				return nil, err
			}
			docs = append(docs, d)
		}
		key := "$and"
		if x.Logic == filter.LogicOr {
			key = "$or"
		}
		return bson.D{{Key: key, Value: docs}}, nil
	case filter.Condition:
		v, err := condition(x)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: f.name(x.Attribute.Column), Value: v}}, nil
	}
	return nil, fmt.Errorf("unsupported predicate %T", p)
}

func condition(c filter.Condition) (any, error) {
	switch c.Operator {
	case filter.OpEq:
		return bson.D{{Key: "$eq", Value: c.Value}}, nil
	case filter.OpNe:
		return bson.D{{Key: "$nin", Value: bson.A{c.Value, nil}}}, nil
	case filter.OpGt:
		return bson.D{{Key: "$gt", Value: c.Value}}, nil
	case filter.OpGte:
		return bson.D{{Key: "$gte", Value: c.Value}}, nil
	case filter.OpLt:
		return bson.D{{Key: "$lt", Value: c.Value}}, nil
	case filter.OpLte:
		return bson.D{{Key: "$lte", Value: c.Value}}, nil
	case filter.OpContains:
		pattern := filter.LikeToRegex(filter.PatternText(c.Value))
		return bson.D{{Key: "$regex", Value: primitive.Regex{Pattern: pattern}}}, nil
	case filter.OpIn:
		return bson.D{{Key: "$in", Value: list(c.Value)}}, nil
	case filter.OpNotIn:
		return bson.D{{Key: "$nin", Value: append(list(c.Value), nil)}}, nil
	case filter.OpIsNull:
		return nil, nil
	case filter.OpIsNotNull:
		return bson.D{{Key: "$ne", Value: nil}}, nil
	case filter.OpIsEmpty:
		return "", nil
	case filter.OpIsNotEmpty:
		return bson.D{{Key: "$nin", Value: bson.A{"", nil}}}, nil
	case filter.OpIsTrue:
		return true, nil
	case filter.OpIsFalse:
		return false, nil
	}
	return nil, fmt.Errorf("operator %q not supported by mongo adapter", c.Operator)
}

func list(v any) bson.A {
	items, _ := v.([]any)
	out := make(bson.A, 0, len(items)+1)
	return append(out, items...)
}

// Sort devuelve el documento de orden. MongoDB coloca los nulos primero en
// ascendente y últimos en descendente.
func (f Fields) Sort(o *filter.Order) bson.D {
	if o == nil {
		return nil
	}
	dir := 1
	if o.Desc {
		dir = -1
	}
	return bson.D{{Key: f.name(o.Attribute.Column), Value: dir}}
}
