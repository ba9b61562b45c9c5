package sqlfilter

import (
	"fmt"
	"strings"

	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/jmoiron/sqlx"
)

// Build traduce un predicado a una cláusula WHERE (sin la palabra clave) y
// sus argumentos. Un predicado vacío devuelve "".
//
// Las listas de in/not_in se expanden con sqlx.In.
func Build(d Dialect, p filter.Predicate) (string, []any, error) {
	if filter.IsEmpty(p) {
		return "", nil, nil
	}
	where, args, err := build(d, p)
	if err != nil {
		return "", nil, err
	}
	return sqlx.In(where, args...)
}

func build(d Dialect, p filter.Predicate) (string, []any, error) {
	switch x := p.(type) {
	case filter.Group:
		if len(x.Terms) == 0 {
			return "1=1", nil, nil
		}
		clauses := make([]string, 0, len(x.Terms))
		var args []any
		for _, t := range x.Terms {
			c, a, err := build(d, t)
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, c)
			args = append(args, a...)
		}
		if len(clauses) == 1 {
			return clauses[0], args, nil
		}
		return "(" + strings.Join(clauses, " "+string(x.Logic)+" ") + ")", args, nil
	case filter.Condition:
		return condition(d, x)
	}
	return "", nil, fmt.Errorf("unsupported predicate %T", p)
}

func condition(d Dialect, c filter.Condition) (string, []any, error) {
	col := c.Attribute.Column
	switch c.Operator {
	case filter.OpEq, filter.OpGt, filter.OpGte, filter.OpLt, filter.OpLte:
		return fmt.Sprintf("%s %s ?", col, c.Operator), []any{c.Value}, nil
	case filter.OpNe:
		return fmt.Sprintf("%s <> ?", col), []any{c.Value}, nil
	case filter.OpContains:
		if c.CastText {
			col = d.CastText(col)
		}
		return fmt.Sprintf("%s LIKE ?", col), []any{c.Value}, nil
	case filter.OpIn:
		return fmt.Sprintf("%s IN (?)", col), []any{c.Value}, nil
	case filter.OpNotIn:
		return fmt.Sprintf("%s NOT IN (?)", col), []any{c.Value}, nil
	case filter.OpIsNull:
		return col + " IS NULL", nil, nil
	case filter.OpIsNotNull:
		return col + " IS NOT NULL", nil, nil
	case filter.OpIsEmpty, filter.OpIsNotEmpty:
		if c.CastText {
			col = d.CastText(col)
		}
		if c.Operator == filter.OpIsEmpty {
			return col + " = ''", nil, nil
		}
		return col + " <> ''", nil, nil
	case filter.OpIsTrue:
		return col + " = ?", []any{true}, nil
	case filter.OpIsFalse:
		return col + " = ?", []any{false}, nil
	}
	return "", nil, fmt.Errorf("operator %q not supported by sql adapter", c.Operator)
}

// OrderBy devuelve la cláusula ORDER BY (con la palabra clave) o "".
func OrderBy(d Dialect, o *filter.Order) string {
	if o == nil {
		return ""
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s %s", o.Attribute.Column, dir, d.NullsOrder(o.Desc))
}
