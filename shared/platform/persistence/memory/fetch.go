package memory

import (
	"sort"

	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/davicafu/hexafilter/shared/platform/query"
)

// Fetch evalúa una Query sobre una colección en memoria con la misma
// semántica que los adaptadores SQL: filtra, cuenta, ordena y pagina.
// No modifica items.
func Fetch[T any](items []T, q filter.Query, field filter.FieldFunc[T]) ([]T, int) {
	matched := make([]T, 0, len(items))
	for _, it := range items {
		if filter.Match(q.Where, it, field) {
			matched = append(matched, it)
		}
	}

	if q.Order != nil {
		col, desc := q.Order.Attribute.Column, q.Order.Desc
		sort.SliceStable(matched, func(i, j int) bool {
			return filter.Less(field(matched[i], col), field(matched[j], col), desc)
		})
	}

	return query.Slice(matched, q.Limit, q.Offset), len(matched)
}
