package sqlfilter

import (
	"context"
	"fmt"

	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/jmoiron/sqlx"
)

// Table describe la tabla sobre la que se ejecuta una consulta filtrada.
type Table struct {
	Name    string
	Columns string
}

// Select cuenta las filas que cumplen q.Where y devuelve la página pedida.
// R es el tipo de fila con etiquetas `db`.
func Select[R any](ctx context.Context, db *sqlx.DB, d Dialect, t Table, q filter.Query) ([]R, int, error) {
	where, args, err := Build(d, q.Where)
	if err != nil {
		return nil, 0, err
	}
	if where != "" {
		where = " WHERE " + where
	}

	var total int
	countSQL := db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s%s", t.Name, where))
	if err := db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, 0, err
	}

	pageSQL := fmt.Sprintf("SELECT %s FROM %s%s%s", t.Columns, t.Name, where, OrderBy(d, q.Order))
	pageArgs := append([]any{}, args...)
	if q.Limit > 0 {
		pageSQL += " LIMIT ? OFFSET ?"
		pageArgs = append(pageArgs, q.Limit, q.Offset)
	}

	rows := []R{}
	if err := db.SelectContext(ctx, &rows, db.Rebind(pageSQL), pageArgs...); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
