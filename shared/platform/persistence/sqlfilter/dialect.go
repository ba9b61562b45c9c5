package sqlfilter

import "fmt"

// Dialect recoge las diferencias de sintaxis entre motores SQL.
// Los placeholders siempre se generan como '?': sqlx los reescribe con Rebind.
type Dialect interface {
	Name() string
	// CastText convierte una columna a texto para búsquedas por patrón.
	CastText(column string) string
	// NullsOrder devuelve el sufijo que coloca los nulos primero en
	// ascendente y últimos en descendente.
	NullsOrder(desc bool) string
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string                  { return "sqlite" }
func (sqliteDialect) CastText(column string) string { return fmt.Sprintf("CAST(%s AS TEXT)", column) }
func (sqliteDialect) NullsOrder(desc bool) string   { return nullsClause(desc) }

type postgresDialect struct{}

func (postgresDialect) Name() string                  { return "postgres" }
func (postgresDialect) CastText(column string) string { return fmt.Sprintf("CAST(%s AS VARCHAR)", column) }
func (postgresDialect) NullsOrder(desc bool) string   { return nullsClause(desc) }

type clickhouseDialect struct{}

func (clickhouseDialect) Name() string                  { return "clickhouse" }
func (clickhouseDialect) CastText(column string) string { return fmt.Sprintf("toString(%s)", column) }
func (clickhouseDialect) NullsOrder(desc bool) string   { return nullsClause(desc) }

func nullsClause(desc bool) string {
	if desc {
		return "NULLS LAST"
	}
	return "NULLS FIRST"
}

var (
	SQLite     Dialect = sqliteDialect{}
	Postgres   Dialect = postgresDialect{}
	ClickHouse Dialect = clickhouseDialect{}
)

// DialectFor resuelve el dialecto a partir del nombre del driver.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "pgx":
		return Postgres, nil
	case "clickhouse":
		return ClickHouse, nil
	}
	return nil, fmt.Errorf("unsupported sql driver %q", driver)
}
