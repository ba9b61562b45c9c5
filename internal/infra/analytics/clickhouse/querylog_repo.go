package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"

	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/davicafu/hexafilter/shared/platform/persistence/sqlfilter"
	"github.com/davicafu/hexafilter/shared/platform/querylog"
)

// QueryLogRepo implementa querylog.Store sobre ClickHouse.
type QueryLogRepo struct {
	db *sqlx.DB
}

// NewQueryLogRepo abre la conexión y comprueba que responde.
func NewQueryLogRepo(addr string, dbName string) (*QueryLogRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &QueryLogRepo{db: sqlx.NewDb(conn, "clickhouse")}, nil
}

var queryLogTable = sqlfilter.Table{
	Name:    "query_log",
	Columns: "id, model, filters, use_or, sort, is_desc, page, per_page, total, duration_ms, error, requested_at",
}

// LogBatch inserta un lote de entradas en una sola transacción.
func (r *QueryLogRepo) LogBatch(ctx context.Context, entries []querylog.Entry) error {
	// ClickHouse funciona mejor con inserciones en lotes.
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO query_log ("+queryLogTable.Columns+")")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.ID.String(), e.Model, e.Filters, e.UseOr, e.Sort, e.IsDesc,
			int64(e.Page), int64(e.PerPage), int64(e.Total), e.DurationMs, e.Error, e.RequestedAt,
		); err != nil {
			// Si un registro falla, se descarta el lote completo.
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for query log %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// Fetch consulta el registro con el mismo motor de filtros que las entidades.
func (r *QueryLogRepo) Fetch(ctx context.Context, q filter.Query) ([]querylog.Entry, int, error) {
	return sqlfilter.Select[querylog.Entry](ctx, r.db, sqlfilter.ClickHouse, queryLogTable, q)
}

// Stats agrega por modelo las búsquedas desde since.
func (r *QueryLogRepo) Stats(ctx context.Context, since time.Time) ([]querylog.ModelStats, error) {
	query := `
		SELECT
			model,
			count() AS queries,
			countIf(error != '') AS errors,
			avg(duration_ms) AS avg_duration_ms
		FROM query_log
		WHERE requested_at >= ?
		GROUP BY model
		ORDER BY model
	`
	stats := []querylog.ModelStats{}
	if err := r.db.SelectContext(ctx, &stats, query, since); err != nil {
		return nil, err
	}
	return stats, nil
}

// InitSchema crea la tabla en ClickHouse si no existe.
// Se particiona por mes y se ordena por modelo y fecha.
func (r *QueryLogRepo) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS query_log (
			id           String,
			model        LowCardinality(String),
			filters      String,
			use_or       Bool,
			sort         String,
			is_desc      Bool,
			page         Int64,
			per_page     Int64,
			total        Int64,
			duration_ms  Int64,
			error        String,
			requested_at DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(requested_at)
		ORDER BY (model, requested_at);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *QueryLogRepo) Close() error { return r.db.Close() }

// Verificación estática de la interfaz.
var _ querylog.Store = (*QueryLogRepo)(nil)
