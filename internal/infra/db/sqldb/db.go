package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/davicafu/hexafilter/shared/platform/persistence/sqlfilter"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL
	"github.com/jmoiron/sqlx"
	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"
)

// Open abre una conexión para "sqlite" o "postgres". Las bases SQLite en
// memoria se limitan a una conexión: cada conexión vería una base distinta.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite":
		db, err := sqlx.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		if strings.Contains(dsn, ":memory:") {
			db.SetMaxOpenConns(1)
		}
		return db, nil
	case "postgres":
		return sqlx.Open("pgx", dsn)
	}
	return nil, fmt.Errorf("unsupported sql driver %q", driver)
}

// Dialect devuelve el dialecto de filtros que corresponde a la conexión.
func Dialect(db *sqlx.DB) sqlfilter.Dialect {
	d, err := sqlfilter.DialectFor(db.DriverName())
	if err != nil {
		return sqlfilter.SQLite
	}
	return d
}

// ------------------ Inicialización de DB ------------------

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT 0,
		login_times INTEGER NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS todos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NULL,
		priority TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		processed BOOLEAN NOT NULL DEFAULT 0
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		first_name VARCHAR(255) NOT NULL,
		last_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT false,
		login_times INTEGER NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS todos (
		id UUID PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NULL,
		priority VARCHAR(16) NOT NULL CHECK (priority IN ('LOW', 'MEDIUM', 'HIGH')),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id UUID PRIMARY KEY,
		aggregate_type VARCHAR(64) NOT NULL,
		aggregate_id VARCHAR(64) NOT NULL,
		event_type VARCHAR(128) NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		processed BOOLEAN NOT NULL DEFAULT false
	)`,
}

// InitSchema crea las tablas users, todos y outbox si no existen.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	stmts := sqliteSchema
	if db.DriverName() == "pgx" {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// WithTx ejecuta fn dentro de una transacción; hace rollback si fn falla.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// IsUniqueViolation detecta la violación de una restricción UNIQUE en
// SQLite o Postgres.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CheckAffected devuelve notFound si la sentencia no tocó ninguna fila.
func CheckAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
