package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/davicafu/hexafilter/internal/infra/db/sqldb"
	todoDomain "github.com/davicafu/hexafilter/internal/todo/domain"
	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/davicafu/hexafilter/shared/platform/persistence/sqlfilter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TodoRepoSQL implementa TodoRepository sobre SQLite o Postgres.
type TodoRepoSQL struct {
	db      *sqlx.DB
	dialect sqlfilter.Dialect
}

func NewTodoRepoSQL(db *sqlx.DB) *TodoRepoSQL {
	return &TodoRepoSQL{db: db, dialect: sqldb.Dialect(db)}
}

var todosTable = sqlfilter.Table{
	Name:    "todos",
	Columns: "id, title, description, priority, created_at, updated_at",
}

type todoRow struct {
	ID          uuid.UUID      `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Priority    string         `db:"priority"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *TodoRepoSQL) Create(ctx context.Context, t *todoDomain.Todo, evt sharedDomain.OutboxEvent) error {
	return sqldb.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO todos (id, title, description, priority, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`),
			t.ID, t.Title, description(t), string(t.Priority), t.CreatedAt, t.UpdatedAt,
		)
		if sqldb.IsUniqueViolation(err) {
			return todoDomain.ErrTodoAlreadyExists
		}
		if err != nil {
			return err
		}
		return sqldb.InsertOutboxTx(ctx, tx, evt)
	})
}

func (r *TodoRepoSQL) Update(ctx context.Context, t *todoDomain.Todo, evt sharedDomain.OutboxEvent) error {
	return sqldb.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE todos SET title = ?, description = ?, priority = ?, updated_at = ? WHERE id = ?`),
			t.Title, description(t), string(t.Priority), t.UpdatedAt, t.ID,
		)
		if err != nil {
			return err
		}
		if err := sqldb.CheckAffected(res, todoDomain.ErrTodoNotFound); err != nil {
			return err
		}
		return sqldb.InsertOutboxTx(ctx, tx, evt)
	})
}

func (r *TodoRepoSQL) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return sqldb.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM todos WHERE id = ?`), id)
		if err != nil {
			return err
		}
		if err := sqldb.CheckAffected(res, todoDomain.ErrTodoNotFound); err != nil {
			return err
		}
		return sqldb.InsertOutboxTx(ctx, tx, evt)
	})
}

func (r *TodoRepoSQL) GetByID(ctx context.Context, id uuid.UUID) (*todoDomain.Todo, error) {
	var row todoRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+todosTable.Columns+` FROM todos WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, todoDomain.ErrTodoNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *TodoRepoSQL) Fetch(ctx context.Context, q filter.Query) ([]*todoDomain.Todo, int, error) {
	rows, total, err := sqlfilter.Select[todoRow](ctx, r.db, r.dialect, todosTable, q)
	if err != nil {
		return nil, 0, err
	}
	todos := make([]*todoDomain.Todo, 0, len(rows))
	for i := range rows {
		todos = append(todos, rows[i].toDomain())
	}
	return todos, total, nil
}

func description(t *todoDomain.Todo) sql.NullString {
	if t.Description == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *t.Description, Valid: true}
}

func (row todoRow) toDomain() *todoDomain.Todo {
	t := &todoDomain.Todo{
		ID:        row.ID,
		Title:     row.Title,
		Priority:  todoDomain.Priority(row.Priority),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if row.Description.Valid {
		d := row.Description.String
		t.Description = &d
	}
	return t
}

var _ todoDomain.TodoRepository = (*TodoRepoSQL)(nil)
