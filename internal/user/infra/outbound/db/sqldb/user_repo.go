package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/davicafu/hexafilter/internal/infra/db/sqldb"
	userDomain "github.com/davicafu/hexafilter/internal/user/domain"
	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/davicafu/hexafilter/shared/platform/persistence/sqlfilter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// UserRepoSQL implementa UserRepository sobre SQLite o Postgres.
type UserRepoSQL struct {
	db      *sqlx.DB
	dialect sqlfilter.Dialect
}

func NewUserRepoSQL(db *sqlx.DB) *UserRepoSQL {
	return &UserRepoSQL{db: db, dialect: sqldb.Dialect(db)}
}

var usersTable = sqlfilter.Table{
	Name:    "users",
	Columns: "id, first_name, last_name, email, is_admin, login_times, created_at, updated_at",
}

type userRow struct {
	ID         uuid.UUID     `db:"id"`
	FirstName  string        `db:"first_name"`
	LastName   string        `db:"last_name"`
	Email      string        `db:"email"`
	IsAdmin    bool          `db:"is_admin"`
	LoginTimes sql.NullInt64 `db:"login_times"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}

// ------------------ Métodos ------------------

// Create inserta usuario y evento en transacción
func (r *UserRepoSQL) Create(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	return sqldb.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO users (id, first_name, last_name, email, is_admin, login_times, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			u.ID, u.FirstName, u.LastName, u.Email, u.IsAdmin, loginTimes(u), u.CreatedAt, u.UpdatedAt,
		)
		if sqldb.IsUniqueViolation(err) {
			return userDomain.ErrUserAlreadyExists
		}
		if err != nil {
			return err
		}
		return sqldb.InsertOutboxTx(ctx, tx, evt)
	})
}

// Update actualiza usuario y crea evento Outbox en transacción
func (r *UserRepoSQL) Update(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	return sqldb.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE users SET first_name = ?, last_name = ?, email = ?, is_admin = ?, login_times = ?, updated_at = ?
			 WHERE id = ?`),
			u.FirstName, u.LastName, u.Email, u.IsAdmin, loginTimes(u), u.UpdatedAt, u.ID,
		)
		if sqldb.IsUniqueViolation(err) {
			return userDomain.ErrUserAlreadyExists
		}
		if err != nil {
			return err
		}
		if err := sqldb.CheckAffected(res, userDomain.ErrUserNotFound); err != nil {
			return err
		}
		return sqldb.InsertOutboxTx(ctx, tx, evt)
	})
}

// DeleteByID borra usuario y crea evento Outbox en transacción
func (r *UserRepoSQL) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return sqldb.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id)
		if err != nil {
			return err
		}
		if err := sqldb.CheckAffected(res, userDomain.ErrUserNotFound); err != nil {
			return err
		}
		return sqldb.InsertOutboxTx(ctx, tx, evt)
	})
}

func (r *UserRepoSQL) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+usersTable.Columns+` FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, userDomain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// Fetch delega en sqlfilter la traducción del predicado y la paginación.
func (r *UserRepoSQL) Fetch(ctx context.Context, q filter.Query) ([]*userDomain.User, int, error) {
	rows, total, err := sqlfilter.Select[userRow](ctx, r.db, r.dialect, usersTable, q)
	if err != nil {
		return nil, 0, err
	}
	users := make([]*userDomain.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toDomain())
	}
	return users, total, nil
}

// ------------------ Mapeo ------------------

func loginTimes(u *userDomain.User) sql.NullInt64 {
	if u.LoginTimes == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*u.LoginTimes), Valid: true}
}

func (row userRow) toDomain() *userDomain.User {
	u := &userDomain.User{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		IsAdmin:   row.IsAdmin,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if row.LoginTimes.Valid {
		v := int(row.LoginTimes.Int64)
		u.LoginTimes = &v
	}
	return u
}

// Verificación en tiempo de compilación.
var _ userDomain.UserRepository = (*UserRepoSQL)(nil)
