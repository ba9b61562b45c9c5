package sqldb

import (
	"context"
	"errors"
	"testing"
	"time"

	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSchema(context.Background(), db))
	return db
}

func TestOutboxRepo_InsertFetchMark(t *testing.T) {
	// Arrange
	db := setupDB(t)
	repo := NewOutboxRepo(db)
	ctx := context.Background()

	first := sharedDomain.NewOutboxEvent("user", uuid.NewString(), "user.created", map[string]string{"email": "a@b.c"})
	second := sharedDomain.NewOutboxEvent("todo", uuid.NewString(), "todo.created", map[string]string{"title": "x"})
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	require.NoError(t, WithTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := InsertOutboxTx(ctx, tx, first); err != nil {
			return err
		}
		return InsertOutboxTx(ctx, tx, second)
	}))

	// Act
	pending, err := repo.FetchPendingOutbox(ctx, 10)

	// Assert
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, "user.created", pending[0].EventType)
	assert.Equal(t, map[string]interface{}{"email": "a@b.c"}, pending[0].Payload)

	require.NoError(t, repo.MarkOutboxProcessed(ctx, first.ID))
	pending, err = repo.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
}

func TestOutboxRepo_MarkUnknown(t *testing.T) {
	repo := NewOutboxRepo(setupDB(t))

	err := repo.MarkOutboxProcessed(context.Background(), uuid.New())

	assert.Error(t, err)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := InsertOutboxTx(ctx, tx, sharedDomain.NewOutboxEvent("user", "1", "user.created", nil)); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	pending, err := NewOutboxRepo(db).FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	insert := `INSERT INTO todos (id, title, priority, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	now := time.Now().UTC()

	_, err := db.ExecContext(ctx, insert, "1", "a", "LOW", now, now)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "1", "b", "LOW", now, now)

	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}
