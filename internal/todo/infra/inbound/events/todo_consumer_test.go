package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	todoDomain "github.com/davicafu/hexafilter/internal/todo/domain"
	sharedEvents "github.com/davicafu/hexafilter/shared/events"
)

type evictions []uuid.UUID

func (e *evictions) EvictTodo(_ context.Context, id uuid.UUID) error {
	*e = append(*e, id)
	return nil
}

func message(t *testing.T, eventType string, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	out, err := json.Marshal(sharedEvents.IntegrationEvent{Type: eventType, Data: raw})
	require.NoError(t, err)
	return out
}

func TestTodoConsumer(t *testing.T) {
	var got evictions
	consumer := NewTodoConsumer(&got, zap.NewNop())
	ctx := context.Background()
	updated, deleted := uuid.New(), uuid.New()

	consumer.HandleMessage(ctx, "", message(t, todoDomain.TodoCreated, todoDomain.Todo{ID: uuid.New()}))
	consumer.HandleMessage(ctx, "", message(t, todoDomain.TodoUpdated, todoDomain.Todo{ID: updated}))
	consumer.HandleMessage(ctx, "", message(t, todoDomain.TodoDeleted, todoDomain.TodoRef{ID: deleted}))
	consumer.HandleMessage(ctx, "", message(t, todoDomain.TodoDeleted, 42))
	consumer.HandleMessage(ctx, "", []byte("{"))

	assert.Equal(t, evictions{updated, deleted}, got)
}
