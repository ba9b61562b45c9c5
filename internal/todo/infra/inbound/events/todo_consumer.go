package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	todoDomain "github.com/davicafu/hexafilter/internal/todo/domain"
	sharedEvents "github.com/davicafu/hexafilter/shared/events"
	sharedUtils "github.com/davicafu/hexafilter/shared/utils"
)

type TodoCacheEvicter interface {
	EvictTodo(ctx context.Context, id uuid.UUID) error
}

// TodoConsumer invalida la caché de todos a partir de los eventos del topic "todo".
type TodoConsumer struct {
	service TodoCacheEvicter
	log     *zap.Logger
}

func NewTodoConsumer(service TodoCacheEvicter, log *zap.Logger) *TodoConsumer {
	return &TodoConsumer{service: service, log: log}
}

func (c *TodoConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return
	}

	var id uuid.UUID
	switch base.Type {
	case todoDomain.TodoCreated:
		return
	case todoDomain.TodoUpdated:
		if !sharedUtils.UnmarshalAndHandle[todoDomain.Todo](c.log, base.Data, func(t todoDomain.Todo) { id = t.ID }) {
			return
		}
	case todoDomain.TodoDeleted:
		if !sharedUtils.UnmarshalAndHandle[todoDomain.TodoRef](c.log, base.Data, func(r todoDomain.TodoRef) { id = r.ID }) {
			return
		}
	default:
		c.log.Warn("Unknown event type", zap.String("type", base.Type))
		return
	}

	ctxTodo, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := c.service.EvictTodo(ctxTodo, id); err != nil {
		c.log.Warn("Failed to evict todo from cache", zap.String("todo_id", id.String()), zap.Error(err))
	}
}
