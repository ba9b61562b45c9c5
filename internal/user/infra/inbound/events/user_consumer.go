package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	userDomain "github.com/davicafu/hexafilter/internal/user/domain"
	sharedEvents "github.com/davicafu/hexafilter/shared/events"
	sharedUtils "github.com/davicafu/hexafilter/shared/utils"
)

// UserCacheEvicter es lo que el consumidor necesita del servicio.
type UserCacheEvicter interface {
	EvictUser(ctx context.Context, id uuid.UUID) error
}

// UserConsumer invalida la caché de usuarios a partir de los eventos del
// topic "user". Así las réplicas que no hicieron la escritura no sirven
// datos viejos.
type UserConsumer struct {
	service UserCacheEvicter
	log     *zap.Logger
}

func NewUserConsumer(service UserCacheEvicter, logger *zap.Logger) *UserConsumer {
	return &UserConsumer{
		service: service,
		log:     logger,
	}
}

func (c *UserConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case userDomain.UserCreated:
		c.log.Debug("Usuario creado", zap.String("key", key))

	case userDomain.UserUpdated:
		sharedUtils.UnmarshalAndHandle[userDomain.User](c.log, base.Data, func(evt userDomain.User) {
			c.evict(ctx, evt.ID, base.Type)
		})

	case userDomain.UserDeleted:
		sharedUtils.UnmarshalAndHandle[userDomain.UserRef](c.log, base.Data, func(evt userDomain.UserRef) {
			c.evict(ctx, evt.ID, base.Type)
		})

	default:
		c.log.Warn("Unknown event type", zap.String("type", base.Type))
	}
}

// evict ejecuta la invalidación con un contexto limitado.
func (c *UserConsumer) evict(ctx context.Context, id uuid.UUID, eventType string) {
	ctxUser, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	if err := c.service.EvictUser(ctxUser, id); err != nil {
		c.log.Warn("Failed to evict user from cache",
			zap.String("user_id", id.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	c.log.Debug("Cache de usuario invalidada", zap.String("user_id", id.String()), zap.String("event_type", eventType))
}
