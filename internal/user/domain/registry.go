package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/hexafilter/shared/events"
	"github.com/google/uuid"
)

// Las constantes de los tipos de evento se definen aquí, como valores string.
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

const (
	UserTopic     = "user"
	AggregateType = "user"
)

// UserRef es el payload de user.deleted.
type UserRef struct {
	ID uuid.UUID `json:"id"`
}

func NewEventRegistry() sharedEvents.Registry {
	return sharedEvents.Registry{
		UserCreated: {
			Type:  reflect.TypeOf(User{}),
			Topic: UserTopic,
		},
		UserUpdated: {
			Type:  reflect.TypeOf(User{}),
			Topic: UserTopic,
		},
		UserDeleted: {
			Type:  reflect.TypeOf(UserRef{}),
			Topic: UserTopic,
		},
	}
}
