package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/hexafilter/shared/events"
	"github.com/google/uuid"
)

const (
	TodoCreated = "todo.created"
	TodoUpdated = "todo.updated"
	TodoDeleted = "todo.deleted"
)

const (
	TodoTopic     = "todo"
	AggregateType = "todo"
)

// TodoRef es el payload de todo.deleted.
type TodoRef struct {
	ID uuid.UUID `json:"id"`
}

func NewEventRegistry() sharedEvents.Registry {
	return sharedEvents.Registry{
		TodoCreated: {Type: reflect.TypeOf(Todo{}), Topic: TodoTopic},
		TodoUpdated: {Type: reflect.TypeOf(Todo{}), Topic: TodoTopic},
		TodoDeleted: {Type: reflect.TypeOf(TodoRef{}), Topic: TodoTopic},
	}
}
