package domain

import (
	"context"
	"errors"
	"fmt"

	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/google/uuid"
)

var (
	ErrTodoNotFound      = errors.New("todo not found")
	ErrTodoAlreadyExists = errors.New("todo already exists")
	ErrInvalidTodo       = errors.New("invalid todo")
)

// --- Repositorio de Todos ---
type TodoRepository interface {
	Create(ctx context.Context, t *Todo, evt sharedDomain.OutboxEvent) error
	Update(ctx context.Context, t *Todo, evt sharedDomain.OutboxEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Todo, error)
	DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error
	filter.Fetcher[*Todo]
}

func TodoCacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("todo:id:%s", id.String())
}
