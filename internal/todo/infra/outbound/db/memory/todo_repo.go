package memory

import (
	"context"
	"sync"

	todoDomain "github.com/davicafu/hexafilter/internal/todo/domain"
	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	sharedMemory "github.com/davicafu/hexafilter/shared/platform/persistence/memory"
	"github.com/google/uuid"
)

// TodoRepoMemory guarda todos en un mapa y los lista en orden de inserción.
type TodoRepoMemory struct {
	mu     sync.RWMutex
	todos  map[uuid.UUID]*todoDomain.Todo
	order  []uuid.UUID
	outbox *sharedMemory.Outbox
}

func NewTodoRepoMemory(outbox *sharedMemory.Outbox) *TodoRepoMemory {
	if outbox == nil {
		outbox = sharedMemory.NewOutbox()
	}
	return &TodoRepoMemory{todos: map[uuid.UUID]*todoDomain.Todo{}, outbox: outbox}
}

func clone(t *todoDomain.Todo) *todoDomain.Todo {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	return &c
}

func (r *TodoRepoMemory) Create(_ context.Context, t *todoDomain.Todo, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.todos[t.ID]; ok {
		return todoDomain.ErrTodoAlreadyExists
	}
	r.todos[t.ID] = clone(t)
	r.order = append(r.order, t.ID)
	r.outbox.Add(evt)
	return nil
}

func (r *TodoRepoMemory) Update(_ context.Context, t *todoDomain.Todo, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.todos[t.ID]; !ok {
		return todoDomain.ErrTodoNotFound
	}
	r.todos[t.ID] = clone(t)
	r.outbox.Add(evt)
	return nil
}

func (r *TodoRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*todoDomain.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.todos[id]
	if !ok {
		return nil, todoDomain.ErrTodoNotFound
	}
	return clone(t), nil
}

func (r *TodoRepoMemory) DeleteByID(_ context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.todos[id]; !ok {
		return todoDomain.ErrTodoNotFound
	}
	delete(r.todos, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.outbox.Add(evt)
	return nil
}

func (r *TodoRepoMemory) Fetch(_ context.Context, q filter.Query) ([]*todoDomain.Todo, int, error) {
	r.mu.RLock()
	all := make([]*todoDomain.Todo, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, clone(r.todos[id]))
	}
	r.mu.RUnlock()

	page, total := sharedMemory.Fetch(all, q, todoDomain.Field)
	return page, total, nil
}

var _ todoDomain.TodoRepository = (*TodoRepoMemory)(nil)
