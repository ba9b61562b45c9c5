package application

import (
	"context"
	"errors"
	"time"

	todoDomain "github.com/davicafu/hexafilter/internal/todo/domain"
	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	sharedCache "github.com/davicafu/hexafilter/shared/platform/cache"
	"github.com/davicafu/hexafilter/shared/platform/query"
	"github.com/davicafu/hexafilter/shared/platform/querylog"
	sharedUtils "github.com/davicafu/hexafilter/shared/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TodoService define los casos de uso relacionados con Todo.
// Incorpora repositorio, caché, motor de filtros y logger.
type TodoService struct {
	repo    todoDomain.TodoRepository
	cache   sharedCache.Cache
	engine  *filter.Engine[*todoDomain.Todo]
	queries querylog.Tracker
	log     *zap.Logger
}

// NewTodoService es el constructor para el servicio de todos.
func NewTodoService(repo todoDomain.TodoRepository, cache sharedCache.Cache, queries querylog.Tracker, log *zap.Logger) *TodoService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TodoService{
		repo:    repo,
		cache:   cache,
		engine:  filter.NewEngine[*todoDomain.Todo](todoDomain.Schema, repo, log),
		queries: queries,
		log:     log,
	}
}

// CreateTodo crea un todo, su evento de outbox y actualiza la caché.
func (s *TodoService) CreateTodo(ctx context.Context, title string, description *string, priority todoDomain.Priority) (*todoDomain.Todo, error) {
	todo, err := todoDomain.NewTodo(title, description, priority)
	if err != nil {
		return nil, err
	}

	evt := sharedDomain.NewOutboxEvent(todoDomain.AggregateType, todo.ID.String(), todoDomain.TodoCreated, todo)
	if err := s.repo.Create(ctx, todo, evt); err != nil {
		s.log.Error("Failed to create todo", zap.Error(err))
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, todoDomain.TodoCacheKeyByID(todo.ID), todo, 0, s.log)
	return todo, nil
}

// GetTodo obtiene un todo, primero desde caché y luego desde el repositorio.
func (s *TodoService) GetTodo(ctx context.Context, id uuid.UUID) (*todoDomain.Todo, error) {
	if s.cache != nil {
		var cached todoDomain.Todo
		if ok, _ := s.cache.Get(ctx, todoDomain.TodoCacheKeyByID(id), &cached); ok {
			return &cached, nil
		}
	}

	var todo *todoDomain.Todo
	err := sharedUtils.Retry(ctx, 3, 100*time.Millisecond, func() error {
		var err error
		todo, err = s.repo.GetByID(ctx, id)
		return err
	}, func(err error) bool { return errors.Is(err, todoDomain.ErrTodoNotFound) })
	if err != nil {
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, todoDomain.TodoCacheKeyByID(todo.ID), todo, 0, s.log)
	return todo, nil
}

// UpdateTodo reemplaza título y descripción y, si viene, la prioridad.
func (s *TodoService) UpdateTodo(ctx context.Context, id uuid.UUID, title *string, description *string, priority *todoDomain.Priority) (*todoDomain.Todo, error) {
	todo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if title != nil {
		todo.Title = *title
	}
	if description != nil {
		todo.Description = description
	}
	if priority != nil {
		p, err := todoDomain.ParsePriority(string(*priority))
		if err != nil {
			return nil, err
		}
		todo.Reprioritize(p)
	}
	if err := todo.Validate(); err != nil {
		return nil, err
	}
	todo.UpdatedAt = time.Now().UTC()

	evt := sharedDomain.NewOutboxEvent(todoDomain.AggregateType, todo.ID.String(), todoDomain.TodoUpdated, todo)
	if err := s.repo.Update(ctx, todo, evt); err != nil {
		return nil, err
	}

	sharedCache.Invalidate(ctx, s.cache, todoDomain.TodoCacheKeyByID(todo.ID), s.log)
	return todo, nil
}

// DeleteTodo elimina un todo y lo invalida de la caché.
func (s *TodoService) DeleteTodo(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.NewOutboxEvent(todoDomain.AggregateType, id.String(), todoDomain.TodoDeleted, todoDomain.TodoRef{ID: id})
	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		return err
	}

	sharedCache.Invalidate(ctx, s.cache, todoDomain.TodoCacheKeyByID(id), s.log)
	return nil
}

// EvictTodo borra la entrada de caché de un todo.
func (s *TodoService) EvictTodo(ctx context.Context, id uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, todoDomain.TodoCacheKeyByID(id))
}

// ListTodos busca con los filtros de cliente y registra la consulta.
func (s *TodoService) ListTodos(ctx context.Context, rawFilters string, req query.PageRequest) (query.Page[*todoDomain.Todo], error) {
	start := time.Now()
	page, err := s.engine.Find(ctx, rawFilters, req)
	if s.queries != nil {
		s.queries.Record(querylog.NewEntry(todoDomain.Schema.Model(), rawFilters, req, page.Total, time.Since(start), err))
	}
	return page, err
}
