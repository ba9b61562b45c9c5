package application

import (
	"context"
	"errors"
	"time"

	"github.com/davicafu/hexafilter/internal/user/domain"
	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	sharedCache "github.com/davicafu/hexafilter/shared/platform/cache"
	"github.com/davicafu/hexafilter/shared/platform/query"
	"github.com/davicafu/hexafilter/shared/platform/querylog"
	"github.com/davicafu/hexafilter/shared/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	getAttempts = 3
	getDelay    = 100 * time.Millisecond
)

// CreateUserInput son los datos de alta de un usuario.
type CreateUserInput struct {
	FirstName  string
	LastName   string
	Email      string
	IsAdmin    bool
	LoginTimes *int
}

// UpdateUserInput es un parche: sólo se aplican los campos no nulos.
// ClearLoginTimes deja login_times a null.
type UpdateUserInput struct {
	FirstName       *string
	LastName        *string
	Email           *string
	IsAdmin         *bool
	LoginTimes      *int
	ClearLoginTimes bool
}

// UserService define los casos de uso relacionados con User.
type UserService struct {
	repo    domain.UserRepository
	cache   sharedCache.Cache
	engine  *filter.Engine[*domain.User]
	queries querylog.Tracker
	log     *zap.Logger
}

// NewUserService constructor. cache y queries son opcionales.
func NewUserService(repo domain.UserRepository, cache sharedCache.Cache, queries querylog.Tracker, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{
		repo:    repo,
		cache:   cache,
		engine:  filter.NewEngine[*domain.User](domain.Schema, repo, log),
		queries: queries,
		log:     log,
	}
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	user, err := domain.NewUser(in.FirstName, in.LastName, in.Email, in.IsAdmin, in.LoginTimes)
	if err != nil {
		return nil, err
	}

	evt := sharedDomain.NewOutboxEvent(domain.AggregateType, user.ID.String(), domain.UserCreated, user)
	if err := s.repo.Create(ctx, user, evt); err != nil {
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, domain.CacheKeyByID(user.ID), user, 0, s.log)
	s.log.Info("Usuario creado", zap.String("user_id", user.ID.String()))
	return user, nil
}

// UpdateUser aplica el parche sobre el estado persistido, no sobre la caché.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.IsAdmin != nil {
		user.IsAdmin = *in.IsAdmin
	}
	if in.LoginTimes != nil {
		user.LoginTimes = in.LoginTimes
	}
	if in.ClearLoginTimes {
		user.LoginTimes = nil
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	user.UpdatedAt = time.Now().UTC()

	evt := sharedDomain.NewOutboxEvent(domain.AggregateType, user.ID.String(), domain.UserUpdated, user)
	if err := s.repo.Update(ctx, user, evt); err != nil {
		return nil, err
	}

	sharedCache.Invalidate(ctx, s.cache, domain.CacheKeyByID(user.ID), s.log)
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.NewOutboxEvent(domain.AggregateType, id.String(), domain.UserDeleted, domain.UserRef{ID: id})
	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		return err
	}

	sharedCache.Invalidate(ctx, s.cache, domain.CacheKeyByID(id), s.log)
	return nil
}

// GetUser obtiene un usuario (primero intenta desde cache).
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	// 1. Intentar cache
	if s.cache != nil {
		var u domain.User
		ok, err := s.cache.Get(ctx, domain.CacheKeyByID(id), &u)
		if err != nil {
			s.log.Warn("Cache read failed", zap.String("user_id", id.String()), zap.Error(err))
		}
		if ok {
			return &u, nil
		}
	}

	// 2. Ir al repo con reintentos; "no encontrado" no se reintenta
	var user *domain.User
	err := utils.Retry(ctx, getAttempts, getDelay, func() error {
		var err error
		user, err = s.repo.GetByID(ctx, id)
		return err
	}, func(err error) bool { return errors.Is(err, domain.ErrUserNotFound) })
	if err != nil {
		return nil, err
	}

	// 3. Actualizar cache en background sin bloquear la respuesta
	sharedCache.AsyncCacheSet(s.cache, domain.CacheKeyByID(user.ID), user, 0, s.log)
	return user, nil
}

// EvictUser borra la entrada de caché de un usuario.
func (s *UserService) EvictUser(ctx context.Context, id uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, domain.CacheKeyByID(id))
}

// ListUsers aplica los filtros de cliente (JSON en rawFilters), el orden y
// la paginación. Cada búsqueda queda registrada en el query log.
func (s *UserService) ListUsers(ctx context.Context, rawFilters string, req query.PageRequest) (query.Page[*domain.User], error) {
	start := time.Now()
	page, err := s.engine.Find(ctx, rawFilters, req)
	if s.queries != nil {
		s.queries.Record(querylog.NewEntry(domain.Schema.Model(), rawFilters, req, page.Total, time.Since(start), err))
	}
	return page, err
}
