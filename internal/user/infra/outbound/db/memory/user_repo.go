package memory

import (
	"context"
	"sync"

	userDomain "github.com/davicafu/hexafilter/internal/user/domain"
	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	sharedMemory "github.com/davicafu/hexafilter/shared/platform/persistence/memory"
	"github.com/google/uuid"
)

// UserRepoMemory guarda usuarios en un mapa. Devuelve copias para que los
// llamadores no modifiquen el estado interno.
type UserRepoMemory struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*userDomain.User
	order  []uuid.UUID
	outbox *sharedMemory.Outbox
}

func NewUserRepoMemory(outbox *sharedMemory.Outbox) *UserRepoMemory {
	if outbox == nil {
		outbox = sharedMemory.NewOutbox()
	}
	return &UserRepoMemory{users: map[uuid.UUID]*userDomain.User{}, outbox: outbox}
}

func clone(u *userDomain.User) *userDomain.User {
	c := *u
	if u.LoginTimes != nil {
		v := *u.LoginTimes
		c.LoginTimes = &v
	}
	return &c
}

func (r *UserRepoMemory) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range r.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (r *UserRepoMemory) Create(_ context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; ok || r.emailTaken(u.Email, u.ID) {
		return userDomain.ErrUserAlreadyExists
	}
	r.users[u.ID] = clone(u)
	r.order = append(r.order, u.ID)
	r.outbox.Add(evt)
	return nil
}

func (r *UserRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, userDomain.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *UserRepoMemory) Update(_ context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; !ok {
		return userDomain.ErrUserNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return userDomain.ErrUserAlreadyExists
	}
	r.users[u.ID] = clone(u)
	r.outbox.Add(evt)
	return nil
}

func (r *UserRepoMemory) DeleteByID(_ context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return userDomain.ErrUserNotFound
	}
	delete(r.users, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.outbox.Add(evt)
	return nil
}

// Fetch evalúa la consulta en memoria, en orden de inserción cuando no hay orden.
func (r *UserRepoMemory) Fetch(_ context.Context, q filter.Query) ([]*userDomain.User, int, error) {
	r.mu.RLock()
	all := make([]*userDomain.User, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, clone(r.users[id]))
	}
	r.mu.RUnlock()

	page, total := sharedMemory.Fetch(all, q, userDomain.Field)
	return page, total, nil
}

// Verificación en tiempo de compilación.
var _ userDomain.UserRepository = (*UserRepoMemory)(nil)
