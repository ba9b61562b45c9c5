package domain

import (
	"context"
	"errors"
	"fmt"

	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidUser       = errors.New("invalid user")
)

// ---------- Interfaces (Ports) ----------

// UserRepository define las operaciones persistentes para User.
// Las escrituras guardan el evento de outbox en la misma transacción.
type UserRepository interface {
	// Debe devolver ErrUserAlreadyExists si el email ya está registrado.
	Create(ctx context.Context, u *User, evt sharedDomain.OutboxEvent) error

	// Debe devolver ErrUserNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Debe devolver ErrUserNotFound si el usuario no existe.
	Update(ctx context.Context, u *User, evt sharedDomain.OutboxEvent) error

	// Debe devolver ErrUserNotFound si el usuario no existe.
	DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error

	// Fetch aplica predicado, orden y paginación, y devuelve el total sin paginar.
	filter.Fetcher[*User]
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("user:id:%s", id.String())
}
