package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/davicafu/hexafilter/shared/domain/filter"
	sharedBus "github.com/davicafu/hexafilter/shared/platform/bus"
	"github.com/google/uuid"
)

// User representa un usuario del sistema.
type User struct {
	ID         uuid.UUID `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	IsAdmin    bool      `json:"is_admin"`
	LoginTimes *int      `json:"login_times"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewUser valida los datos y crea un usuario con ID y fechas.
func NewUser(firstName, lastName, email string, isAdmin bool, loginTimes *int) (*User, error) {
	u := &User{
		ID:         uuid.New(),
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
		IsAdmin:    isAdmin,
		LoginTimes: loginTimes,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	return u, nil
}

// Validate comprueba los invariantes de la entidad.
func (u *User) Validate() error {
	if strings.TrimSpace(u.FirstName) == "" {
		return fmt.Errorf("%w: first_name is required", ErrInvalidUser)
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidUser, u.Email)
	}
	if u.LoginTimes != nil && *u.LoginTimes < 0 {
		return fmt.Errorf("%w: login_times must be >= 0", ErrInvalidUser)
	}
	return nil
}

func (u *User) PartitionKey() string {
	return u.ID.String()
}

// Verificación estática para asegurar que User implementa la interfaz
var _ sharedBus.Keyer = (*User)(nil)

// ---------- Filtrado ----------

// Schema declara los campos de User que admiten filtros y orden.
var Schema = filter.NewSchema("User",
	filter.Attribute{Name: "id", Type: filter.TypeText, TextCast: true},
	filter.Attribute{Name: "first_name", Type: filter.TypeText},
	filter.Attribute{Name: "last_name", Type: filter.TypeText},
	filter.Attribute{Name: "email", Type: filter.TypeText},
	filter.Attribute{Name: "is_admin", Type: filter.TypeBoolean},
	filter.Attribute{Name: "login_times", Type: filter.TypeNumber, Nullable: true},
	filter.Attribute{Name: "created_at", Type: filter.TypeTemporal},
	filter.Attribute{Name: "updated_at", Type: filter.TypeTemporal},
)

// Field expone las columnas de User al evaluador en memoria.
func Field(u *User, column string) any {
	switch column {
	case "id":
		return u.ID.String()
	case "first_name":
		return u.FirstName
	case "last_name":
		return u.LastName
	case "email":
		return u.Email
	case "is_admin":
		return u.IsAdmin
	case "login_times":
		return u.LoginTimes
	case "created_at":
		return u.CreatedAt
	case "updated_at":
		return u.UpdatedAt
	}
	return nil
}
