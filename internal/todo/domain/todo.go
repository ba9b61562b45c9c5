package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/davicafu/hexafilter/shared/domain/filter"
	sharedBus "github.com/davicafu/hexafilter/shared/platform/bus"
	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ParsePriority acepta el nombre en cualquier combinación de mayúsculas.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrInvalidTodo, s)
}

type Todo struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTodo crea un todo válido. Sin prioridad se asume LOW.
func NewTodo(title string, description *string, priority Priority) (*Todo, error) {
	if priority == "" {
		priority = PriorityLow
	}
	priority, err := ParsePriority(string(priority))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &Todo{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Todo) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTodo)
	}
	switch t.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	}
	return fmt.Errorf("%w: unknown priority %q", ErrInvalidTodo, t.Priority)
}

func (t *Todo) PartitionKey() string {
	return t.ID.String()
}

// --- Métodos de dominio ---

// Reprioritize cambia la prioridad y marca la actualización.
func (t *Todo) Reprioritize(p Priority) {
	t.Priority = p
	t.UpdatedAt = time.Now().UTC()
}

// Verificación estática para asegurar que Todo implementa la interfaz
var _ sharedBus.Keyer = (*Todo)(nil)

// ---------- Filtrado ----------

// Schema declara los campos filtrables. priority es un enumerado: admite
// búsqueda por patrón convirtiendo la columna a texto.
var Schema = filter.NewSchema("Todo",
	filter.Attribute{Name: "id", Type: filter.TypeText, TextCast: true},
	filter.Attribute{Name: "title", Type: filter.TypeText},
	filter.Attribute{Name: "description", Type: filter.TypeText, Nullable: true},
	filter.Attribute{Name: "priority", Type: filter.TypeEnum, TextCast: true},
	filter.Attribute{Name: "created_at", Type: filter.TypeTemporal},
	filter.Attribute{Name: "updated_at", Type: filter.TypeTemporal},
)

func Field(t *Todo, column string) any {
	switch column {
	case "id":
		return t.ID.String()
	case "title":
		return t.Title
	case "description":
		return t.Description
	case "priority":
		return t.Priority
	case "created_at":
		return t.CreatedAt
	case "updated_at":
		return t.UpdatedAt
	}
	return nil
}
