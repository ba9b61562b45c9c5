package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/google/uuid"
)

// Outbox guarda eventos pendientes en memoria. La comparten los
// repositorios en memoria para que el relayer funcione sin base de datos.
type Outbox struct {
	mu     sync.Mutex
	events []sharedDomain.OutboxEvent
}

func NewOutbox() *Outbox { return &Outbox{} }

// Add encola un evento. Debe llamarse con el mismo lock que protege la
// escritura del agregado para mantener el orden.
func (o *Outbox) Add(evt sharedDomain.OutboxEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	evt.Processed = false
	o.events = append(o.events, evt)
}

func (o *Outbox) FetchPendingOutbox(_ context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	pending := make([]sharedDomain.OutboxEvent, 0, limit)
	for _, evt := range o.events {
		if !evt.Processed {
			pending = append(pending, evt)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (o *Outbox) MarkOutboxProcessed(_ context.Context, id uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.events {
		if o.events[i].ID == id {
			o.events[i].Processed = true
			return nil
		}
	}
	return fmt.Errorf("no outbox event found with id %s", id)
}

// Pending cuenta los eventos sin procesar.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, evt := range o.events {
		if !evt.Processed {
			n++
		}
	}
	return n
}

var _ sharedDomain.OutboxRepository = (*Outbox)(nil)
