package relayer

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	sharedEvents "github.com/davicafu/hexafilter/shared/events"
	sharedBus "github.com/davicafu/hexafilter/shared/platform/bus"
	"go.uber.org/zap"
)

// Worker procesa eventos pendientes de la tabla outbox de forma genérica.
type Worker struct {
	repo          sharedDomain.OutboxRepository
	publisher     sharedBus.EventPublisher
	eventRegistry sharedEvents.Registry
	interval      time.Duration
	batchSize     int
	log           *zap.Logger
}

func NewOutboxWorker(
	repo sharedDomain.OutboxRepository,
	publisher sharedBus.EventPublisher,
	registry sharedEvents.Registry,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:          repo,
		publisher:     publisher,
		eventRegistry: registry,
		interval:      interval,
		batchSize:     batchSize,
		log:           log,
	}
}

// Start inicia el bucle de polling del worker. Bloquea hasta que ctx se cancela.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("Outbox worker iniciado", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Outbox worker detenido")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publica un lote de eventos pendientes y devuelve cuántos se
// marcaron como procesados.
func (w *Worker) ProcessBatch(ctx context.Context) int {
	events, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("Error al obtener eventos pendientes", zap.Error(err))
		return 0
	}
	if len(events) > 0 {
		w.log.Debug("Eventos pendientes en outbox", zap.Int("count", len(events)))
	}

	done := 0
	for _, evt := range events {
		if w.publishAndMark(ctx, evt) {
			done++
		}
	}
	return done
}

// Envelope construye el evento de integración a partir de la fila del outbox.
// El payload se valida contra el contrato registrado para el event_type.
func (w *Worker) Envelope(evt sharedDomain.OutboxEvent) (sharedEvents.IntegrationEvent, bool) {
	metadata, ok := w.eventRegistry[evt.EventType]
	if !ok {
		w.log.Error("Tipo de evento desconocido en registro", zap.String("event_type", evt.EventType))
		return sharedEvents.IntegrationEvent{}, false
	}

	typed := reflect.New(metadata.Type).Interface()
	payloadBytes, err := json.Marshal(evt.Payload)
	if err == nil {
		err = json.Unmarshal(payloadBytes, typed)
	}
	if err != nil {
		w.log.Error("Error al decodificar payload del evento", zap.String("event_id", evt.ID.String()), zap.Error(err))
		return sharedEvents.IntegrationEvent{}, false
	}

	data, err := json.Marshal(typed)
	if err != nil {
		w.log.Error("Error al codificar payload del evento", zap.String("event_id", evt.ID.String()), zap.Error(err))
		return sharedEvents.IntegrationEvent{}, false
	}

	return sharedEvents.IntegrationEvent{
		ID:        evt.ID.String(),
		Type:      evt.EventType,
		Timestamp: evt.CreatedAt,
		Data:      data,
		Topic:     metadata.Topic,
		Key:       evt.AggregateID,
	}, true
}

func (w *Worker) publishAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) bool {
	envelope, ok := w.Envelope(evt)
	if !ok {
		return false
	}

	if err := w.publisher.Publish(ctx, envelope); err != nil {
		w.log.Warn("No se pudo publicar evento", zap.String("event_id", evt.ID.String()), zap.Error(err))
		return false // se reintenta en el siguiente ciclo
	}

	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("No se pudo marcar evento como procesado", zap.String("event_id", evt.ID.String()), zap.Error(err))
		return false
	}

	w.log.Debug("Evento publicado y marcado", zap.String("event_id", evt.ID.String()), zap.String("topic", envelope.Topic))
	return true
}
