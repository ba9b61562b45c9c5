package sqldb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// OutboxRepo implementa sharedDomain.OutboxRepository sobre SQLite o Postgres.
type OutboxRepo struct {
	db *sqlx.DB
}

func NewOutboxRepo(db *sqlx.DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

type outboxRow struct {
	ID            uuid.UUID `db:"id"`
	AggregateType string    `db:"aggregate_type"`
	AggregateID   string    `db:"aggregate_id"`
	EventType     string    `db:"event_type"`
	Payload       string    `db:"payload"`
	CreatedAt     time.Time `db:"created_at"`
}

// InsertOutboxTx guarda el evento dentro de la transacción de la escritura.
func InsertOutboxTx(ctx context.Context, tx *sqlx.Tx, evt sharedDomain.OutboxEvent) error {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at, processed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		evt.ID, evt.AggregateType, evt.AggregateID, evt.EventType, string(payloadBytes), evt.CreatedAt, false,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// FetchPendingOutbox obtiene los eventos no procesados por orden de creación.
func (r *OutboxRepo) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	var rows []outboxRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		 FROM outbox WHERE processed = ? ORDER BY created_at LIMIT ?`), false, limit,
	)
	if err != nil {
		return nil, err
	}

	events := make([]sharedDomain.OutboxEvent, 0, len(rows))
	for _, row := range rows {
		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON payload in outbox row %s: %w", row.ID, err)
		}
		events = append(events, sharedDomain.OutboxEvent{
			ID:            row.ID,
			AggregateType: row.AggregateType,
			AggregateID:   row.AggregateID,
			EventType:     row.EventType,
			Payload:       payload,
			CreatedAt:     row.CreatedAt,
		})
	}
	return events, nil
}

// MarkOutboxProcessed marca un evento como procesado.
func (r *OutboxRepo) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE outbox SET processed = ? WHERE id = ?`), true, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event %s as processed: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected for outbox event %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("no outbox event found with id %s", id)
	}
	return nil
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxRepository = (*OutboxRepo)(nil)
