package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const OutboxCollection = "outbox"

// Connect abre el cliente y comprueba la conexión con el primario.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}
	return client, nil
}

// WithTransaction ejecuta fn dentro de una transacción de sesión. Requiere
// un replica set; en un nodo standalone el servidor rechaza la transacción.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// OutboxRepoMongoDB implementa la interfaz sharedDomain.OutboxRepository.
type OutboxRepoMongoDB struct {
	outboxColl *mongo.Collection
}

func NewOutboxRepoMongoDB(client *mongo.Client, dbName string) *OutboxRepoMongoDB {
	return &OutboxRepoMongoDB{outboxColl: client.Database(dbName).Collection(OutboxCollection)}
}

// Los IDs se guardan como texto para que los documentos sean legibles desde
// cualquier cliente. El payload se guarda con las claves de su forma JSON.
type mongoOutboxEvent struct {
	ID            string                 `bson:"_id"`
	AggregateType string                 `bson:"aggregateType"`
	AggregateID   string                 `bson:"aggregateId"`
	EventType     string                 `bson:"eventType"`
	Payload       map[string]interface{} `bson:"payload"`
	CreatedAt     time.Time              `bson:"createdAt"`
	Processed     bool                   `bson:"processed"`
}

// InsertOutbox guarda el evento. Dentro de session.WithTransaction, ctx debe
// ser el mongo.SessionContext de la transacción.
func InsertOutbox(ctx context.Context, coll *mongo.Collection, evt sharedDomain.OutboxEvent) error {
	mo, err := toMongoOutboxEvent(evt)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, mo); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// FetchPendingOutbox obtiene los eventos no procesados de la colección outbox.
func (r *OutboxRepoMongoDB) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))

	cursor, err := r.outboxColl.Find(ctx, bson.M{"processed": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []sharedDomain.OutboxEvent
	for cursor.Next(ctx) {
		var mo mongoOutboxEvent
		if err := cursor.Decode(&mo); err != nil {
			return nil, err
		}
		evt, err := fromMongoOutboxEvent(&mo)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, cursor.Err()
}

// MarkOutboxProcessed marca un evento como procesado.
func (r *OutboxRepoMongoDB) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.outboxColl.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": bson.M{"processed": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

func toMongoOutboxEvent(evt sharedDomain.OutboxEvent) (*mongoOutboxEvent, error) {
	raw, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("outbox payload must be a JSON object: %w", err)
	}
	return &mongoOutboxEvent{
		ID: evt.ID.String(), AggregateType: evt.AggregateType, AggregateID: evt.AggregateID,
		EventType: evt.EventType, Payload: payload, CreatedAt: evt.CreatedAt, Processed: false,
	}, nil
}

func fromMongoOutboxEvent(mo *mongoOutboxEvent) (sharedDomain.OutboxEvent, error) {
	id, err := uuid.Parse(mo.ID)
	if err != nil {
		return sharedDomain.OutboxEvent{}, fmt.Errorf("invalid UUID in outbox document: %w", err)
	}
	return sharedDomain.OutboxEvent{
		ID:            id,
		AggregateType: mo.AggregateType,
		AggregateID:   mo.AggregateID,
		EventType:     mo.EventType,
		Payload:       mo.Payload,
		CreatedAt:     mo.CreatedAt,
		Processed:     mo.Processed,
	}, nil
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxRepository = (*OutboxRepoMongoDB)(nil)
