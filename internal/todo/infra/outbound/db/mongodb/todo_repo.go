package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	mongoInfra "github.com/davicafu/hexafilter/internal/infra/db/mongodb"
	todoDomain "github.com/davicafu/hexafilter/internal/todo/domain"
	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/davicafu/hexafilter/shared/platform/persistence/mongofilter"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TodoRepoMongoDB struct {
	client     *mongo.Client
	todosColl  *mongo.Collection
	outboxColl *mongo.Collection
}

func NewTodoRepoMongoDB(client *mongo.Client, dbName string) *TodoRepoMongoDB {
	db := client.Database(dbName)
	return &TodoRepoMongoDB{
		client:     client,
		todosColl:  db.Collection("todos"),
		outboxColl: db.Collection(mongoInfra.OutboxCollection),
	}
}

type mongoTodo struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description *string   `bson:"description"`
	Priority    string    `bson:"priority"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

var fields = mongofilter.Fields{"id": "_id"}

func (r *TodoRepoMongoDB) Create(ctx context.Context, t *todoDomain.Todo, evt sharedDomain.OutboxEvent) error {
	return mongoInfra.WithTransaction(ctx, r.client, func(sessCtx mongo.SessionContext) error {
		if _, err := r.todosColl.InsertOne(sessCtx, toMongoTodo(t)); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return todoDomain.ErrTodoAlreadyExists
			}
			return err
		}
		return mongoInfra.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
}

func (r *TodoRepoMongoDB) Update(ctx context.Context, t *todoDomain.Todo, evt sharedDomain.OutboxEvent) error {
	return mongoInfra.WithTransaction(ctx, r.client, func(sessCtx mongo.SessionContext) error {
		mt := toMongoTodo(t)
		res, err := r.todosColl.ReplaceOne(sessCtx, bson.M{"_id": mt.ID}, mt)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return todoDomain.ErrTodoNotFound
		}
		return mongoInfra.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
}

func (r *TodoRepoMongoDB) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return mongoInfra.WithTransaction(ctx, r.client, func(sessCtx mongo.SessionContext) error {
		res, err := r.todosColl.DeleteOne(sessCtx, bson.M{"_id": id.String()})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return todoDomain.ErrTodoNotFound
		}
		return mongoInfra.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
}

func (r *TodoRepoMongoDB) GetByID(ctx context.Context, id uuid.UUID) (*todoDomain.Todo, error) {
	var mt mongoTodo
	if err := r.todosColl.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, todoDomain.ErrTodoNotFound
		}
		return nil, err
	}
	return fromMongoTodo(&mt)
}

func (r *TodoRepoMongoDB) Fetch(ctx context.Context, q filter.Query) ([]*todoDomain.Todo, int, error) {
	where, err := fields.Build(q.Where)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.todosColl.CountDocuments(ctx, where)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find()
	if sort := fields.Sort(q.Order); sort != nil {
		opts.SetSort(sort)
	}
	if q.Limit > 0 {
		opts.SetSkip(int64(q.Offset)).SetLimit(int64(q.Limit))
	}

	cursor, err := r.todosColl.Find(ctx, where, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var docs []mongoTodo
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	todos := make([]*todoDomain.Todo, 0, len(docs))
	for i := range docs {
		t, err := fromMongoTodo(&docs[i])
		if err != nil {
			return nil, 0, err
		}
		todos = append(todos, t)
	}
	return todos, int(total), nil
}

func toMongoTodo(t *todoDomain.Todo) *mongoTodo {
	return &mongoTodo{
		ID: t.ID.String(), Title: t.Title, Description: t.Description,
		Priority: string(t.Priority), CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}
}

func fromMongoTodo(mt *mongoTodo) (*todoDomain.Todo, error) {
	id, err := uuid.Parse(mt.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in todo document: %w", err)
	}
	return &todoDomain.Todo{
		ID: id, Title: mt.Title, Description: mt.Description,
		Priority:  todoDomain.Priority(mt.Priority),
		CreatedAt: mt.CreatedAt.UTC(), UpdatedAt: mt.UpdatedAt.UTC(),
	}, nil
}

var _ todoDomain.TodoRepository = (*TodoRepoMongoDB)(nil)
