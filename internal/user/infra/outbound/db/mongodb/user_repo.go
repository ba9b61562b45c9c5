package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	mongoInfra "github.com/davicafu/hexafilter/internal/infra/db/mongodb"
	userDomain "github.com/davicafu/hexafilter/internal/user/domain"
	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/davicafu/hexafilter/shared/platform/persistence/mongofilter"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepoMongoDB implementa la interfaz UserRepository para MongoDB.
type UserRepoMongoDB struct {
	client     *mongo.Client
	usersColl  *mongo.Collection
	outboxColl *mongo.Collection
}

// NewUserRepoMongoDB es el constructor del repositorio.
func NewUserRepoMongoDB(client *mongo.Client, dbName string) *UserRepoMongoDB {
	db := client.Database(dbName)
	return &UserRepoMongoDB{
		client:     client,
		usersColl:  db.Collection("users"),
		outboxColl: db.Collection(mongoInfra.OutboxCollection),
	}
}

// EnsureIndexes crea el índice único de email.
func (r *UserRepoMongoDB) EnsureIndexes(ctx context.Context) error {
	_, err := r.usersColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// --- Structs de BSON para el mapeo ---
// Se definen localmente para no "contaminar" el dominio con tags de BSON.

type mongoUser struct {
	ID         string    `bson:"_id"`
	FirstName  string    `bson:"first_name"`
	LastName   string    `bson:"last_name"`
	Email      string    `bson:"email"`
	IsAdmin    bool      `bson:"is_admin"`
	LoginTimes *int64    `bson:"login_times"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// Los campos del documento coinciden con las columnas del esquema salvo el ID.
var fields = mongofilter.Fields{"id": "_id"}

// --- CRUD Transaccional ---

func (r *UserRepoMongoDB) withTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	return mongoInfra.WithTransaction(ctx, r.client, fn)
}

func (r *UserRepoMongoDB) Create(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	return r.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := r.usersColl.InsertOne(sessCtx, toMongoUser(u)); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return userDomain.ErrUserAlreadyExists
			}
			return err
		}
		return mongoInfra.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
}

func (r *UserRepoMongoDB) Update(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	return r.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		mu := toMongoUser(u)
		res, err := r.usersColl.ReplaceOne(sessCtx, bson.M{"_id": mu.ID}, mu)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return userDomain.ErrUserAlreadyExists
			}
			return err
		}
		if res.MatchedCount == 0 {
			return userDomain.ErrUserNotFound
		}
		return mongoInfra.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
}

func (r *UserRepoMongoDB) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return r.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		res, err := r.usersColl.DeleteOne(sessCtx, bson.M{"_id": id.String()})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return userDomain.ErrUserNotFound
		}
		return mongoInfra.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
}

// --- Lectura ---

func (r *UserRepoMongoDB) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var mu mongoUser
	err := r.usersColl.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userDomain.ErrUserNotFound
		}
		return nil, err
	}
	return fromMongoUser(&mu)
}

// Fetch traduce la consulta con mongofilter: un CountDocuments para el
// total y un Find paginado.
func (r *UserRepoMongoDB) Fetch(ctx context.Context, q filter.Query) ([]*userDomain.User, int, error) {
	where, err := fields.Build(q.Where)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.usersColl.CountDocuments(ctx, where)
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

	cursor, err := r.usersColl.Find(ctx, where, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	users := []*userDomain.User{}
	for cursor.Next(ctx) {
		var mu mongoUser
		if err := cursor.Decode(&mu); err != nil {
			return nil, 0, err
		}
		u, err := fromMongoUser(&mu)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, int(total), cursor.Err()
}

// --- Helpers de Mapeo y Conversión ---

func toMongoUser(u *userDomain.User) *mongoUser {
	mu := &mongoUser{
		ID: u.ID.String(), FirstName: u.FirstName, LastName: u.LastName, Email: u.Email,
		IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
	if u.LoginTimes != nil {
		v := int64(*u.LoginTimes)
		mu.LoginTimes = &v
	}
	return mu
}

func fromMongoUser(mu *mongoUser) (*userDomain.User, error) {
	id, err := uuid.Parse(mu.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in user document: %w", err)
	}
	u := &userDomain.User{
		ID: id, FirstName: mu.FirstName, LastName: mu.LastName, Email: mu.Email,
		IsAdmin: mu.IsAdmin, CreatedAt: mu.CreatedAt.UTC(), UpdatedAt: mu.UpdatedAt.UTC(),
	}
	if mu.LoginTimes != nil {
		v := int(*mu.LoginTimes)
		u.LoginTimes = &v
	}
	return u, nil
}

// Verificación en tiempo de compilación.
var _ userDomain.UserRepository = (*UserRepoMongoDB)(nil)
