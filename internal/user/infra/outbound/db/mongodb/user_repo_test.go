package mongodb

import (
	"testing"
	"time"

	userDomain "github.com/davicafu/hexafilter/internal/user/domain"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestUserMapping_RoundTrip(t *testing.T) {
	logins := 135
	u, err := userDomain.NewUser("Jean", "Dupont", "jean@example.com", true, &logins)
	require.NoError(t, err)
	u.CreatedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u.UpdatedAt = u.CreatedAt

	back, err := fromMongoUser(toMongoUser(u))

	require.NoError(t, err)
	assert.Equal(t, u, back)
}

func TestUserMapping_NullLoginTimes(t *testing.T) {
	u, err := userDomain.NewUser("Anna", "", "anna@example.com", false, nil)
	require.NoError(t, err)

	mu := toMongoUser(u)

	assert.Nil(t, mu.LoginTimes)
}

func TestFields_IDMapsToDocumentKey(t *testing.T) {
	d, err := filter.ParseDescriptors(`{"field":"id","operator":"in","value":["a","b"]}`)
	require.NoError(t, err)
	p, err := filter.Compile(userDomain.Schema, d, false)
	require.NoError(t, err)

	got, err := fields.Build(p)

	require.NoError(t, err)
	assert.Equal(t,
		bson.D{{Key: "$and", Value: bson.A{bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: bson.A{"a", "b"}}}}}}}},
		got)
}
