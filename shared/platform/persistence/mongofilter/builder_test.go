package mongofilter

import (
	"testing"
	"time"

	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var schema = filter.NewSchema("User",
	filter.Attribute{Name: "first_name", Type: filter.TypeText},
	filter.Attribute{Name: "login_times", Type: filter.TypeNumber, Nullable: true},
	filter.Attribute{Name: "is_admin", Type: filter.TypeBoolean},
	filter.Attribute{Name: "created_at", Type: filter.TypeTemporal},
)

func compile(t *testing.T, raw string, useOr bool) filter.Predicate {
	t.Helper()
	d, err := filter.ParseDescriptors(raw)
	require.NoError(t, err)
	p, err := filter.Compile(schema, d, useOr)
	require.NoError(t, err)
	return p
}

func TestBuild_Conditions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bson.D
	}{
		{
			"igualdad",
			`[{"field":"firstName","operator":"=","value":"Jean"}]`,
			bson.D{{Key: "$and", Value: bson.A{bson.D{{Key: "first_name", Value: bson.D{{Key: "$eq", Value: "Jean"}}}}}}},
		},
		{
			"not_in excluye nulos",
			`{"field":"login_times","operator":"not_in","value":[1,2]}`,
			bson.D{{Key: "$and", Value: bson.A{bson.D{{Key: "login_times", Value: bson.D{{Key: "$nin", Value: bson.A{int64(1), int64(2), nil}}}}}}}},
		},
		{
			"contains como regex",
			`{"field":"first_name","operator":"like","value":"J_a%"}`,
			bson.D{{Key: "$and", Value: bson.A{bson.D{{Key: "first_name", Value: bson.D{{Key: "$regex", Value: primitive.Regex{Pattern: "(?s)^J.a.*$"}}}}}}}},
		},
		{
			"is_null",
			`{"field":"login_times","operator":"is_null"}`,
			bson.D{{Key: "$and", Value: bson.A{bson.D{{Key: "login_times", Value: nil}}}}},
		},
		{
			"is_true",
			`{"field":"is_admin","operator":"is_true"}`,
			bson.D{{Key: "$and", Value: bson.A{bson.D{{Key: "is_admin", Value: true}}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(compile(t, tt.raw, false))

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_OrAndDates(t *testing.T) {
	raw := `[{"field":"created_at","operator":">=","value":"2024-01-01"},{"field":"login_times","operator":"ne","value":3}]`

	got, err := Build(compile(t, raw, true))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "$or", got[0].Key)
	terms := got[0].Value.(bson.A)
	require.Len(t, terms, 2)
	assert.Equal(t,
		bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}}},
		terms[0])
	assert.Equal(t,
		bson.D{{Key: "login_times", Value: bson.D{{Key: "$nin", Value: bson.A{int64(3), nil}}}}},
		terms[1])
}

func TestBuild_Empty(t *testing.T) {
	got, err := Build(filter.And())

	require.NoError(t, err)
	assert.Equal(t, bson.D{}, got)
}

func TestSort(t *testing.T) {
	attr, _ := schema.Lookup("first_name")

	assert.Nil(t, Sort(nil))
	assert.Equal(t, bson.D{{Key: "first_name", Value: 1}}, Sort(&filter.Order{Attribute: attr}))
	assert.Equal(t, bson.D{{Key: "first_name", Value: -1}}, Sort(&filter.Order{Attribute: attr, Desc: true}))
}

func TestFields_Rename(t *testing.T) {
	fields := Fields{"first_name": "firstName"}
	attr, _ := schema.Lookup("first_name")

	got, err := fields.Build(compile(t, `{"field":"first_name","operator":"is_not_empty"}`, false))

	require.NoError(t, err)
	assert.Equal(t,
		bson.D{{Key: "$and", Value: bson.A{bson.D{{Key: "firstName", Value: bson.D{{Key: "$nin", Value: bson.A{"", nil}}}}}}}},
		got)
	assert.Equal(t, bson.D{{Key: "firstName", Value: -1}}, fields.Sort(&filter.Order{Attribute: attr, Desc: true}))
}
