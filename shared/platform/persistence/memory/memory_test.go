package memory

import (
	"context"
	"testing"
	"time"

	sharedDomain "github.com/davicafu/hexafilter/shared/domain"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string
	Score *int
}

var itemSchema = filter.NewSchema("Item",
	filter.Attribute{Name: "name", Type: filter.TypeText},
	filter.Attribute{Name: "score", Type: filter.TypeNumber, Nullable: true},
)

func itemField(it item, column string) any {
	switch column {
	case "name":
		return it.Name
	case "score":
		return it.Score
	}
	return nil
}

func score(v int) *int { return &v }

func TestFetch_SortsNullsFirstAndPaginates(t *testing.T) {
	items := []item{{"b", score(2)}, {"a", nil}, {"c", score(1)}}
	attr, _ := itemSchema.Lookup("score")

	page, total := Fetch(items, filter.Query{Where: filter.And(), Order: &filter.Order{Attribute: attr}, Limit: 2}, itemField)

	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].Name)
	assert.Equal(t, "c", page[1].Name)
	assert.Equal(t, "b", items[0].Name, "no modifica la entrada")
}

func TestOutbox_FetchAndMark(t *testing.T) {
	ctx := context.Background()
	o := NewOutbox()
	first := sharedDomain.NewOutboxEvent("user", "1", "user.created", nil)
	second := sharedDomain.NewOutboxEvent("user", "1", "user.updated", nil)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	o.Add(second)
	o.Add(first)

	pending, err := o.FetchPendingOutbox(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	require.NoError(t, o.MarkOutboxProcessed(ctx, first.ID))
	assert.Equal(t, 1, o.Pending())
	assert.Error(t, o.MarkOutboxProcessed(ctx, uuid.New()))
}
