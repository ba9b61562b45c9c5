package filter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/davicafu/hexafilter/shared/platform/persistence/memory"
	"github.com/davicafu/hexafilter/shared/platform/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type level string

type person struct {
	FirstName  string
	LastName   string
	LoginTimes *int
	IsAdmin    bool
	Level      level
	CreatedAt  time.Time
}

func intPtr(v int) *int { return &v }

var personSchema = filter.NewSchema("Person",
	filter.Attribute{Name: "first_name", Type: filter.TypeText},
	filter.Attribute{Name: "last_name", Type: filter.TypeText},
	filter.Attribute{Name: "login_times", Type: filter.TypeNumber, Nullable: true},
	filter.Attribute{Name: "is_admin", Type: filter.TypeBoolean},
	filter.Attribute{Name: "level", Type: filter.TypeEnum, TextCast: true},
	filter.Attribute{Name: "code", Column: "level", Type: filter.TypeEnum},
	filter.Attribute{Name: "created_at", Type: filter.TypeTemporal},
)

func personField(p person, column string) any {
	switch column {
	case "first_name":
		return p.FirstName
	case "last_name":
		return p.LastName
	case "login_times":
		return p.LoginTimes
	case "is_admin":
		return p.IsAdmin
	case "level":
		return p.Level
	case "created_at":
		return p.CreatedAt
	}
	return nil
}

func scenario() []person {
	return []person{
		{FirstName: "Jean", LastName: "Dupont", LoginTimes: intPtr(135), IsAdmin: true, Level: "HIGH",
			CreatedAt: time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)},
		{FirstName: "Louis", LastName: "Ferrand", LoginTimes: intPtr(10), Level: "LOW",
			CreatedAt: time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC)},
		{FirstName: "Anna", LastName: "", LoginTimes: nil, Level: "MEDIUM",
			CreatedAt: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)},
	}
}

func newEngine(items []person) *filter.Engine[person] {
	store := filter.FetcherFunc[person](func(_ context.Context, q filter.Query) ([]person, int, error) {
		page, total := memory.Fetch(items, q, personField)
		return page, total, nil
	})
	return filter.NewEngine[person](personSchema, store, zap.NewNop())
}

func firstNames(items []person) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.FirstName
	}
	return out
}

var all = query.PageRequest{Page: 1}

func TestEngine_Scenario(t *testing.T) {
	engine := newEngine(scenario())
	ctx := context.Background()

	t.Run("login_times < 12", func(t *testing.T) {
		page, err := engine.Find(ctx, `{"field":"loginTimes","operator":"<","value":12}`, all)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, []string{"Louis"}, firstNames(page.Items))
	})

	t.Run("not_in nunca coincide con nulos", func(t *testing.T) {
		page, err := engine.Find(ctx, `{"field":"login_times","operator":"not_in","value":[1,2,3]}`, all)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		assert.ElementsMatch(t, []string{"Jean", "Louis"}, firstNames(page.Items))
	})

	t.Run("in nunca coincide con nulos", func(t *testing.T) {
		page, err := engine.Find(ctx, `{"field":"login_times","operator":"in","value":[10,135]}`, all)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})

	t.Run("distinto excluye nulos", func(t *testing.T) {
		page, err := engine.Find(ctx, `{"field":"login_times","operator":"!=","value":10}`, all)
		require.NoError(t, err)
		assert.Equal(t, []string{"Jean"}, firstNames(page.Items))
	})

	t.Run("last_name is_empty", func(t *testing.T) {
		page, err := engine.Find(ctx, `{"field":"last_name","operator":"is_empty"}`, all)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, []string{"Anna"}, firstNames(page.Items))
	})

	t.Run("is_null / is_not_null", func(t *testing.T) {
		null, err := engine.Find(ctx, `{"field":"login_times","operator":"is_null"}`, all)
		require.NoError(t, err)
		notNull, err := engine.Find(ctx, `{"field":"login_times","operator":"is_not_null"}`, all)
		require.NoError(t, err)

		assert.Equal(t, []string{"Anna"}, firstNames(null.Items))
		assert.Equal(t, 2, notNull.Total)
	})

	t.Run("orden por first_name", func(t *testing.T) {
		asc, err := engine.Find(ctx, "", query.PageRequest{Page: 1, Sort: "firstName"})
		require.NoError(t, err)
		desc, err := engine.Find(ctx, "", query.PageRequest{Page: 1, Sort: "first_name", IsDesc: true})
		require.NoError(t, err)

		assert.Equal(t, []string{"Anna", "Jean", "Louis"}, firstNames(asc.Items))
		assert.Equal(t, []string{"Louis", "Jean", "Anna"}, firstNames(desc.Items))
	})

	t.Run("nulos primero en ascendente y últimos en descendente", func(t *testing.T) {
		asc, err := engine.Find(ctx, "", query.PageRequest{Page: 1, Sort: "login_times"})
		require.NoError(t, err)
		desc, err := engine.Find(ctx, "", query.PageRequest{Page: 1, Sort: "login_times", IsDesc: true})
		require.NoError(t, err)

		assert.Equal(t, []string{"Anna", "Louis", "Jean"}, firstNames(asc.Items))
		assert.Equal(t, []string{"Jean", "Louis", "Anna"}, firstNames(desc.Items))
	})

	t.Run("contains distingue mayúsculas", func(t *testing.T) {
		page, err := engine.Find(ctx, `{"field":"first_name","operator":"has","value":"%ou%"}`, all)
		require.NoError(t, err)
		assert.Equal(t, []string{"Louis"}, firstNames(page.Items))

		page, err = engine.Find(ctx, `{"field":"first_name","operator":"has","value":"%OU%"}`, all)
		require.NoError(t, err)
		assert.Zero(t, page.Total)
	})

	t.Run("contains sobre enumerado con cast", func(t *testing.T) {
		page, err := engine.Find(ctx, `{"field":"level","operator":"includes","value":"%IG%"}`, all)
		require.NoError(t, err)
		assert.Equal(t, []string{"Jean"}, firstNames(page.Items))
	})

	t.Run("booleanos", func(t *testing.T) {
		yes, err := engine.Find(ctx, `{"field":"isAdmin","operator":"is_true"}`, all)
		require.NoError(t, err)
		no, err := engine.Find(ctx, `{"field":"isAdmin","operator":"is_false"}`, all)
		require.NoError(t, err)

		assert.Equal(t, []string{"Jean"}, firstNames(yes.Items))
		assert.Equal(t, 2, no.Total)
	})

	t.Run("rango de fechas", func(t *testing.T) {
		raw := `[{"field":"created_at","operator":">=","value":"2023-06-01"},{"field":"created_at","operator":"<","value":"2024-01-01 00:00:00"}]`
		page, err := engine.Find(ctx, raw, all)
		require.NoError(t, err)
		assert.Equal(t, []string{"Louis"}, firstNames(page.Items))
	})

	t.Run("or", func(t *testing.T) {
		raw := `[{"field":"first_name","operator":"=","value":"Jean"},{"field":"last_name","operator":"is_empty"}]`
		and, err := engine.Find(ctx, raw, all)
		require.NoError(t, err)
		or, err := engine.Find(ctx, raw, query.PageRequest{Page: 1, UseOr: true})
		require.NoError(t, err)

		assert.Zero(t, and.Total)
		assert.Equal(t, 2, or.Total)
	})
}

func TestEngine_AliasesAreEquivalent(t *testing.T) {
	engine := newEngine(scenario())
	ctx := context.Background()

	for _, group := range [][]string{{"<", "lt"}, {">=", "ge"}, {"=", "eq"}, {"!=", "ne", "neq"}} {
		var totals []int
		for _, alias := range group {
			raw := `{"field":"login_times","operator":"` + alias + `","value":10}`
			page, err := engine.Find(ctx, raw, all)
			require.NoError(t, err, alias)
			totals = append(totals, page.Total)
		}
		for _, total := range totals[1:] {
			assert.Equal(t, totals[0], total, group)
		}
	}
}

func TestEngine_Pagination(t *testing.T) {
	engine := newEngine(scenario())
	ctx := context.Background()

	tests := []struct {
		page, perPage int
		want          []string
	}{
		{1, 0, []string{"Anna", "Jean", "Louis"}},
		{5, 0, []string{"Anna", "Jean", "Louis"}},
		{1, 2, []string{"Anna", "Jean"}},
		{2, 2, []string{"Louis"}},
		{3, 2, []string{}},
		{2, 1, []string{"Jean"}},
	}

	for _, tt := range tests {
		page, err := engine.Find(ctx, "", query.PageRequest{Page: tt.page, PerPage: tt.perPage, Sort: "first_name"})

		require.NoError(t, err)
		assert.Equal(t, 3, page.Total, "page=%d per_page=%d", tt.page, tt.perPage)
		assert.Equal(t, tt.want, firstNames(page.Items), "page=%d per_page=%d", tt.page, tt.perPage)
	}
}

func TestEngine_UnknownSortIsIgnored(t *testing.T) {
	engine := newEngine(scenario())

	page, err := engine.Find(context.Background(), "", query.PageRequest{Page: 1, Sort: "shoe_size"})

	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 3)
}

func TestEngine_Rejections(t *testing.T) {
	engine := newEngine(scenario())
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
		req  query.PageRequest
	}{
		{"campo desconocido", `{"field":"shoe_size","operator":"=","value":42}`, all},
		{"contains sobre enumerado sin cast", `{"field":"code","operator":":","value":"%H%"}`, all},
		{"contains sobre booleano", `{"field":"is_admin","operator":":","value":"t%"}`, all},
		{"is_true sobre texto", `{"field":"first_name","operator":"is_true"}`, all},
		{"contains sobre número", `{"field":"login_times","operator":":","value":"1%"}`, all},
		{"contains sobre fecha", `{"field":"created_at","operator":"like","value":"2024%"}`, all},
		{"is_empty sobre número", `{"field":"login_times","operator":"is_empty"}`, all},
		{"is_not_empty sobre fecha", `{"field":"created_at","operator":"is_not_empty"}`, all},
		{"is_empty sobre enumerado sin cast", `{"field":"code","operator":"is_empty"}`, all},
		{"página cero", "", query.PageRequest{Page: 0}},
		{"per_page negativo", "", query.PageRequest{Page: 1, PerPage: -1}},
		{"desplazamiento desbordado", "", query.PageRequest{Page: 1 << 62, PerPage: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Find(ctx, tt.raw, tt.req)
			assert.ErrorIs(t, err, filter.ErrInvalidFilter)
		})
	}

	_, err := engine.Find(ctx, `{"field":"shoe_size","operator":"=","value":42}`, all)
	assert.EqualError(t, err, "Person has no attribute shoe_size")
}

func TestEngine_RejectionsNeverReachTheStore(t *testing.T) {
	calls := 0
	store := filter.FetcherFunc[person](func(context.Context, filter.Query) ([]person, int, error) {
		calls++
		return nil, 0, nil
	})
	engine := filter.NewEngine[person](personSchema, store, zap.NewNop())

	_, err := engine.Find(context.Background(), `{"field":"login_times","operator":"contains","value":"%3%"}`, all)

	assert.ErrorIs(t, err, filter.ErrInvalidFilter)
	assert.Zero(t, calls)
}

func TestEngine_TextKeepsDateLikeValues(t *testing.T) {
	items := append(scenario(), person{FirstName: "2020-01-01 00:00:00", LastName: "2020-01-01"})
	engine := newEngine(items)
	ctx := context.Background()

	page, err := engine.Find(ctx, `{"field":"first_name","operator":"=","value":"2020-01-01 00:00:00"}`, all)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = engine.Find(ctx, `{"field":"first_name","operator":"in","value":["2020-01-01 00:00:00","Jean"]}`, all)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = engine.Find(ctx, `{"field":"first_name","operator":"like","value":"2020-01-01 00:%"}`, all)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = engine.Find(ctx, `{"field":"last_name","operator":"=","value":"2020-01-01"}`, all)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestEngine_CancelledContextPropagates(t *testing.T) {
	store := filter.FetcherFunc[person](func(ctx context.Context, _ filter.Query) ([]person, int, error) {
		return nil, 0, ctx.Err()
	})
	engine := filter.NewEngine[person](personSchema, store, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Find(ctx, `{"field":"first_name","operator":"=","value":"Jean"}`, all)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, filter.ErrInvalidFilter)
}

func TestEngine_StoreErrorsPropagateUnchanged(t *testing.T) {
	boom := errors.New("connection reset")
	store := filter.FetcherFunc[person](func(context.Context, filter.Query) ([]person, int, error) {
		return nil, 0, boom
	})
	engine := filter.NewEngine[person](personSchema, store, zap.NewNop())

	_, err := engine.Find(context.Background(), "", all)

	assert.Same(t, boom, err)
}

func TestEngine_Plan(t *testing.T) {
	engine := newEngine(nil)
	descriptors, err := filter.ParseDescriptors(`{"field":"firstName","operator":"=","value":"Jean"}`)
	require.NoError(t, err)

	q, err := engine.Plan(descriptors, query.PageRequest{Page: 3, PerPage: 10, Sort: "lastName", IsDesc: true})

	require.NoError(t, err)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 20, q.Offset)
	require.NotNil(t, q.Order)
	assert.Equal(t, "last_name", q.Order.Attribute.Column)
	assert.True(t, q.Order.Desc)
	group, ok := q.Where.(filter.Group)
	require.True(t, ok)
	assert.Equal(t, filter.LogicAnd, group.Logic)
	assert.Len(t, group.Terms, 1)
}

func TestEngine_EmptyStoreReturnsEmptyItems(t *testing.T) {
	page, err := newEngine(nil).Find(context.Background(), "", all)

	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Zero(t, page.Total)
}
