package filter

import (
	"context"

	"github.com/davicafu/hexafilter/shared/platform/query"
	"go.uber.org/zap"
)

// Fetcher es el puerto de acceso a datos: aplica el predicado, el orden y
// la paginación de q y devuelve la página junto al total sin paginar.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, q Query) ([]T, int, error)
}

// FetcherFunc adapta una función a Fetcher.
type FetcherFunc[T any] func(ctx context.Context, q Query) ([]T, int, error)

func (f FetcherFunc[T]) Fetch(ctx context.Context, q Query) ([]T, int, error) {
	return f(ctx, q)
}

// Engine traduce filtros de cliente en consultas sobre una entidad.
type Engine[T any] struct {
	schema Schema
	store  Fetcher[T]
	log    *zap.Logger
}

func NewEngine[T any](schema Schema, store Fetcher[T], log *zap.Logger) *Engine[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine[T]{schema: schema, store: store, log: log}
}

// Schema devuelve el esquema de la entidad.
func (e *Engine[T]) Schema() Schema { return e.schema }

// Find parsea el parámetro `filters` y ejecuta la búsqueda.
func (e *Engine[T]) Find(ctx context.Context, raw string, req query.PageRequest) (query.Page[T], error) {
	descriptors, err := ParseDescriptors(raw)
	if err != nil {
		e.log.Debug("filtros rechazados", zap.String("model", e.schema.Model()), zap.Error(err))
		return query.Page[T]{}, err
	}
	return e.Search(ctx, descriptors, req)
}

// Search ejecuta una búsqueda con descriptores ya normalizados.
// Los errores del almacén se devuelven sin envolver.
func (e *Engine[T]) Search(ctx context.Context, descriptors []Descriptor, req query.PageRequest) (query.Page[T], error) {
	q, err := e.Plan(descriptors, req)
	if err != nil {
		e.log.Debug("consulta rechazada", zap.String("model", e.schema.Model()), zap.Error(err))
		return query.Page[T]{}, err
	}

	items, total, err := e.store.Fetch(ctx, q)
	if err != nil {
		e.log.Error("error consultando almacén", zap.String("model", e.schema.Model()), zap.Error(err))
		return query.Page[T]{}, err
	}
	if items == nil {
		items = []T{}
	}

	e.log.Debug("búsqueda ejecutada",
		zap.String("model", e.schema.Model()),
		zap.Int("filters", len(descriptors)),
		zap.Int("total", total),
		zap.Int("items", len(items)),
	)
	return query.Page[T]{Items: items, Total: total}, nil
}

// Plan compila descriptores y paginación en una Query sin tocar datos.
func (e *Engine[T]) Plan(descriptors []Descriptor, req query.PageRequest) (Query, error) {
	if err := req.Validate(); err != nil {
		return Query{}, &ValidationError{Reason: err.Error()}
	}

	where, err := Compile(e.schema, descriptors, req.UseOr)
	if err != nil {
		return Query{}, err
	}

	return Query{
		Where:  where,
		Order:  ResolveOrder(e.schema, req.Sort, req.IsDesc),
		Limit:  req.Limit(),
		Offset: req.Offset(),
	}, nil
}
