package application

import (
	"context"
	"time"

	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/davicafu/hexafilter/shared/platform/query"
	"github.com/davicafu/hexafilter/shared/platform/querylog"
	"go.uber.org/zap"
)

// QueryLogService consulta el registro de búsquedas.
type QueryLogService struct {
	store  querylog.Store
	engine *filter.Engine[querylog.Entry]
}

func NewQueryLogService(store querylog.Store, log *zap.Logger) *QueryLogService {
	return &QueryLogService{
		store:  store,
		engine: filter.NewEngine[querylog.Entry](querylog.Schema, store, log),
	}
}

// Search filtra las entradas con la misma sintaxis que el resto de listados.
func (s *QueryLogService) Search(ctx context.Context, rawFilters string, req query.PageRequest) (query.Page[querylog.Entry], error) {
	return s.engine.Find(ctx, rawFilters, req)
}

// Stats resume por modelo la actividad de la ventana indicada.
func (s *QueryLogService) Stats(ctx context.Context, window time.Duration) ([]querylog.ModelStats, error) {
	return s.store.Stats(ctx, time.Now().UTC().Add(-window))
}
