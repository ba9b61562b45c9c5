package querylog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/davicafu/hexafilter/shared/platform/persistence/memory"
	"github.com/davicafu/hexafilter/shared/platform/query"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry registra una búsqueda filtrada: qué se pidió y qué devolvió.
type Entry struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Model       string    `json:"model" db:"model"`
	Filters     string    `json:"filters" db:"filters"`
	UseOr       bool      `json:"use_or" db:"use_or"`
	Sort        string    `json:"sort" db:"sort"`
	IsDesc      bool      `json:"is_desc" db:"is_desc"`
	Page        int       `json:"page" db:"page"`
	PerPage     int       `json:"per_page" db:"per_page"`
	Total       int       `json:"total" db:"total"`
	DurationMs  int64     `json:"duration_ms" db:"duration_ms"`
	Error       string    `json:"error" db:"error"`
	RequestedAt time.Time `json:"requested_at" db:"requested_at"`
}

// Schema es el esquema filtrable de las entradas del registro.
var Schema = filter.NewSchema("QueryLog",
	filter.Attribute{Name: "id", Type: filter.TypeText},
	filter.Attribute{Name: "model", Type: filter.TypeText},
	filter.Attribute{Name: "filters", Type: filter.TypeText},
	filter.Attribute{Name: "use_or", Type: filter.TypeBoolean},
	filter.Attribute{Name: "sort", Type: filter.TypeText},
	filter.Attribute{Name: "is_desc", Type: filter.TypeBoolean},
	filter.Attribute{Name: "page", Type: filter.TypeNumber},
	filter.Attribute{Name: "per_page", Type: filter.TypeNumber},
	filter.Attribute{Name: "total", Type: filter.TypeNumber},
	filter.Attribute{Name: "duration_ms", Type: filter.TypeNumber},
	filter.Attribute{Name: "error", Type: filter.TypeText},
	filter.Attribute{Name: "requested_at", Type: filter.TypeTemporal},
)

// Field devuelve el valor de una columna para el evaluador en memoria.
func Field(e Entry, column string) any {
	switch column {
	case "id":
		return e.ID.String()
	case "model":
		return e.Model
	case "filters":
		return e.Filters
	case "use_or":
		return e.UseOr
	case "sort":
		return e.Sort
	case "is_desc":
		return e.IsDesc
	case "page":
		return e.Page
	case "per_page":
		return e.PerPage
	case "total":
		return e.Total
	case "duration_ms":
		return e.DurationMs
	case "error":
		return e.Error
	case "requested_at":
		return e.RequestedAt
	}
	return nil
}

// Recorder persiste lotes de entradas.
type Recorder interface {
	LogBatch(ctx context.Context, entries []Entry) error
}

// ModelStats resume las búsquedas de un modelo.
type ModelStats struct {
	Model         string  `json:"model" db:"model"`
	Queries       int     `json:"queries" db:"queries"`
	Errors        int     `json:"errors" db:"errors"`
	AvgDurationMs float64 `json:"avg_duration_ms" db:"avg_duration_ms"`
}

// Store es un Recorder que además se puede consultar.
type Store interface {
	Recorder
	filter.Fetcher[Entry]
	Stats(ctx context.Context, since time.Time) ([]ModelStats, error)
}

// Tee reparte cada lote entre varios recorders. Un fallo no impide que el
// resto reciba el lote.
type Tee []Recorder

func (t Tee) LogBatch(ctx context.Context, entries []Entry) error {
	var errs []error
	for _, r := range t {
		if err := r.LogBatch(ctx, entries); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ZapRecorder escribe las entradas en el log.
type ZapRecorder struct {
	log *zap.Logger
}

func NewZapRecorder(log *zap.Logger) *ZapRecorder { return &ZapRecorder{log: log} }

func (r *ZapRecorder) LogBatch(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		r.log.Info("query",
			zap.String("model", e.Model),
			zap.String("filters", e.Filters),
			zap.Bool("use_or", e.UseOr),
			zap.String("sort", e.Sort),
			zap.Int("page", e.Page),
			zap.Int("per_page", e.PerPage),
			zap.Int("total", e.Total),
			zap.Int64("duration_ms", e.DurationMs),
			zap.String("error", e.Error),
		)
	}
	return nil
}

// MemoryRecorder guarda las entradas en memoria y permite buscarlas con el
// mismo motor de filtros.
type MemoryRecorder struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

func (r *MemoryRecorder) LogBatch(_ context.Context, entries []Entry) error {
	r.mu.Lock()
	r.entries = append(r.entries, entries...)
	r.mu.Unlock()
	return nil
}

// Entries devuelve una copia de las entradas guardadas.
func (r *MemoryRecorder) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

func (r *MemoryRecorder) Fetch(_ context.Context, q filter.Query) ([]Entry, int, error) {
	page, total := memory.Fetch(r.Entries(), q, Field)
	return page, total, nil
}

// Stats agrupa por modelo las entradas desde since, ordenadas por modelo.
func (r *MemoryRecorder) Stats(_ context.Context, since time.Time) ([]ModelStats, error) {
	byModel := map[string]*ModelStats{}
	durations := map[string]int64{}
	for _, e := range r.Entries() {
		if e.RequestedAt.Before(since) {
			continue
		}
		st, ok := byModel[e.Model]
		if !ok {
			st = &ModelStats{Model: e.Model}
			byModel[e.Model] = st
		}
		st.Queries++
		if e.Error != "" {
			st.Errors++
		}
		durations[e.Model] += e.DurationMs
	}

	out := make([]ModelStats, 0, len(byModel))
	for model, st := range byModel {
		st.AvgDurationMs = float64(durations[model]) / float64(st.Queries)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out, nil
}

var _ Store = (*MemoryRecorder)(nil)

// ---------- Registro asíncrono por lotes ----------

// BatchRecorder acumula entradas y las envía al Recorder por lotes, cuando
// se llena el lote o vence el intervalo. Record nunca bloquea: si el buffer
// está lleno, o el recorder ya está cerrado, la entrada se descarta.
type BatchRecorder struct {
	sink      Recorder
	ch        chan Entry
	batchSize int
	interval  time.Duration
	log       *zap.Logger
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex // protege closed frente al close(ch)
	closed bool
}

func NewBatchRecorder(sink Recorder, batchSize int, interval time.Duration, log *zap.Logger) *BatchRecorder {
	if batchSize <= 0 {
		batchSize = 100
	}
	b := &BatchRecorder{
		sink:      sink,
		ch:        make(chan Entry, batchSize*4),
		batchSize: batchSize,
		interval:  interval,
		log:       log,
		done:      make(chan struct{}),
	}
	go b.loop()
	return b
}

// Record encola una entrada. Completa ID y RequestedAt si vienen vacíos.
func (b *BatchRecorder) Record(e Entry) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.RequestedAt.IsZero() {
		e.RequestedAt = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.log.Debug("query log cerrado, entrada descartada", zap.String("model", e.Model))
		return
	}
	select {
	case b.ch <- e:
	default:
		b.log.Warn("query log buffer lleno, entrada descartada", zap.String("model", e.Model))
	}
}

// Close vacía el buffer pendiente y detiene el worker. Las llamadas a Record
// posteriores se descartan.
func (b *BatchRecorder) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.ch)
		b.mu.Unlock()
		<-b.done
	})
}

func (b *BatchRecorder) loop() {
	defer close(b.done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	batch := make([]Entry, 0, b.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.sink.LogBatch(ctx, batch); err != nil {
			b.log.Warn("query log flush failed", zap.Int("entries", len(batch)), zap.Error(err))
		}
		batch = make([]Entry, 0, b.batchSize)
	}

	for {
		select {
		case e, ok := <-b.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, e)
			if len(batch) >= b.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// ---------- Construcción de entradas ----------

// Tracker recibe entradas sin bloquear al llamador.
type Tracker interface {
	Record(e Entry)
}

var _ Tracker = (*BatchRecorder)(nil)

// NewEntry describe una búsqueda ya ejecutada.
func NewEntry(model, filters string, req query.PageRequest, total int, took time.Duration, err error) Entry {
	e := Entry{
		Model:      model,
		Filters:    filters,
		UseOr:      req.UseOr,
		Sort:       req.Sort,
		IsDesc:     req.IsDesc,
		Page:       req.Page,
		PerPage:    req.PerPage,
		Total:      total,
		DurationMs: took.Milliseconds(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
