package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/hexafilter/internal/querylog/application"
	"github.com/davicafu/hexafilter/shared/platform/querylog"
)

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	now := time.Now().UTC()
	store := querylog.NewMemoryRecorder()
	require.NoError(t, store.LogBatch(context.Background(), []querylog.Entry{
		{Model: "User", Total: 2, DurationMs: 3, RequestedAt: now.Add(-2 * time.Minute)},
		{Model: "Todo", Total: 1, DurationMs: 1, RequestedAt: now.Add(-time.Minute)},
		{Model: "User", Error: "User has no attribute x", RequestedAt: now},
	}))

	r := gin.New()
	RegisterQueryLogRoutes(r.Group("/api"), NewQueryLogHandler(application.NewQueryLogService(store, zap.NewNop()), 20))
	return r
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestQueryLogList(t *testing.T) {
	r := setup(t)

	params := url.Values{"filters": {`{"field":"error","operator":"is_not_empty"}`}}
	w := get(r, "/api/query-logs?"+params.Encode())

	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items []querylog.Entry `json:"items"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "User", page.Items[0].Model)

	// Por defecto, los más recientes primero
	w = get(r, "/api/query-logs")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 3)
	assert.Equal(t, "Todo", page.Items[1].Model)

	w = get(r, "/api/query-logs?filters="+url.QueryEscape(`{"field":"nope","operator":"="}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryLogStats(t *testing.T) {
	r := setup(t)

	w := get(r, "/api/query-logs/stats?window=90s")

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []querylog.ModelStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Todo", resp.Data[0].Model)
	assert.Equal(t, 1, resp.Data[1].Queries)

	assert.Equal(t, http.StatusBadRequest, get(r, "/api/query-logs/stats?window=ayer").Code)
}
