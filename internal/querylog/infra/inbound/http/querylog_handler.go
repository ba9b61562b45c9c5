package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/hexafilter/internal/querylog/application"
	"github.com/davicafu/hexafilter/pkg/utils"
	"github.com/davicafu/hexafilter/shared/platform/query"
)

const defaultStatsWindow = 24 * time.Hour

type QueryLogHandler struct {
	service         *application.QueryLogService
	defaultPageSize int
}

func NewQueryLogHandler(service *application.QueryLogService, defaultPageSize int) *QueryLogHandler {
	return &QueryLogHandler{service: service, defaultPageSize: defaultPageSize}
}

// List endpoint GET /query-logs
func (h *QueryLogHandler) List(c *gin.Context) {
	req := query.PageRequest{Page: 1, PerPage: h.defaultPageSize, Sort: "requested_at", IsDesc: true}
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	page, err := h.service.Search(c.Request.Context(), c.Query("filters"), req)
	if err != nil {
		utils.SendFilterError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Stats endpoint GET /query-logs/stats?window=1h
func (h *QueryLogHandler) Stats(c *gin.Context) {
	window := defaultStatsWindow
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			utils.SendBadRequest(c, "invalid window, use a Go duration like 1h or 30m")
			return
		}
		window = d
	}

	stats, err := h.service.Stats(c.Request.Context(), window)
	if err != nil {
		utils.SendInternalServerError(c, "could not compute query stats")
		return
	}
	utils.SendSuccess(c, http.StatusOK, stats)
}

func RegisterQueryLogRoutes(r gin.IRouter, handler *QueryLogHandler) {
	logs := r.Group("/query-logs")
	{
		logs.GET("", handler.List)
		logs.GET("/stats", handler.Stats)
	}
}
