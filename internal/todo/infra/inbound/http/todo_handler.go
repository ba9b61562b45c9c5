package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/hexafilter/internal/todo/application"
	todoDomain "github.com/davicafu/hexafilter/internal/todo/domain"
	"github.com/davicafu/hexafilter/pkg/utils"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/davicafu/hexafilter/shared/platform/query"
)

// TodoHandler gestiona las peticiones HTTP para los todos.
type TodoHandler struct {
	service         *application.TodoService
	defaultPageSize int
	log             *zap.Logger
}

// NewTodoHandler crea una nueva instancia de TodoHandler.
func NewTodoHandler(service *application.TodoService, defaultPageSize int, log *zap.Logger) *TodoHandler {
	return &TodoHandler{service: service, defaultPageSize: defaultPageSize, log: log}
}

// --- DTOs (Data Transfer Objects) para las peticiones ---

type createTodoRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
}

type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
}

// --- Handlers ---

func (h *TodoHandler) CreateTodo(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	todo, err := h.service.CreateTodo(c.Request.Context(), req.Title, req.Description, todoDomain.Priority(req.Priority))
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, todo)
}

func (h *TodoHandler) GetTodo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid todo id")
		return
	}

	todo, err := h.service.GetTodo(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid todo id")
		return
	}

	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	var priority *todoDomain.Priority
	if req.Priority != nil {
		p := todoDomain.Priority(*req.Priority)
		priority = &p
	}

	todo, err := h.service.UpdateTodo(c.Request.Context(), id, req.Title, req.Description, priority)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid todo id")
		return
	}

	if err := h.service.DeleteTodo(c.Request.Context(), id); err != nil {
		h.sendError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListTodos acepta los mismos parámetros que /users: filters, page,
// per_page, sort, is_desc y use_or.
func (h *TodoHandler) ListTodos(c *gin.Context) {
	req := query.PageRequest{Page: 1, PerPage: h.defaultPageSize}
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	page, err := h.service.ListTodos(c.Request.Context(), c.Query("filters"), req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *TodoHandler) sendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, todoDomain.ErrTodoNotFound):
		utils.SendNotFound(c, "todo not found")
	case errors.Is(err, todoDomain.ErrTodoAlreadyExists):
		utils.SendError(c, http.StatusConflict, err.Error())
	case errors.Is(err, todoDomain.ErrInvalidTodo):
		utils.SendBadRequest(c, err.Error())
	default:
		if !errors.Is(err, filter.ErrInvalidFilter) {
			h.log.Error("todo request failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		utils.SendFilterError(c, err)
	}
}
