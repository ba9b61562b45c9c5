package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/hexafilter/internal/user/application"
	"github.com/davicafu/hexafilter/internal/user/domain"
	"github.com/davicafu/hexafilter/pkg/utils"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/davicafu/hexafilter/shared/platform/query"
)

// UserHandler encapsula los endpoints HTTP relacionados con User
type UserHandler struct {
	service         *application.UserService
	defaultPageSize int
	log             *zap.Logger
}

// NewUserHandler crea un nuevo UserHandler
func NewUserHandler(service *application.UserService, defaultPageSize int, log *zap.Logger) *UserHandler {
	return &UserHandler{service: service, defaultPageSize: defaultPageSize, log: log}
}

type createUserRequest struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name"`
	Email      string `json:"email" binding:"required,email"`
	IsAdmin    bool   `json:"is_admin"`
	LoginTimes *int   `json:"login_times" binding:"omitempty,min=0"`
}

type updateUserRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email" binding:"omitempty,email"`
	IsAdmin         *bool   `json:"is_admin"`
	LoginTimes      *int    `json:"login_times" binding:"omitempty,min=0"`
	ClearLoginTimes bool    `json:"clear_login_times"`
}

// ---------------- Handlers ----------------

// CreateUser endpoint POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), application.CreateUserInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		IsAdmin:    req.IsAdmin,
		LoginTimes: req.LoginTimes,
	})
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// GetUser endpoint GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser endpoint PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), id, application.UpdateUserInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		IsAdmin:         req.IsAdmin,
		LoginTimes:      req.LoginTimes,
		ClearLoginTimes: req.ClearLoginTimes,
	})
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser endpoint DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		h.sendError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListUsers endpoint GET /users?filters=...&page=&per_page=&sort=&is_desc=&use_or=
func (h *UserHandler) ListUsers(c *gin.Context) {
	req := query.PageRequest{Page: 1, PerPage: h.defaultPageSize}
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	page, err := h.service.ListUsers(c.Request.Context(), c.Query("filters"), req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// ---------------- Helpers ----------------

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *UserHandler) sendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		utils.SendNotFound(c, "user not found")
	case errors.Is(err, domain.ErrUserAlreadyExists):
		utils.SendError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidUser):
		utils.SendBadRequest(c, err.Error())
	default:
		if !errors.Is(err, filter.ErrInvalidFilter) {
			h.log.Error("user request failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		utils.SendFilterError(c, err)
	}
}
