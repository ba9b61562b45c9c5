package utils

import (
	"errors"
	"net/http"

	"github.com/davicafu/hexafilter/shared/domain/filter"
	"github.com/gin-gonic/gin"
)

// ErrorResponse define la estructura estándar para las respuestas de error.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// SendSuccess envía una respuesta exitosa con un payload de datos.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"data": data,
	})
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error": ErrorResponse{Message: message},
	})
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message)
}

func SendInternalServerError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, message)
}

// SendFilterError traduce los errores del motor de filtros a 400 con un
// código por tipo de fallo. Cualquier otro error es un 500.
func SendFilterError(c *gin.Context, err error) {
	if !errors.Is(err, filter.ErrInvalidFilter) {
		SendInternalServerError(c, "internal error")
		return
	}

	code := "invalid_filter"
	var (
		malformed   *filter.MalformedFilterError
		unknown     *filter.UnknownFieldError
		unsupported *filter.UnsupportedOperatorError
	)
	switch {
	case errors.As(err, &malformed):
		code = "malformed_filter"
	case errors.As(err, &unknown):
		code = "unknown_field"
	case errors.As(err, &unsupported):
		code = "unsupported_operator"
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error": ErrorResponse{Message: err.Error(), Code: code},
	})
}
