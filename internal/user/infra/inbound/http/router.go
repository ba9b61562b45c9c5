package http

import "github.com/gin-gonic/gin"

// RegisterUserRoutes registra las rutas de usuarios bajo r (normalmente el
// grupo con el prefijo de la API).
func RegisterUserRoutes(r gin.IRouter, handler *UserHandler) {
	users := r.Group("/users")
	{
		users.POST("", handler.CreateUser)
		users.GET("", handler.ListUsers)
		users.GET("/:id", handler.GetUser)
		users.PUT("/:id", handler.UpdateUser)
		users.DELETE("/:id", handler.DeleteUser)
	}
}
