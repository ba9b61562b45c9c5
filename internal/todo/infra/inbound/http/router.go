package http

import "github.com/gin-gonic/gin"

// RegisterTodoRoutes registra las rutas HTTP para el dominio de todos.
func RegisterTodoRoutes(r gin.IRouter, handler *TodoHandler) {
	// Agrupamos todas las rutas bajo el prefijo "/todos"
	todos := r.Group("/todos")
	{
		todos.POST("", handler.CreateTodo)       // Crear un todo
		todos.GET("", handler.ListTodos)         // Listar con filtros
		todos.GET("/:id", handler.GetTodo)       // Obtener un todo por su ID
		todos.PUT("/:id", handler.UpdateTodo)    // Actualizar un todo existente
		todos.DELETE("/:id", handler.DeleteTodo) // Eliminar un todo
	}
}
