package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes wires the public auth endpoints and the authenticated API
// surface. authMiddleware must populate "user_id" in the gin context.
func RegisterRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc, tasks *TaskHandler, categories *CategoryHandler, auth *AuthHandler) {
	r.POST("/auth/register", auth.Register)
	r.POST("/auth/login", auth.Login)

	api := r.Group("/api/v1", authMiddleware)

	api.POST("/tasks", tasks.CreateTask)
	api.GET("/tasks", tasks.GetTasks)
	api.GET("/tasks/:id", tasks.GetTaskByID)
	api.PUT("/tasks/:id", tasks.UpdateTask)
	api.DELETE("/tasks/:id", tasks.DeleteTask)
	api.GET("/tasks/:id/deletion-check", tasks.CheckDeletion)
	api.PUT("/tasks/:id/complete", tasks.CompleteTask)
	api.PUT("/tasks/:id/progress", tasks.UpdateProgress)
	api.PUT("/tasks/:id/parent", tasks.SetParent)
	api.DELETE("/tasks/:id/parent", tasks.RemoveParent)
	api.GET("/tasks/:id/depth", tasks.GetDepth)
	api.GET("/tasks/:id/subtasks", tasks.GetSubTasks)

	api.GET("/search", tasks.SearchTasks)
	api.GET("/overdue", tasks.GetOverdue)
	api.GET("/due-today", tasks.GetDueToday)
	api.GET("/due-this-week", tasks.GetDueThisWeek)

	api.GET("/stats", tasks.GetStats)
	api.GET("/stats/priorities", tasks.GetPriorityStats)
	api.GET("/stats/categories/:id", tasks.GetStatsByCategory)

	api.POST("/categories", categories.CreateCategory)
	api.GET("/categories", categories.GetCategories)
}
