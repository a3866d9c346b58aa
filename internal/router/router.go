package router

import (
	"time"

	"github.com/flowboard/flowboard/internal/handlers"
	"github.com/flowboard/flowboard/internal/middleware"
	"github.com/flowboard/flowboard/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:project_id", middleware.AuthMiddleware(), handlers.BoardSocket)

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.POST("/sync", handlers.SyncUser)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.GET("", handlers.ListProjects)
			projects.POST("", handlers.CreateProject)

			// Pipeline endpoints
			projects.GET("/:project_id/pipelines", handlers.ListPipelines)
			projects.POST("/:project_id/pipelines", handlers.CreatePipeline)
			projects.GET("/:project_id/pipelines/:pipeline_id", handlers.GetPipeline)
			projects.PUT("/:project_id/pipelines/:pipeline_id", handlers.UpdatePipeline)
			projects.DELETE("/:project_id/pipelines/:pipeline_id", handlers.DeletePipeline)

			// Task endpoints
			projects.GET("/:project_id/tasks", handlers.ListTasks)
			projects.POST("/:project_id/tasks", handlers.CreateTask)
			projects.PUT("/:project_id/tasks/:task_id", handlers.UpdateTask)
			projects.DELETE("/:project_id/tasks/:task_id", handlers.DeleteTask)
		}
	}

	return r
}
