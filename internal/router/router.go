package router

import (
	"time"

	"github.com/adil-shabab/Project-Management-API/internal/handlers"
	"github.com/adil-shabab/Project-Management-API/internal/middleware"
	"github.com/adil-shabab/Project-Management-API/internal/types"
	"github.com/adil-shabab/Project-Management-API/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Uploaded avatars and task/project images
	r.Static("/uploads", utils.UploadDir())

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/notifications", middleware.AuthMiddleware(), handlers.NotificationStream)

		auth := api.Group("/auth")
		{
			auth.POST("/login", handlers.Login)
			auth.POST("/refresh", handlers.RefreshToken)
		}

		profile := api.Group("/profile", middleware.AuthMiddleware())
		{
			profile.GET("", handlers.Profile)
			profile.PUT("/edit", handlers.EditProfile)
			profile.PUT("/avatar", handlers.EditAvatar)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			tasks.POST("/create/me", handlers.CreateTaskForMe)
			tasks.GET("/pending", handlers.ListPendingTasks)
			tasks.GET("/today", handlers.ListTodayStartTasks)
			tasks.GET("/date/:date", handlers.TasksForDate)
			tasks.GET("/range/:start_date/:end_date", handlers.TasksForDateRange)
			tasks.GET("/:task_id", handlers.GetTask)
			tasks.POST("/:task_id/status", handlers.ChangeTaskStatus)
			tasks.POST("/:task_id/images", handlers.UploadTaskImage)
		}

		tickets := api.Group("/tickets", middleware.AuthMiddleware())
		{
			tickets.POST("", handlers.CreateTicket)
			tickets.POST("/:task_id/status", handlers.ChangeTicketStatus)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", handlers.CreateProject)
			projects.GET("", handlers.ListProjects)
			projects.GET("/latest", handlers.LatestHighPriorityProjects)
			projects.GET("/:project_id", handlers.GetProject)
			projects.PATCH("/:project_id", handlers.UpdateProject)
			projects.DELETE("/:project_id", handlers.DeleteProject)
			projects.GET("/:project_id/tickets", handlers.ProjectTickets)
			projects.POST("/:project_id/members", handlers.AddMember)
			projects.POST("/:project_id/images", handlers.UploadProjectImage)
		}

		notifications := api.Group("/notifications", middleware.AuthMiddleware())
		{
			notifications.GET("", handlers.ListNotifications)
			notifications.POST("/read", handlers.MarkNotificationsRead)
			notifications.GET("/unread", handlers.UnreadNotificationCheck)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("", handlers.ListUsers)
			users.POST("", handlers.CreateUser)
			users.GET("/:user_id", handlers.GetUser)
			users.PUT("/:user_id", handlers.UpdateUser)
			users.DELETE("/:user_id", handlers.DeleteUser)
			users.GET("/:user_id/tasks", handlers.UserScheduledTasks)
			users.POST("/:user_id/tasks", handlers.CreateTaskForUser)
		}
	}

	return r
}
