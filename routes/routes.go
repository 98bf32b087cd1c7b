package routes

import (
	"TaskPilotGo/controllers"
	"TaskPilotGo/middleware"
	"TaskPilotGo/models"
	"TaskPilotGo/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps 路由需要的外部依赖
type Deps struct {
	DB           *gorm.DB
	Clock        services.Clock
	Weights      models.StressWeights
	Flash        services.FlashStore
	IsProduction bool
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	if deps.Flash == nil {
		deps.Flash = services.NopFlashStore{}
	}

	auth := services.NewAuthorizer()
	taskService := services.NewTaskService(deps.DB, deps.Clock, auth)
	projectService := services.NewProjectService(deps.DB, auth)
	dashboardService := services.NewDashboardService(deps.DB, deps.Clock, deps.Weights)
	activityService := services.NewActivityService(deps.DB)

	authController := controllers.NewAuthController(deps.DB)
	userController := controllers.NewUserController(deps.DB)
	taskController := controllers.NewTaskController(taskService, deps.Flash)
	projectController := controllers.NewProjectController(projectService, deps.Flash)
	dashboardController := controllers.NewDashboardController(dashboardService, deps.Flash)
	activityController := controllers.NewActivityController(activityService)

	// 公开路由（无需认证），仅限开发环境
	public := r.Group("/api/v1")
	public.Use(middleware.DevOnly(deps.IsProduction))
	{
		public.POST("/auth/test-user", authController.CreateTestUser)
	}

	// 需要认证的路由
	private := r.Group("/api/v1")
	private.Use(middleware.AuthMiddleware()) // 应用认证中间件
	{
		private.GET("/user", userController.GetUser)
		private.GET("/dashboard", dashboardController.Show)

		private.GET("/tasks", taskController.Index)
		private.POST("/tasks", taskController.Store)
		private.POST("/tasks/bulk", taskController.Bulk)
		private.PATCH("/tasks/reorder", taskController.Reorder)
		private.GET("/tasks/:id/edit", taskController.Edit)
		private.PUT("/tasks/:id", taskController.Update)
		private.DELETE("/tasks/:id", taskController.Destroy)

		private.GET("/projects", projectController.Index)
		private.POST("/projects", projectController.Store)
		private.PUT("/projects/:id", projectController.Update)
		private.DELETE("/projects/:id", projectController.Destroy)

		private.GET("/activity", activityController.Index)
	}

	// 测试路由
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
}
