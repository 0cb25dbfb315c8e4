package app

import (
	"ielts_prep_backend/docs"
	"ielts_prep_backend/internal/config"
	"ielts_prep_backend/internal/middleware"
	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.PUT("/profile", c.user.UpdateProfile)
		authGroup.GET("/preferences", c.user.GetPreference)
		authGroup.PUT("/preferences", c.user.SavePreference)

		// 练习会话
		authGroup.POST("/sessions", c.session.Start)
		authGroup.GET("/sessions", c.session.List)
		authGroup.GET("/sessions/:id", c.session.Get)
		authGroup.POST("/sessions/:id/complete", c.session.Complete)

		// 学习分析
		analytics := authGroup.Group("/analytics")
		{
			analytics.GET("/readiness", c.analytics.GetReadiness)
			analytics.GET("/weaknesses", c.analytics.GetWeaknesses)
			analytics.GET("/recommendations", c.analytics.GetRecommendations)
		}

		// 学习资源
		authGroup.GET("/resources", c.resource.List)
		authGroup.GET("/resources/:id", c.resource.Get)

		// 教师接口
		teacher := authGroup.Group("/teacher")
		teacher.Use(middleware.RoleMiddleware(model.Teacher))
		{
			teacher.POST("/resources", c.resource.Create)
			teacher.POST("/resources/audio", c.resource.UploadAudio)
			teacher.DELETE("/resources/:id", c.resource.Delete)
		}

		// 管理员接口
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.GET("/users", c.user.ListUsers)
		}
	}
}
