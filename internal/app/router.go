package app

import (
	"alumni_backend/docs"
	"alumni_backend/internal/config"
	"alumni_backend/internal/middleware"

	"alumni_backend/pkg/monitoring"

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
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/auth/me", c.auth.Me)

		// 社交申请
		requests := authGroup.Group("/requests")
		{
			requests.POST("", c.request.Create)
			requests.GET("/sent", c.request.ListSent)
			requests.GET("/received", c.request.ListReceived)
			requests.GET("/contacts", c.request.ListContacts)
			requests.GET("/status/:userId", c.request.PairStatus)
			requests.GET("/:id", c.request.Get)
			requests.POST("/:id/respond", c.request.Respond)
			requests.POST("/:id/cancel", c.request.Cancel)
		}

		// 会话与消息
		conversations := authGroup.Group("/conversations")
		{
			conversations.GET("/ws", c.conversation.HandleWS)
			conversations.POST("", c.conversation.Create)
			conversations.GET("", c.conversation.List)
			conversations.GET("/unread-count", c.conversation.TotalUnread)
			conversations.GET("/:id", c.conversation.Get)
			conversations.DELETE("/:id", c.conversation.Delete)
			conversations.POST("/:id/archive", c.conversation.Archive)
			conversations.POST("/:id/unarchive", c.conversation.Unarchive)
			conversations.POST("/:id/read", c.conversation.MarkRead)
			conversations.POST("/:id/messages", c.conversation.SendMessage)
			conversations.GET("/:id/messages", c.conversation.ListMessages)
		}
		authGroup.DELETE("/messages/:messageId", c.conversation.DeleteMessage)
		authGroup.POST("/attachments", c.conversation.UploadAttachment)

		// 通知
		notifications := authGroup.Group("/notifications")
		{
			notifications.GET("", c.notification.List)
			notifications.GET("/unread-count", c.notification.UnreadCount)
			notifications.POST("/read-all", c.notification.MarkAllRead)
			notifications.POST("/:id/read", c.notification.MarkRead)
			notifications.POST("/:id/archive", c.notification.Archive)
			notifications.DELETE("/:id", c.notification.Delete)
		}

		// 活动报名
		events := authGroup.Group("/events")
		{
			events.POST("", c.event.Create)
			events.GET("/:id", c.event.Get)
			events.DELETE("/:id", c.event.Cancel)
			events.POST("/:id/register", c.event.Register)
			events.DELETE("/:id/register", c.event.CancelRegistration)
		}
	}
}
