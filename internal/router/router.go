package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"SafeWalk/internal/handler"
	"SafeWalk/internal/middleware"
)

func Register(h *server.Hertz, handlers *handler.Handlers) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	h.GET("/healthz", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := h.Group("/v1")

	// 公开追踪页，不走鉴权，token 即凭据
	track := v1.Group("/track")
	track.Use(middleware.TrackingRateLimitMiddleware())
	{
		track.GET("/:token", handlers.GetLiveTracking)
	}

	// 告警路由
	alerts := v1.Group("/alerts")
	alerts.Use(middleware.AuthMiddleware(), middleware.GeneralRateLimitMiddleware())
	{
		alerts.POST("", handlers.CreateAlert)
		alerts.GET("/:alert_id", handlers.GetAlert)
		alerts.POST("/:alert_id/cancel", handlers.CancelAlert)
		alerts.POST("/:alert_id/safe", handlers.MarkSafe)
	}

	// 行走会话路由
	walks := v1.Group("/walks")
	walks.Use(middleware.AuthMiddleware())
	{
		walks.POST("", handlers.StartWalk)
		walks.GET("/active", handlers.GetActiveSession)
		walks.POST("/location", middleware.LocationRateLimitMiddleware(), handlers.UpdateLocation)
		walks.POST("/:session_id/stop", middleware.StopWalkRateLimitMiddleware(), handlers.StopWalk)
	}

	// 安全区路由
	safeLocations := v1.Group("/safe-locations")
	safeLocations.Use(middleware.AuthMiddleware())
	{
		safeLocations.GET("", handlers.ListSafeLocations)
		safeLocations.POST("", handlers.CreateSafeLocation)
		safeLocations.PUT("/:location_id", handlers.UpdateSafeLocation)
		safeLocations.DELETE("/:location_id", handlers.DeleteSafeLocation)
	}

	// 辖区机构路由（政务账号）
	authorities := v1.Group("/authorities")
	authorities.Use(middleware.AuthMiddleware())
	{
		authorities.POST("", handlers.CreateAuthority)
		authorities.PUT("/:authority_id", handlers.UpdateAuthority)
		authorities.DELETE("/:authority_id", handlers.DeleteAuthority)
	}

	// 紧急联系人路由
	contacts := v1.Group("/contacts")
	contacts.Use(middleware.AuthMiddleware())
	{
		contacts.GET("", handlers.ListContacts)
		contacts.POST("", handlers.CreateContact)
		contacts.PUT("/:contact_id", handlers.UpdateContact)
		contacts.DELETE("/:contact_id", handlers.DeleteContact)
	}

	// 用户路由
	users := v1.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.PUT("/me/passwords", handlers.SetPasswords)
	}
}
