package router

import (
	"github.com/fenxiao-api/internal/config"
	adminhandlers "github.com/fenxiao-api/internal/http/handlers/admin"
	publichandlers "github.com/fenxiao-api/internal/http/handlers/public"
	"github.com/fenxiao-api/internal/logger"
	"github.com/fenxiao-api/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 前台接口：下单归因与统计查询
		apiV1.POST("/orders", publicHandler.CreateOrder)
		apiV1.GET("/sales/:id/statistics", publicHandler.GetSalesStatistics)

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey))
		{
			// 销售账号
			admin.POST("/sales", adminHandler.RegisterSales)
			admin.GET("/sales", adminHandler.ListSales)
			admin.GET("/sales/:id", adminHandler.GetSales)
			admin.PATCH("/sales/:id/commission-rate", adminHandler.UpdateSalesRate)
			admin.PATCH("/sales/:id/status", adminHandler.UpdateSalesStatus)
			admin.GET("/sales/:id/children", adminHandler.ListChildren)
			admin.POST("/sales/:id/statistics/recompute", adminHandler.RecomputeSalesStatistics)

			// 层级关系
			admin.POST("/hierarchy", adminHandler.AttachHierarchy)
			admin.PUT("/hierarchy/rate", adminHandler.UpdateHierarchyRate)
			admin.POST("/hierarchy/detach", adminHandler.DetachHierarchy)

			// 订单
			admin.GET("/orders", adminHandler.ListOrders)
			admin.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)

			// 佣金与结算
			admin.GET("/commissions", adminHandler.ListCommissions)
			admin.POST("/settlements", adminHandler.SettleCommissions)

			// 统计排除与重算
			admin.POST("/exclusions", adminHandler.CreateExclusion)
			admin.DELETE("/exclusions/:code", adminHandler.DeleteExclusion)
			admin.GET("/exclusions", adminHandler.ListExclusions)
			admin.POST("/statistics/recompute", adminHandler.RecomputeStatistics)
		}
	}

	return r
}
