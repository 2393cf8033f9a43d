package main

import (
	"github.com/fenxiao-api/internal/config"
	"github.com/fenxiao-api/internal/constants"
	"github.com/fenxiao-api/internal/logger"
	"github.com/fenxiao-api/internal/models"
	"github.com/fenxiao-api/internal/provider"
	"github.com/fenxiao-api/internal/service"

	"github.com/shopspring/decimal"
)

// 演示数据：一级销售带注册码，二级挂靠并带比例覆盖，外加几笔订单。
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns: cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns: cfg.Database.Pool.MaxIdleConns,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	c := provider.NewContainer(cfg)

	primary, err := c.SalesRegistry.Register(service.RegisterSalesInput{
		Role:           constants.SalesRolePrimary,
		WechatName:     "demo-primary",
		PaymentMethod:  constants.PaymentMethodUSDT,
		PaymentAddress: "TDemoAddress001",
	})
	if err != nil {
		stdLog.Fatalf("创建一级销售失败: %v", err)
	}
	stdLog.Printf("一级销售: code=%s registration_code=%v", primary.SalesCode, primary.SecondaryRegistrationCode)

	secondary, err := c.SalesRegistry.Register(service.RegisterSalesInput{
		Role:          constants.SalesRoleSecondary,
		WechatName:    "demo-secondary",
		PaymentMethod: constants.PaymentMethodWechat,
	})
	if err != nil {
		stdLog.Fatalf("创建二级销售失败: %v", err)
	}
	stdLog.Printf("二级销售: code=%s", secondary.SalesCode)

	overrideRate := decimal.NewFromFloat(0.25)
	if _, err := c.HierarchyGraph.Attach(primary.ID, secondary.ID, &overrideRate); err != nil {
		stdLog.Fatalf("挂靠失败: %v", err)
	}

	seedOrders := []service.CreateOrderInput{
		{SalesCode: primary.SalesCode, Amount: decimal.NewFromInt(500), PaymentMethod: constants.PaymentMethodAlipay, Status: constants.OrderStatusPaid},
		{SalesCode: secondary.SalesCode, Amount: decimal.NewFromInt(1000), PaymentMethod: constants.PaymentMethodUSDT, Status: constants.OrderStatusConfirmed},
		{SalesCode: secondary.SalesCode, Amount: decimal.NewFromInt(300), PaymentMethod: constants.PaymentMethodWechat, Status: constants.OrderStatusPendingPayment},
	}
	for _, input := range seedOrders {
		if _, err := c.CommissionService.CreateOrder(input); err != nil {
			stdLog.Fatalf("创建订单失败: %v", err)
		}
	}

	if err := c.StatsAggregator.RecomputeAll(); err != nil {
		stdLog.Fatalf("统计重算失败: %v", err)
	}
	stdLog.Printf("演示数据写入完成")
}
