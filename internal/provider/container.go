package provider

import (
	"github.com/fenxiao-api/internal/cache"
	"github.com/fenxiao-api/internal/config"
	"github.com/fenxiao-api/internal/logger"
	"github.com/fenxiao-api/internal/models"
	"github.com/fenxiao-api/internal/queue"
	"github.com/fenxiao-api/internal/repository"
	"github.com/fenxiao-api/internal/service"
	"github.com/shopspring/decimal"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	SalesRepo      repository.SalesAccountRepository
	HierarchyRepo  repository.HierarchyLinkRepository
	OrderRepo      repository.OrderRepository
	CommissionRepo repository.CommissionRecordRepository
	StatsRepo      repository.StatisticsSnapshotRepository
	ExclusionRepo  repository.ExclusionEntryRepository

	// Services
	SalesRegistry     *service.SalesRegistry
	HierarchyGraph    *service.HierarchyGraph
	OrderAttributor   *service.OrderAttributor
	CommissionService *service.CommissionService
	StatsAggregator   *service.StatisticsAggregator
	SettlementLedger  *service.SettlementLedger
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.SalesRepo = repository.NewSalesAccountRepository(db)
	c.HierarchyRepo = repository.NewHierarchyLinkRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CommissionRepo = repository.NewCommissionRecordRepository(db)
	c.StatsRepo = repository.NewStatisticsSnapshotRepository(db)
	c.ExclusionRepo = repository.NewExclusionEntryRepository(db)
}

func (c *Container) initServices() {
	policy := buildCommissionPolicy(&c.Config.Commission)

	c.SalesRegistry = service.NewSalesRegistry(c.SalesRepo, policy)
	c.HierarchyGraph = service.NewHierarchyGraph(c.SalesRepo, c.HierarchyRepo)
	c.OrderAttributor = service.NewOrderAttributor(c.SalesRepo, c.HierarchyRepo)
	c.CommissionService = service.NewCommissionService(
		c.OrderRepo,
		c.CommissionRepo,
		c.OrderAttributor,
		policy,
		c.QueueClient,
	)
	c.StatsAggregator = service.NewStatisticsAggregator(
		c.SalesRepo,
		c.OrderRepo,
		c.CommissionRepo,
		c.ExclusionRepo,
		c.StatsRepo,
		c.HierarchyRepo,
		policy,
	)
	c.SettlementLedger = service.NewSettlementLedger(c.CommissionRepo, c.QueueClient)
}

// buildCommissionPolicy 从配置构建佣金策略，非法值回落到默认策略
func buildCommissionPolicy(cfg *config.CommissionConfig) service.CommissionPolicy {
	policy := service.DefaultCommissionPolicy()
	if cfg == nil {
		return policy
	}
	if cfg.PrimaryBaseRate > 0 && cfg.PrimaryBaseRate <= 1 {
		policy.PrimaryBaseRate = decimal.NewFromFloat(cfg.PrimaryBaseRate)
	}
	if cfg.SecondaryRate > 0 && cfg.SecondaryRate <= 1 {
		policy.SecondaryDefaultRate = decimal.NewFromFloat(cfg.SecondaryRate)
	}
	if cfg.LocalPaymentMethod != "" {
		policy.LocalPaymentMethod = cfg.LocalPaymentMethod
	}
	if cfg.LocalFXRate > 0 {
		policy.LocalFXRate = decimal.NewFromFloat(cfg.LocalFXRate)
	}
	return policy
}
