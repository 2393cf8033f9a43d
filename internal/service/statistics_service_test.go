package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fenxiao-api/internal/constants"
	"github.com/fenxiao-api/internal/models"
	"github.com/fenxiao-api/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newStatisticsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:statistics_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.SalesAccount{},
		&models.HierarchyLink{},
		&models.Order{},
		&models.CommissionRecord{},
		&models.StatisticsSnapshot{},
		&models.ExclusionEntry{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

type statisticsTestEnv struct {
	db         *gorm.DB
	registry   *SalesRegistry
	graph      *HierarchyGraph
	orders     *CommissionService
	aggregator *StatisticsAggregator
}

func newStatisticsTestEnv(t *testing.T) *statisticsTestEnv {
	t.Helper()
	db := newStatisticsTestDB(t)
	salesRepo := repository.NewSalesAccountRepository(db)
	linkRepo := repository.NewHierarchyLinkRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	commissionRepo := repository.NewCommissionRecordRepository(db)
	exclusionRepo := repository.NewExclusionEntryRepository(db)
	statsRepo := repository.NewStatisticsSnapshotRepository(db)
	policy := DefaultCommissionPolicy()
	attributor := NewOrderAttributor(salesRepo, linkRepo)
	return &statisticsTestEnv{
		db:         db,
		registry:   NewSalesRegistry(salesRepo, policy),
		graph:      NewHierarchyGraph(salesRepo, linkRepo),
		orders:     NewCommissionService(orderRepo, commissionRepo, attributor, policy, nil),
		aggregator: NewStatisticsAggregator(salesRepo, orderRepo, commissionRepo, exclusionRepo, statsRepo, linkRepo, policy),
	}
}

func (env *statisticsTestEnv) mustRegister(t *testing.T, role, name string) *models.SalesAccount {
	t.Helper()
	account, err := env.registry.Register(RegisterSalesInput{Role: role, WechatName: name})
	if err != nil {
		t.Fatalf("register %s failed: %v", name, err)
	}
	return account
}

func (env *statisticsTestEnv) mustCreateOrder(t *testing.T, code string, amount int64, paymentMethod, status string) *OrderCommissionResult {
	t.Helper()
	result, err := env.orders.CreateOrder(CreateOrderInput{
		SalesCode:     code,
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: paymentMethod,
		Status:        status,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return result
}

func TestRecomputeIdempotent(t *testing.T) {
	env := newStatisticsTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "idem-p")

	env.mustCreateOrder(t, primary.SalesCode, 500, constants.PaymentMethodAlipay, constants.OrderStatusPaid)
	env.mustCreateOrder(t, primary.SalesCode, 300, constants.PaymentMethodAlipay, constants.OrderStatusPendingPayment)
	env.mustCreateOrder(t, primary.SalesCode, 200, constants.PaymentMethodAlipay, constants.OrderStatusCanceled)

	first, err := env.aggregator.Recompute(primary.ID)
	if err != nil {
		t.Fatalf("first recompute failed: %v", err)
	}
	second, err := env.aggregator.Recompute(primary.ID)
	if err != nil {
		t.Fatalf("second recompute failed: %v", err)
	}

	if first.ValidOrders != second.ValidOrders ||
		first.ConfirmedOrders != second.ConfirmedOrders ||
		!first.TotalAmount.Equal(second.TotalAmount.Decimal) ||
		!first.ConfirmedAmount.Equal(second.ConfirmedAmount.Decimal) ||
		!first.CommissionAmount.Equal(second.CommissionAmount.Decimal) ||
		!first.PendingCommission.Equal(second.PendingCommission.Decimal) {
		t.Fatalf("recompute is not idempotent: %+v vs %+v", first, second)
	}

	if first.ValidOrders != 2 {
		t.Fatalf("expected 2 valid orders (canceled excluded), got %d", first.ValidOrders)
	}
	if first.ConfirmedOrders != 1 {
		t.Fatalf("expected 1 confirmed order, got %d", first.ConfirmedOrders)
	}
	if first.TotalAmount.String() != "800.00" {
		t.Fatalf("expected total amount 800.00, got %s", first.TotalAmount)
	}
	if first.ConfirmedAmount.String() != "500.00" {
		t.Fatalf("expected confirmed amount 500.00, got %s", first.ConfirmedAmount)
	}

	// 只有唯一一行快照被维护
	var count int64
	if err := env.db.Model(&models.StatisticsSnapshot{}).Where("sales_id = ?", primary.ID).Count(&count).Error; err != nil {
		t.Fatalf("count snapshots failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one snapshot row, got %d", count)
	}
}

func TestRecomputeConfirmedOnlyCommission(t *testing.T) {
	env := newStatisticsTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "conf-p")

	// 待支付订单有佣金记录但不计入佣金统计
	env.mustCreateOrder(t, primary.SalesCode, 500, constants.PaymentMethodAlipay, constants.OrderStatusPendingPayment)
	env.mustCreateOrder(t, primary.SalesCode, 500, constants.PaymentMethodAlipay, constants.OrderStatusPaid)

	snapshot, err := env.aggregator.Recompute(primary.ID)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if snapshot.CommissionAmount.String() != "200.00" {
		t.Fatalf("expected commission 200.00 from confirmed order only, got %s", snapshot.CommissionAmount)
	}
	if snapshot.PendingCommission.String() != "200.00" {
		t.Fatalf("expected pending commission 200.00, got %s", snapshot.PendingCommission)
	}
	if snapshot.PaidCommission.String() != "0.00" {
		t.Fatalf("expected paid commission 0.00, got %s", snapshot.PaidCommission)
	}
}

func TestRecomputeAppliesLocalFXRate(t *testing.T) {
	env := newStatisticsTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "fx-p")

	env.mustCreateOrder(t, primary.SalesCode, 100, constants.PaymentMethodUSDT, constants.OrderStatusPaid)

	snapshot, err := env.aggregator.Recompute(primary.ID)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	// usdt 订单按固定汇率 7.20 折算：100 -> 720，佣金 40 -> 288
	if snapshot.TotalAmount.String() != "720.00" {
		t.Fatalf("expected converted total 720.00, got %s", snapshot.TotalAmount)
	}
	if snapshot.ConfirmedAmount.String() != "720.00" {
		t.Fatalf("expected converted confirmed amount 720.00, got %s", snapshot.ConfirmedAmount)
	}
	if snapshot.CommissionAmount.String() != "288.00" {
		t.Fatalf("expected converted commission 288.00, got %s", snapshot.CommissionAmount)
	}
}

func TestSecondaryContributionFlowsToPrimary(t *testing.T) {
	env := newStatisticsTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "flow-p")
	secondary := env.mustRegister(t, constants.SalesRoleSecondary, "flow-s")
	override := decimal.NewFromFloat(0.25)
	if _, err := env.graph.Attach(primary.ID, secondary.ID, &override); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	env.mustCreateOrder(t, secondary.SalesCode, 1000, constants.PaymentMethodAlipay, constants.OrderStatusConfirmed)

	primarySnapshot, err := env.aggregator.Recompute(primary.ID)
	if err != nil {
		t.Fatalf("recompute primary failed: %v", err)
	}
	secondarySnapshot, err := env.aggregator.Recompute(secondary.ID)
	if err != nil {
		t.Fatalf("recompute secondary failed: %v", err)
	}

	// 订单归因到二级：订单量只出现在二级账号名下
	if primarySnapshot.ValidOrders != 0 {
		t.Fatalf("primary must not count secondary orders, got %d", primarySnapshot.ValidOrders)
	}
	if secondarySnapshot.ValidOrders != 1 {
		t.Fatalf("expected 1 valid order on secondary, got %d", secondarySnapshot.ValidOrders)
	}
	// 一级拿净佣金，二级拿二级佣金
	if primarySnapshot.CommissionAmount.String() != "150.00" {
		t.Fatalf("expected primary commission 150.00, got %s", primarySnapshot.CommissionAmount)
	}
	if secondarySnapshot.CommissionAmount.String() != "250.00" {
		t.Fatalf("expected secondary commission 250.00, got %s", secondarySnapshot.CommissionAmount)
	}
}

func TestExcludeZeroesContributions(t *testing.T) {
	env := newStatisticsTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "excl-p")
	secondary := env.mustRegister(t, constants.SalesRoleSecondary, "excl-s")
	override := decimal.NewFromFloat(0.25)
	if _, err := env.graph.Attach(primary.ID, secondary.ID, &override); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	env.mustCreateOrder(t, secondary.SalesCode, 1000, constants.PaymentMethodAlipay, constants.OrderStatusConfirmed)

	if _, err := env.aggregator.Exclude(secondary.SalesCode, "fraud review", "admin"); err != nil {
		t.Fatalf("exclude failed: %v", err)
	}

	primarySnapshot, err := env.aggregator.Recompute(primary.ID)
	if err != nil {
		t.Fatalf("recompute primary failed: %v", err)
	}
	secondarySnapshot, err := env.aggregator.Recompute(secondary.ID)
	if err != nil {
		t.Fatalf("recompute secondary failed: %v", err)
	}
	if primarySnapshot.CommissionAmount.String() != "0.00" {
		t.Fatalf("excluded code must zero primary commission, got %s", primarySnapshot.CommissionAmount)
	}
	if secondarySnapshot.ValidOrders != 0 || secondarySnapshot.CommissionAmount.String() != "0.00" {
		t.Fatalf("excluded code must zero secondary stats, got %+v", secondarySnapshot)
	}

	// 原始订单与佣金记录保持不动
	var orderCount, recordCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if err := env.db.Model(&models.CommissionRecord{}).Count(&recordCount).Error; err != nil {
		t.Fatalf("count commissions failed: %v", err)
	}
	if orderCount != 1 || recordCount != 1 {
		t.Fatalf("exclusion must not touch raw rows, got %d/%d", orderCount, recordCount)
	}

	// 解除排除后统计恢复
	if err := env.aggregator.Unexclude(secondary.SalesCode); err != nil {
		t.Fatalf("unexclude failed: %v", err)
	}
	primarySnapshot, err = env.aggregator.Recompute(primary.ID)
	if err != nil {
		t.Fatalf("recompute after unexclude failed: %v", err)
	}
	if primarySnapshot.CommissionAmount.String() != "150.00" {
		t.Fatalf("expected restored commission 150.00, got %s", primarySnapshot.CommissionAmount)
	}
}

func TestUnexcludeMissingEntry(t *testing.T) {
	env := newStatisticsTestEnv(t)
	if err := env.aggregator.Unexclude("NOPE1234"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestSnapshotRecomputesWhenMissing(t *testing.T) {
	env := newStatisticsTestEnv(t)
	primary := env.mustRegister(t, constants.SalesRolePrimary, "snap-p")
	env.mustCreateOrder(t, primary.SalesCode, 500, constants.PaymentMethodAlipay, constants.OrderStatusPaid)

	snapshot, err := env.aggregator.Snapshot(primary.ID)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snapshot.ValidOrders != 1 {
		t.Fatalf("expected inline recompute to run, got %+v", snapshot)
	}

	if _, err := env.aggregator.Snapshot(9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown account, got: %v", err)
	}
}

func TestRecomputeAllContinuesOnFailure(t *testing.T) {
	env := newStatisticsTestEnv(t)
	a := env.mustRegister(t, constants.SalesRolePrimary, "all-a")
	b := env.mustRegister(t, constants.SalesRolePrimary, "all-b")
	env.mustCreateOrder(t, a.SalesCode, 100, constants.PaymentMethodAlipay, constants.OrderStatusPaid)
	env.mustCreateOrder(t, b.SalesCode, 200, constants.PaymentMethodAlipay, constants.OrderStatusPaid)

	if err := env.aggregator.RecomputeAll(); err != nil {
		t.Fatalf("recompute all failed: %v", err)
	}

	var count int64
	if err := env.db.Model(&models.StatisticsSnapshot{}).Count(&count).Error; err != nil {
		t.Fatalf("count snapshots failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected snapshots for both accounts, got %d", count)
	}
}
