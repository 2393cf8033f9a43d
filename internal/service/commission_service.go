package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/fenxiao-api/internal/constants"
	"github.com/fenxiao-api/internal/logger"
	"github.com/fenxiao-api/internal/models"
	"github.com/fenxiao-api/internal/queue"
	"github.com/fenxiao-api/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionPolicy 佣金策略参数
type CommissionPolicy struct {
	PrimaryBaseRate      decimal.Decimal // 一级基础比例（账号无覆盖时使用）
	SecondaryDefaultRate decimal.Decimal // 二级默认比例
	LocalPaymentMethod   string          // 固定汇率支付方式（仅统计口径换算）
	LocalFXRate          decimal.Decimal // 固定汇率
}

// DefaultCommissionPolicy 默认佣金策略
func DefaultCommissionPolicy() CommissionPolicy {
	return CommissionPolicy{
		PrimaryBaseRate:      decimal.NewFromFloat(0.40),
		SecondaryDefaultRate: decimal.NewFromFloat(0.30),
		LocalPaymentMethod:   constants.PaymentMethodUSDT,
		LocalFXRate:          decimal.NewFromFloat(7.20),
	}
}

// CommissionSplit 一笔订单的佣金拆分结果
type CommissionSplit struct {
	PrimaryID            *uint
	SecondaryID          *uint
	PrimaryCommission    decimal.Decimal
	SecondaryCommission  decimal.Decimal
	NetPrimaryCommission decimal.Decimal
}

// CreateOrderInput 订单创建输入
type CreateOrderInput struct {
	SalesCode     string
	Amount        decimal.Decimal
	PaymentMethod string
	Status        string
}

// OrderCommissionResult 订单创建结果
type OrderCommissionResult struct {
	Order      *models.Order            `json:"order"`
	Commission *models.CommissionRecord `json:"commission"`
}

// 订单状态流转表
var orderStatusTransitions = map[string][]string{
	constants.OrderStatusPendingPayment: {
		constants.OrderStatusPaid,
		constants.OrderStatusCanceled,
		constants.OrderStatusExpired,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusConfirmed,
		constants.OrderStatusCanceled,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusCompleted,
	},
}

// CommissionService 订单入账与佣金拆分服务
type CommissionService struct {
	orderRepo      repository.OrderRepository
	commissionRepo repository.CommissionRecordRepository
	attributor     *OrderAttributor
	policy         CommissionPolicy
	queueClient    *queue.Client
}

// NewCommissionService 创建佣金服务
func NewCommissionService(
	orderRepo repository.OrderRepository,
	commissionRepo repository.CommissionRecordRepository,
	attributor *OrderAttributor,
	policy CommissionPolicy,
	queueClient *queue.Client,
) *CommissionService {
	return &CommissionService{
		orderRepo:      orderRepo,
		commissionRepo: commissionRepo,
		attributor:     attributor,
		policy:         policy,
		queueClient:    queueClient,
	}
}

// ComputeSplit 计算订单的佣金拆分
//
// 一级直推：primary = base*amount，secondary = 0，net = primary；
// 二级挂靠：secondary = rate*amount，net = base*amount - secondary；
// 独立销售：secondary = rate*amount，不产生一级分成。
// 任何涉及一级的拆分恒满足 secondary + net == base*amount。
func (s *CommissionService) ComputeSplit(amount decimal.Decimal, attribution *Attribution) (*CommissionSplit, error) {
	if attribution == nil || attribution.Account == nil {
		return nil, ErrUnresolvedSalesCode
	}
	account := attribution.Account
	split := &CommissionSplit{
		PrimaryCommission:    decimal.Zero,
		SecondaryCommission:  decimal.Zero,
		NetPrimaryCommission: decimal.Zero,
	}

	switch {
	case account.Role == constants.SalesRolePrimary:
		base := s.effectiveBaseRate(account)
		commission := base.Mul(amount).Round(2)
		accountID := account.ID
		split.PrimaryID = &accountID
		split.PrimaryCommission = commission
		split.NetPrimaryCommission = commission

	case account.Role == constants.SalesRoleSecondary && attribution.Parent != nil:
		base := s.effectiveBaseRate(attribution.Parent)
		secondaryRate := s.effectiveSecondaryRate(account, attribution.ParentLink)
		primaryCommission := base.Mul(amount).Round(2)
		secondaryCommission := secondaryRate.Mul(amount).Round(2)
		net := primaryCommission.Sub(secondaryCommission)
		if net.IsNegative() {
			// 覆盖比例在挂靠时已校验过，此处兜底拦截历史脏数据
			return nil, ErrInvalidCommissionRate
		}
		primaryID := attribution.Parent.ID
		secondaryID := account.ID
		split.PrimaryID = &primaryID
		split.SecondaryID = &secondaryID
		split.PrimaryCommission = primaryCommission
		split.SecondaryCommission = secondaryCommission
		split.NetPrimaryCommission = net

	default:
		// 独立销售或无上级的二级销售，不做一级分成
		rate := s.effectiveSecondaryRate(account, nil)
		accountID := account.ID
		split.SecondaryID = &accountID
		split.SecondaryCommission = rate.Mul(amount).Round(2)
	}
	return split, nil
}

// CreateOrder 创建订单并原子落佣金记录
//
// 归因失败时失败关闭：订单与佣金记录都不会写入。
func (s *CommissionService) CreateOrder(input CreateOrderInput) (*OrderCommissionResult, error) {
	if s.orderRepo == nil || s.commissionRepo == nil || s.attributor == nil {
		return nil, ErrNotFound
	}
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidOrderAmount
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = constants.OrderStatusPendingPayment
	}
	if !isKnownOrderStatus(status) {
		return nil, ErrOrderStatusInvalid
	}

	attribution, err := s.attributor.Attribute(input.SalesCode)
	if err != nil {
		return nil, err
	}
	split, err := s.ComputeSplit(input.Amount, attribution)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNo:       generateOrderNo(),
		SalesCode:     attribution.Account.SalesCode,
		Amount:        models.NewMoneyFromDecimal(input.Amount),
		PaymentMethod: strings.TrimSpace(input.PaymentMethod),
		Status:        status,
	}
	record := &models.CommissionRecord{
		PrimaryID:            split.PrimaryID,
		SecondaryID:          split.SecondaryID,
		OrderAmount:          models.NewMoneyFromDecimal(input.Amount),
		PrimaryCommission:    models.NewMoneyFromDecimal(split.PrimaryCommission),
		SecondaryCommission:  models.NewMoneyFromDecimal(split.SecondaryCommission),
		NetPrimaryCommission: models.NewMoneyFromDecimal(split.NetPrimaryCommission),
		Status:               constants.CommissionStatusPending,
	}

	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		if txErr := s.orderRepo.WithTx(tx).Create(order); txErr != nil {
			return txErr
		}
		record.OrderID = order.ID
		return s.commissionRepo.WithTx(tx).Create(record)
	})
	if err != nil {
		return nil, err
	}

	s.enqueueRecompute(split)
	return &OrderCommissionResult{Order: order, Commission: record}, nil
}

// UpdateOrderStatus 推进订单状态（确认/过期流程的唯一可变字段）
func (s *CommissionService) UpdateOrderStatus(orderID uint, rawStatus string) (*models.Order, error) {
	if s.orderRepo == nil {
		return nil, ErrNotFound
	}
	next := strings.TrimSpace(rawStatus)
	if !isKnownOrderStatus(next) {
		return nil, ErrOrderStatusInvalid
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	if order.Status == next {
		return order, nil
	}
	if !isAllowedOrderTransition(order.Status, next) {
		return nil, ErrOrderStatusInvalid
	}
	if err := s.orderRepo.UpdateStatus(orderID, next, time.Now()); err != nil {
		return nil, err
	}

	if s.commissionRepo != nil {
		record, recErr := s.commissionRepo.GetByOrderID(orderID)
		if recErr != nil {
			logger.Warnw("order_status_recompute_lookup_failed", "order_id", orderID, "error", recErr)
		} else if record != nil {
			s.enqueueRecompute(&CommissionSplit{PrimaryID: record.PrimaryID, SecondaryID: record.SecondaryID})
		}
	}
	return s.orderRepo.GetByID(orderID)
}

// ListCommissions 查询佣金记录列表
func (s *CommissionService) ListCommissions(filter repository.CommissionListFilter) ([]models.CommissionRecord, int64, error) {
	if s.commissionRepo == nil {
		return nil, 0, ErrNotFound
	}
	return s.commissionRepo.List(filter)
}

func (s *CommissionService) effectiveBaseRate(primary *models.SalesAccount) decimal.Decimal {
	if primary != nil && primary.CommissionRate.IsPositive() {
		return primary.CommissionRate
	}
	return s.policy.PrimaryBaseRate
}

func (s *CommissionService) effectiveSecondaryRate(account *models.SalesAccount, link *models.HierarchyLink) decimal.Decimal {
	if link != nil && link.CommissionRate != nil {
		return *link.CommissionRate
	}
	if account != nil && account.CommissionRate.IsPositive() {
		return account.CommissionRate
	}
	return s.policy.SecondaryDefaultRate
}

func (s *CommissionService) enqueueRecompute(split *CommissionSplit) {
	if split == nil || !s.queueClient.Enabled() {
		return
	}
	for _, id := range []*uint{split.PrimaryID, split.SecondaryID} {
		if id == nil {
			continue
		}
		if err := s.queueClient.EnqueueStatsRecompute(queue.StatsRecomputePayload{SalesID: *id}); err != nil {
			logger.Warnw("stats_recompute_enqueue_failed", "sales_id", *id, "error", err)
		}
	}
}

func isKnownOrderStatus(status string) bool {
	switch status {
	case constants.OrderStatusPendingPayment,
		constants.OrderStatusPaid,
		constants.OrderStatusConfirmed,
		constants.OrderStatusCompleted,
		constants.OrderStatusCanceled,
		constants.OrderStatusExpired:
		return true
	}
	return false
}

func isAllowedOrderTransition(current, next string) bool {
	for _, allowed := range orderStatusTransitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

func generateOrderNo() string {
	suffix, err := generateSalesCode(6)
	if err != nil {
		suffix = fmt.Sprintf("%06d", time.Now().Nanosecond()%1000000)
	}
	return "FX" + time.Now().Format("20060102150405") + suffix
}
