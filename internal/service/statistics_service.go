package service

import (
	"context"
	"strings"
	"time"

	"github.com/fenxiao-api/internal/cache"
	"github.com/fenxiao-api/internal/constants"
	"github.com/fenxiao-api/internal/logger"
	"github.com/fenxiao-api/internal/models"
	"github.com/fenxiao-api/internal/repository"
	"github.com/shopspring/decimal"
)

// StatisticsAggregator 销售统计聚合服务
//
// 统计从订单与佣金记录全量推导，快照随时可重建，重算幂等。
type StatisticsAggregator struct {
	salesRepo      repository.SalesAccountRepository
	orderRepo      repository.OrderRepository
	commissionRepo repository.CommissionRecordRepository
	exclusionRepo  repository.ExclusionEntryRepository
	statsRepo      repository.StatisticsSnapshotRepository
	linkRepo       repository.HierarchyLinkRepository
	policy         CommissionPolicy
}

// NewStatisticsAggregator 创建统计聚合服务
func NewStatisticsAggregator(
	salesRepo repository.SalesAccountRepository,
	orderRepo repository.OrderRepository,
	commissionRepo repository.CommissionRecordRepository,
	exclusionRepo repository.ExclusionEntryRepository,
	statsRepo repository.StatisticsSnapshotRepository,
	linkRepo repository.HierarchyLinkRepository,
	policy CommissionPolicy,
) *StatisticsAggregator {
	return &StatisticsAggregator{
		salesRepo:      salesRepo,
		orderRepo:      orderRepo,
		commissionRepo: commissionRepo,
		exclusionRepo:  exclusionRepo,
		statsRepo:      statsRepo,
		linkRepo:       linkRepo,
		policy:         policy,
	}
}

// Recompute 全量重算单个销售账号的统计快照
func (s *StatisticsAggregator) Recompute(salesID uint) (*models.StatisticsSnapshot, error) {
	if s.salesRepo == nil || s.statsRepo == nil {
		return nil, ErrNotFound
	}
	account, err := s.salesRepo.GetByID(salesID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	excluded, err := s.excludedCodes()
	if err != nil {
		return nil, err
	}

	snapshot := &models.StatisticsSnapshot{
		SalesID:           salesID,
		TotalAmount:       models.ZeroMoney(),
		ConfirmedAmount:   models.ZeroMoney(),
		CommissionAmount:  models.ZeroMoney(),
		PaidCommission:    models.ZeroMoney(),
		PendingCommission: models.ZeroMoney(),
		LastCalculatedAt:  time.Now(),
	}

	orders, err := s.orderRepo.ListBySalesCode(account.SalesCode)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		if excluded[order.SalesCode] {
			continue
		}
		amount := s.normalizeAmount(order.Amount.Decimal, order.PaymentMethod)
		if order.Status != constants.OrderStatusCanceled && order.Status != constants.OrderStatusExpired {
			snapshot.ValidOrders++
			snapshot.TotalAmount = snapshot.TotalAmount.AddDecimal(amount)
		}
		if isConfirmedOrderStatus(order.Status) {
			snapshot.ConfirmedOrders++
			snapshot.ConfirmedAmount = snapshot.ConfirmedAmount.AddDecimal(amount)
		}
	}

	records, err := s.commissionRepo.ListByAccount(salesID)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.Order.ID == 0 {
			continue
		}
		if excluded[record.Order.SalesCode] {
			continue
		}
		// 佣金只对已确认订单计入
		if !isConfirmedOrderStatus(record.Order.Status) {
			continue
		}
		share := s.accountShare(&record, salesID)
		share = s.normalizeAmount(share, record.Order.PaymentMethod)
		snapshot.CommissionAmount = snapshot.CommissionAmount.AddDecimal(share)
		if record.Status == constants.CommissionStatusSettled {
			snapshot.PaidCommission = snapshot.PaidCommission.AddDecimal(share)
		} else {
			snapshot.PendingCommission = snapshot.PendingCommission.AddDecimal(share)
		}
	}

	if err := s.statsRepo.Upsert(snapshot); err != nil {
		return nil, err
	}
	if err := cache.InvalidateSnapshot(context.Background(), salesID); err != nil {
		logger.Warnw("snapshot_cache_invalidate_failed", "sales_id", salesID, "error", err)
	}
	return snapshot, nil
}

// RecomputeAll 重算全部销售账号的统计快照，单个失败不影响其余账号
func (s *StatisticsAggregator) RecomputeAll() error {
	if s.salesRepo == nil {
		return ErrNotFound
	}
	accounts, err := s.salesRepo.ListAll()
	if err != nil {
		return err
	}
	for _, account := range accounts {
		if _, err := s.Recompute(account.ID); err != nil {
			logger.Warnw("stats_recompute_failed",
				"sales_id", account.ID,
				"sales_code", account.SalesCode,
				"error", err,
			)
		}
	}
	return nil
}

// Snapshot 查询销售账号的统计快照（缓存优先，无快照时现场重算）
func (s *StatisticsAggregator) Snapshot(salesID uint) (*models.StatisticsSnapshot, error) {
	if s.statsRepo == nil {
		return nil, ErrNotFound
	}
	ctx := context.Background()
	if cached, hit, err := cache.GetSnapshot(ctx, salesID); err != nil {
		logger.Warnw("snapshot_cache_read_failed", "sales_id", salesID, "error", err)
	} else if hit {
		return cached, nil
	}

	snapshot, err := s.statsRepo.GetBySalesID(salesID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot, err = s.Recompute(salesID)
		if err != nil {
			return nil, err
		}
	}
	if err := cache.SetSnapshot(ctx, snapshot); err != nil {
		logger.Warnw("snapshot_cache_write_failed", "sales_id", salesID, "error", err)
	}
	return snapshot, nil
}

// Exclude 将销售编码加入统计排除名单并重算受影响账号
func (s *StatisticsAggregator) Exclude(salesCode, reason, createdBy string) (*models.ExclusionEntry, error) {
	if s.exclusionRepo == nil {
		return nil, ErrNotFound
	}
	code := strings.TrimSpace(salesCode)
	if code == "" {
		return nil, ErrUnresolvedSalesCode
	}
	entry := &models.ExclusionEntry{
		SalesCode:         code,
		ExcludedFromStats: true,
		Reason:            strings.TrimSpace(reason),
		CreatedBy:         strings.TrimSpace(createdBy),
	}
	if err := s.exclusionRepo.Upsert(entry); err != nil {
		return nil, err
	}
	s.recomputeAffectedByCode(code)
	return entry, nil
}

// Unexclude 解除统计排除并重算受影响账号
func (s *StatisticsAggregator) Unexclude(salesCode string) error {
	if s.exclusionRepo == nil {
		return ErrNotFound
	}
	code := strings.TrimSpace(salesCode)
	if code == "" {
		return ErrUnresolvedSalesCode
	}
	entry, err := s.exclusionRepo.GetByCode(code)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrNotFound
	}
	if err := s.exclusionRepo.Deactivate(code, time.Now()); err != nil {
		return err
	}
	s.recomputeAffectedByCode(code)
	return nil
}

// ListExclusions 查询排除名单
func (s *StatisticsAggregator) ListExclusions() ([]models.ExclusionEntry, error) {
	if s.exclusionRepo == nil {
		return nil, ErrNotFound
	}
	return s.exclusionRepo.List()
}

func (s *StatisticsAggregator) excludedCodes() (map[string]bool, error) {
	if s.exclusionRepo == nil {
		return map[string]bool{}, nil
	}
	codes, err := s.exclusionRepo.ListActiveCodes()
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(codes))
	for _, code := range codes {
		set[code] = true
	}
	return set, nil
}

// normalizeAmount 统计口径金额换算：本币支付方式按固定汇率折算
func (s *StatisticsAggregator) normalizeAmount(amount decimal.Decimal, paymentMethod string) decimal.Decimal {
	if strings.EqualFold(strings.TrimSpace(paymentMethod), s.policy.LocalPaymentMethod) &&
		s.policy.LocalFXRate.IsPositive() {
		return amount.Mul(s.policy.LocalFXRate).Round(2)
	}
	return amount
}

// accountShare 佣金记录中归属某账号的份额：
// 一级取净佣金，二级取二级佣金
func (s *StatisticsAggregator) accountShare(record *models.CommissionRecord, salesID uint) decimal.Decimal {
	if record.PrimaryID != nil && *record.PrimaryID == salesID {
		return record.NetPrimaryCommission.Decimal
	}
	if record.SecondaryID != nil && *record.SecondaryID == salesID {
		return record.SecondaryCommission.Decimal
	}
	return decimal.Zero
}

// recomputeAffectedByCode 排除名单变更后重算编码对应账号及其上级
func (s *StatisticsAggregator) recomputeAffectedByCode(code string) {
	if s.salesRepo == nil {
		return
	}
	account, err := s.salesRepo.GetBySalesCode(code)
	if err != nil || account == nil {
		if err != nil {
			logger.Warnw("exclusion_recompute_lookup_failed", "sales_code", code, "error", err)
		}
		return
	}
	if _, err := s.Recompute(account.ID); err != nil {
		logger.Warnw("exclusion_recompute_failed", "sales_id", account.ID, "error", err)
	}
	if account.Role == constants.SalesRoleSecondary && s.linkRepo != nil {
		link, err := s.linkRepo.GetActiveBySecondary(account.ID)
		if err != nil || link == nil {
			return
		}
		if _, err := s.Recompute(link.PrimaryID); err != nil {
			logger.Warnw("exclusion_recompute_failed", "sales_id", link.PrimaryID, "error", err)
		}
	}
}

func isConfirmedOrderStatus(status string) bool {
	for _, confirmed := range constants.ConfirmedOrderStatuses {
		if status == confirmed {
			return true
		}
	}
	return false
}
