package service

import (
	"strings"
	"time"

	"github.com/fenxiao-api/internal/logger"
	"github.com/fenxiao-api/internal/models"
	"github.com/fenxiao-api/internal/queue"
	"github.com/fenxiao-api/internal/repository"
)

// SettlementLedger 佣金结算服务
type SettlementLedger struct {
	commissionRepo repository.CommissionRecordRepository
	queueClient    *queue.Client
}

// NewSettlementLedger 创建结算服务
func NewSettlementLedger(commissionRepo repository.CommissionRecordRepository, queueClient *queue.Client) *SettlementLedger {
	return &SettlementLedger{commissionRepo: commissionRepo, queueClient: queueClient}
}

// Settle 批量结算待结算佣金
//
// 仅推进仍为 pending 的记录，已结算的记录静默跳过，返回实际推进的条数。
// 重复提交同一批ID是安全的：第二次返回 0。
func (s *SettlementLedger) Settle(ids []uint, settledBy string) (int64, error) {
	if s.commissionRepo == nil {
		return 0, ErrNotFound
	}
	if len(ids) == 0 {
		return 0, nil
	}
	settled, err := s.commissionRepo.SettlePending(ids, strings.TrimSpace(settledBy), time.Now())
	if err != nil {
		return 0, err
	}
	if settled > 0 {
		s.enqueueRecomputeForRecords(ids)
	}
	return settled, nil
}

// ListCommissions 查询佣金记录列表
func (s *SettlementLedger) ListCommissions(filter repository.CommissionListFilter) ([]models.CommissionRecord, int64, error) {
	if s.commissionRepo == nil {
		return nil, 0, ErrNotFound
	}
	return s.commissionRepo.List(filter)
}

// enqueueRecomputeForRecords 结算后重算受影响账号的统计
func (s *SettlementLedger) enqueueRecomputeForRecords(ids []uint) {
	if !s.queueClient.Enabled() {
		return
	}
	affected := make(map[uint]bool)
	for _, id := range ids {
		record, err := s.commissionRepo.GetByID(id)
		if err != nil {
			logger.Warnw("settle_recompute_lookup_failed", "commission_id", id, "error", err)
			continue
		}
		if record == nil {
			continue
		}
		if record.PrimaryID != nil {
			affected[*record.PrimaryID] = true
		}
		if record.SecondaryID != nil {
			affected[*record.SecondaryID] = true
		}
	}
	for salesID := range affected {
		if err := s.queueClient.EnqueueStatsRecompute(queue.StatsRecomputePayload{SalesID: salesID}); err != nil {
			logger.Warnw("stats_recompute_enqueue_failed", "sales_id", salesID, "error", err)
		}
	}
}
