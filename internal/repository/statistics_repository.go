package repository

import (
	"errors"

	"github.com/fenxiao-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatisticsSnapshotRepository 统计快照数据访问接口
type StatisticsSnapshotRepository interface {
	GetBySalesID(salesID uint) (*models.StatisticsSnapshot, error)
	Upsert(snapshot *models.StatisticsSnapshot) error
	DeleteBySalesID(salesID uint) error
}

// GormStatisticsSnapshotRepository GORM 统计快照仓储
type GormStatisticsSnapshotRepository struct {
	db *gorm.DB
}

// NewStatisticsSnapshotRepository 创建统计快照仓储
func NewStatisticsSnapshotRepository(db *gorm.DB) *GormStatisticsSnapshotRepository {
	return &GormStatisticsSnapshotRepository{db: db}
}

// GetBySalesID 按销售账号查询统计快照
func (r *GormStatisticsSnapshotRepository) GetBySalesID(salesID uint) (*models.StatisticsSnapshot, error) {
	if salesID == 0 {
		return nil, nil
	}
	var snapshot models.StatisticsSnapshot
	if err := r.db.Where("sales_id = ?", salesID).First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// Upsert 幂等写入统计快照（sales_id 冲突时整行覆盖）
func (r *GormStatisticsSnapshotRepository) Upsert(snapshot *models.StatisticsSnapshot) error {
	if snapshot == nil || snapshot.SalesID == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sales_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"valid_orders",
			"confirmed_orders",
			"total_amount",
			"confirmed_amount",
			"commission_amount",
			"paid_commission",
			"pending_commission",
			"last_calculated_at",
			"updated_at",
		}),
	}).Create(snapshot).Error
}

// DeleteBySalesID 删除统计快照（快照可随时重建）
func (r *GormStatisticsSnapshotRepository) DeleteBySalesID(salesID uint) error {
	if salesID == 0 {
		return nil
	}
	return r.db.Where("sales_id = ?", salesID).Delete(&models.StatisticsSnapshot{}).Error
}
