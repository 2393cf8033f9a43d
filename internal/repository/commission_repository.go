package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/fenxiao-api/internal/constants"
	"github.com/fenxiao-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionListFilter 佣金记录列表过滤
type CommissionListFilter struct {
	Page        int
	PageSize    int
	SalesID     uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CommissionRecordRepository 佣金记录数据访问接口
type CommissionRecordRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CommissionRecordRepository

	Create(record *models.CommissionRecord) error
	GetByID(id uint) (*models.CommissionRecord, error)
	GetByOrderID(orderID uint) (*models.CommissionRecord, error)
	GetByOrderIDForUpdate(orderID uint) (*models.CommissionRecord, error)
	List(filter CommissionListFilter) ([]models.CommissionRecord, int64, error)
	ListByAccount(salesID uint) ([]models.CommissionRecord, error)
	SettlePending(ids []uint, settledBy string, settledAt time.Time) (int64, error)
}

// GormCommissionRecordRepository GORM 佣金记录仓储
type GormCommissionRecordRepository struct {
	db *gorm.DB
}

// NewCommissionRecordRepository 创建佣金记录仓储
func NewCommissionRecordRepository(db *gorm.DB) *GormCommissionRecordRepository {
	return &GormCommissionRecordRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRecordRepository) WithTx(tx *gorm.DB) CommissionRecordRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRecordRepository{db: tx}
}

// Transaction 执行事务
func (r *GormCommissionRecordRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建佣金记录
func (r *GormCommissionRecordRepository) Create(record *models.CommissionRecord) error {
	return r.db.Create(record).Error
}

// GetByID 按ID查询佣金记录
func (r *GormCommissionRecordRepository) GetByID(id uint) (*models.CommissionRecord, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.CommissionRecord
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByOrderID 按订单查询佣金记录
func (r *GormCommissionRecordRepository) GetByOrderID(orderID uint) (*models.CommissionRecord, error) {
	if orderID == 0 {
		return nil, nil
	}
	var record models.CommissionRecord
	if err := r.db.Where("order_id = ?", orderID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByOrderIDForUpdate 按订单查询并锁定佣金记录
func (r *GormCommissionRecordRepository) GetByOrderIDForUpdate(orderID uint) (*models.CommissionRecord, error) {
	if orderID == 0 {
		return nil, nil
	}
	var record models.CommissionRecord
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// List 查询佣金记录列表
func (r *GormCommissionRecordRepository) List(filter CommissionListFilter) ([]models.CommissionRecord, int64, error) {
	query := r.db.Model(&models.CommissionRecord{}).Preload("Order")
	if filter.SalesID != 0 {
		query = query.Where("(primary_id = ? OR secondary_id = ?)", filter.SalesID, filter.SalesID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.CommissionRecord
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByAccount 查询某销售账号名下的全部佣金记录（含关联订单，统计重算用）
func (r *GormCommissionRecordRepository) ListByAccount(salesID uint) ([]models.CommissionRecord, error) {
	if salesID == 0 {
		return []models.CommissionRecord{}, nil
	}
	var rows []models.CommissionRecord
	err := r.db.Preload("Order").
		Where("primary_id = ? OR secondary_id = ?", salesID, salesID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SettlePending 批量将待结算佣金标记为已结算
//
// 仅推进调用时仍为 pending 的行，已结算的行静默跳过。
func (r *GormCommissionRecordRepository) SettlePending(ids []uint, settledBy string, settledAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.CommissionRecord{}).
		Where("id IN ? AND status = ?", ids, constants.CommissionStatusPending).
		Updates(map[string]interface{}{
			"status":     constants.CommissionStatusSettled,
			"settled_at": settledAt,
			"settled_by": strings.TrimSpace(settledBy),
			"updated_at": settledAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
