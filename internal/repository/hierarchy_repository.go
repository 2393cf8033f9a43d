package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/fenxiao-api/internal/constants"
	"github.com/fenxiao-api/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HierarchyLinkRepository 层级关系数据访问接口
type HierarchyLinkRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) HierarchyLinkRepository

	Create(link *models.HierarchyLink) error
	GetByID(id uint) (*models.HierarchyLink, error)
	GetActiveByPair(primaryID, secondaryID uint) (*models.HierarchyLink, error)
	GetActiveBySecondary(secondaryID uint) (*models.HierarchyLink, error)
	GetActiveBySecondaryForUpdate(secondaryID uint) (*models.HierarchyLink, error)
	Remove(id uint, removedBy, reason string, removedAt time.Time) error
	UpdateRate(id uint, rate *decimal.Decimal, updatedAt time.Time) error
	ListByPrimary(primaryID uint, activeOnly bool) ([]models.HierarchyLink, error)
}

// GormHierarchyLinkRepository GORM 层级关系仓储
type GormHierarchyLinkRepository struct {
	db *gorm.DB
}

// NewHierarchyLinkRepository 创建层级关系仓储
func NewHierarchyLinkRepository(db *gorm.DB) *GormHierarchyLinkRepository {
	return &GormHierarchyLinkRepository{db: db}
}

// WithTx 绑定事务
func (r *GormHierarchyLinkRepository) WithTx(tx *gorm.DB) HierarchyLinkRepository {
	if tx == nil {
		return r
	}
	return &GormHierarchyLinkRepository{db: tx}
}

// Transaction 执行事务
func (r *GormHierarchyLinkRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建挂靠关系
func (r *GormHierarchyLinkRepository) Create(link *models.HierarchyLink) error {
	return r.db.Create(link).Error
}

// GetByID 按ID查询挂靠关系
func (r *GormHierarchyLinkRepository) GetByID(id uint) (*models.HierarchyLink, error) {
	if id == 0 {
		return nil, nil
	}
	var link models.HierarchyLink
	if err := r.db.First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetActiveByPair 查询指定配对的有效挂靠关系
func (r *GormHierarchyLinkRepository) GetActiveByPair(primaryID, secondaryID uint) (*models.HierarchyLink, error) {
	if primaryID == 0 || secondaryID == 0 {
		return nil, nil
	}
	var link models.HierarchyLink
	err := r.db.Where("primary_id = ? AND secondary_id = ? AND status = ?",
		primaryID, secondaryID, constants.HierarchyLinkStatusActive).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetActiveBySecondary 查询二级销售当前挂靠的关系
func (r *GormHierarchyLinkRepository) GetActiveBySecondary(secondaryID uint) (*models.HierarchyLink, error) {
	if secondaryID == 0 {
		return nil, nil
	}
	var link models.HierarchyLink
	err := r.db.Where("secondary_id = ? AND status = ?",
		secondaryID, constants.HierarchyLinkStatusActive).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetActiveBySecondaryForUpdate 查询并锁定二级销售当前挂靠的关系
func (r *GormHierarchyLinkRepository) GetActiveBySecondaryForUpdate(secondaryID uint) (*models.HierarchyLink, error) {
	if secondaryID == 0 {
		return nil, nil
	}
	var link models.HierarchyLink
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("secondary_id = ? AND status = ?", secondaryID, constants.HierarchyLinkStatusActive).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// Remove 软移除挂靠关系
func (r *GormHierarchyLinkRepository) Remove(id uint, removedBy, reason string, removedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.HierarchyLink{}).
		Where("id = ? AND status = ?", id, constants.HierarchyLinkStatusActive).
		Updates(map[string]interface{}{
			"status":     constants.HierarchyLinkStatusRemoved,
			"removed_by": strings.TrimSpace(removedBy),
			"removed_at": removedAt,
			"reason":     strings.TrimSpace(reason),
			"updated_at": removedAt,
		}).Error
}

// UpdateRate 更新挂靠关系的比例覆盖
func (r *GormHierarchyLinkRepository) UpdateRate(id uint, rate *decimal.Decimal, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.HierarchyLink{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"commission_rate": rate,
			"updated_at":      updatedAt,
		}).Error
}

// ListByPrimary 查询一级销售名下的挂靠关系
func (r *GormHierarchyLinkRepository) ListByPrimary(primaryID uint, activeOnly bool) ([]models.HierarchyLink, error) {
	if primaryID == 0 {
		return []models.HierarchyLink{}, nil
	}
	query := r.db.Model(&models.HierarchyLink{}).
		Preload("Secondary").
		Where("primary_id = ?", primaryID)
	if activeOnly {
		query = query.Where("status = ?", constants.HierarchyLinkStatusActive)
	}
	var rows []models.HierarchyLink
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
