package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/fenxiao-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExclusionEntryRepository 统计排除名单数据访问接口
type ExclusionEntryRepository interface {
	Upsert(entry *models.ExclusionEntry) error
	GetByCode(code string) (*models.ExclusionEntry, error)
	Deactivate(code string, updatedAt time.Time) error
	ListActiveCodes() ([]string, error)
	List() ([]models.ExclusionEntry, error)
}

// GormExclusionEntryRepository GORM 统计排除名单仓储
type GormExclusionEntryRepository struct {
	db *gorm.DB
}

// NewExclusionEntryRepository 创建统计排除名单仓储
func NewExclusionEntryRepository(db *gorm.DB) *GormExclusionEntryRepository {
	return &GormExclusionEntryRepository{db: db}
}

// Upsert 写入排除名单（sales_code 冲突时刷新标记与审计字段）
func (r *GormExclusionEntryRepository) Upsert(entry *models.ExclusionEntry) error {
	if entry == nil || strings.TrimSpace(entry.SalesCode) == "" {
		return nil
	}
	entry.SalesCode = strings.TrimSpace(entry.SalesCode)
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sales_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"excluded_from_stats",
			"reason",
			"created_by",
			"updated_at",
		}),
	}).Create(entry).Error
}

// GetByCode 按销售编码查询排除记录
func (r *GormExclusionEntryRepository) GetByCode(code string) (*models.ExclusionEntry, error) {
	normalized := strings.TrimSpace(code)
	if normalized == "" {
		return nil, nil
	}
	var entry models.ExclusionEntry
	if err := r.db.Where("sales_code = ?", normalized).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Deactivate 解除排除标记（记录保留作审计）
func (r *GormExclusionEntryRepository) Deactivate(code string, updatedAt time.Time) error {
	normalized := strings.TrimSpace(code)
	if normalized == "" {
		return nil
	}
	return r.db.Model(&models.ExclusionEntry{}).
		Where("sales_code = ?", normalized).
		Updates(map[string]interface{}{
			"excluded_from_stats": false,
			"updated_at":          updatedAt,
		}).Error
}

// ListActiveCodes 查询当前生效的排除编码
func (r *GormExclusionEntryRepository) ListActiveCodes() ([]string, error) {
	var codes []string
	err := r.db.Model(&models.ExclusionEntry{}).
		Where("excluded_from_stats = ?", true).
		Pluck("sales_code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// List 查询全部排除记录
func (r *GormExclusionEntryRepository) List() ([]models.ExclusionEntry, error) {
	var rows []models.ExclusionEntry
	if err := r.db.Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
