package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/fenxiao-api/internal/models"
	"gorm.io/gorm"
)

// OrderListFilter 订单列表过滤
type OrderListFilter struct {
	Page      int
	PageSize  int
	SalesCode string
	Status    string
}

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderRepository

	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	UpdateStatus(id uint, status string, updatedAt time.Time) error
	List(filter OrderListFilter) ([]models.Order, int64, error)
	ListBySalesCode(code string) ([]models.Order, error)
}

// GormOrderRepository GORM 订单仓储
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 按ID查询订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatus 更新订单状态（订单仅状态字段可变）
func (r *GormOrderRepository) UpdateStatus(id uint, status string, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     strings.TrimSpace(status),
			"updated_at": updatedAt,
		}).Error
}

// List 查询订单列表
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if code := strings.TrimSpace(filter.SalesCode); code != "" {
		query = query.Where("sales_code = ?", code)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Order
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListBySalesCode 按销售编码查询全部订单（统计重算用）
func (r *GormOrderRepository) ListBySalesCode(code string) ([]models.Order, error) {
	normalized := strings.TrimSpace(code)
	if normalized == "" {
		return []models.Order{}, nil
	}
	var rows []models.Order
	if err := r.db.Where("sales_code = ?", normalized).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
