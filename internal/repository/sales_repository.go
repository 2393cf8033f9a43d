package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/fenxiao-api/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesAccountListFilter 销售账号列表过滤
type SalesAccountListFilter struct {
	Page     int
	PageSize int
	Role     string
	Status   string
	Keyword  string
}

// SalesAccountRepository 销售账号数据访问接口
type SalesAccountRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) SalesAccountRepository

	Create(account *models.SalesAccount) error
	GetByID(id uint) (*models.SalesAccount, error)
	GetByWechatName(name string) (*models.SalesAccount, error)
	GetBySalesCode(code string) (*models.SalesAccount, error)
	GetByRegistrationCode(code string) (*models.SalesAccount, error)
	UpdateCommissionRate(id uint, rate decimal.Decimal, updatedAt time.Time) error
	UpdateStatus(id uint, status string, updatedAt time.Time) error
	List(filter SalesAccountListFilter) ([]models.SalesAccount, int64, error)
	ListAll() ([]models.SalesAccount, error)
}

// GormSalesAccountRepository GORM 销售账号仓储
type GormSalesAccountRepository struct {
	db *gorm.DB
}

// NewSalesAccountRepository 创建销售账号仓储
func NewSalesAccountRepository(db *gorm.DB) *GormSalesAccountRepository {
	return &GormSalesAccountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSalesAccountRepository) WithTx(tx *gorm.DB) SalesAccountRepository {
	if tx == nil {
		return r
	}
	return &GormSalesAccountRepository{db: tx}
}

// Transaction 执行事务
func (r *GormSalesAccountRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建销售账号
func (r *GormSalesAccountRepository) Create(account *models.SalesAccount) error {
	return r.db.Create(account).Error
}

// GetByID 按ID查询销售账号
func (r *GormSalesAccountRepository) GetByID(id uint) (*models.SalesAccount, error) {
	if id == 0 {
		return nil, nil
	}
	var account models.SalesAccount
	if err := r.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByWechatName 按微信名查询销售账号（全角色唯一）
func (r *GormSalesAccountRepository) GetByWechatName(name string) (*models.SalesAccount, error) {
	normalized := strings.TrimSpace(name)
	if normalized == "" {
		return nil, nil
	}
	var account models.SalesAccount
	if err := r.db.Where("wechat_name = ?", normalized).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetBySalesCode 按销售编码精确查询
func (r *GormSalesAccountRepository) GetBySalesCode(code string) (*models.SalesAccount, error) {
	normalized := strings.TrimSpace(code)
	if normalized == "" {
		return nil, nil
	}
	var account models.SalesAccount
	if err := r.db.Where("sales_code = ?", normalized).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByRegistrationCode 按二级注册码查询一级账号
func (r *GormSalesAccountRepository) GetByRegistrationCode(code string) (*models.SalesAccount, error) {
	normalized := strings.TrimSpace(code)
	if normalized == "" {
		return nil, nil
	}
	var account models.SalesAccount
	if err := r.db.Where("secondary_registration_code = ?", normalized).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// UpdateCommissionRate 更新佣金比例
func (r *GormSalesAccountRepository) UpdateCommissionRate(id uint, rate decimal.Decimal, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.SalesAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"commission_rate": rate,
			"updated_at":      updatedAt,
		}).Error
}

// UpdateStatus 更新账号状态
func (r *GormSalesAccountRepository) UpdateStatus(id uint, status string, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.SalesAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     strings.TrimSpace(status),
			"updated_at": updatedAt,
		}).Error
}

// List 查询销售账号列表
func (r *GormSalesAccountRepository) List(filter SalesAccountListFilter) ([]models.SalesAccount, int64, error) {
	query := r.db.Model(&models.SalesAccount{})
	if role := strings.TrimSpace(filter.Role); role != "" {
		query = query.Where("role = ?", role)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		operator := likeOperator(r.db)
		query = query.Where(
			"(wechat_name "+operator+" ? OR sales_code "+operator+" ?)",
			like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.SalesAccount
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListAll 查询全部销售账号（全量重算用）
func (r *GormSalesAccountRepository) ListAll() ([]models.SalesAccount, error) {
	var rows []models.SalesAccount
	if err := r.db.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
