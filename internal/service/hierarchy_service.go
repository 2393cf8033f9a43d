package service

import (
	"strings"
	"time"

	"github.com/fenxiao-api/internal/constants"
	"github.com/fenxiao-api/internal/models"
	"github.com/fenxiao-api/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HierarchyGraph 一级/二级销售挂靠关系服务
type HierarchyGraph struct {
	salesRepo repository.SalesAccountRepository
	linkRepo  repository.HierarchyLinkRepository
}

// NewHierarchyGraph 创建层级关系服务
func NewHierarchyGraph(salesRepo repository.SalesAccountRepository, linkRepo repository.HierarchyLinkRepository) *HierarchyGraph {
	return &HierarchyGraph{salesRepo: salesRepo, linkRepo: linkRepo}
}

// ResolveRegistrationCode 解析二级注册码，按序尝试当前格式与历史格式
//
// 当前格式为 "R" 前缀注册码；历史上二级销售直接使用一级销售自身的
// sales_code 入网，作为兜底格式保留。
func (g *HierarchyGraph) ResolveRegistrationCode(rawCode string) (*models.SalesAccount, error) {
	if g.salesRepo == nil {
		return nil, ErrNotFound
	}
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if code == "" {
		return nil, ErrUnresolvedRegistrationCode
	}

	account, err := g.salesRepo.GetByRegistrationCode(code)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account, err = g.salesRepo.GetBySalesCode(code)
		if err != nil {
			return nil, err
		}
	}
	if account == nil || account.Role != constants.SalesRolePrimary {
		return nil, ErrUnresolvedRegistrationCode
	}
	if strings.TrimSpace(account.Status) != constants.SalesStatusActive {
		return nil, ErrUnresolvedRegistrationCode
	}
	return account, nil
}

// Attach 将二级销售挂靠到一级销售名下
//
// 同配对已有有效关系、或二级销售已挂靠其他一级销售时拒绝；
// 覆盖比例不得高于一级销售的基础比例，否则净佣金会出现负数。
func (g *HierarchyGraph) Attach(primaryID, secondaryID uint, overrideRate *decimal.Decimal) (*models.HierarchyLink, error) {
	if g.salesRepo == nil || g.linkRepo == nil {
		return nil, ErrNotFound
	}
	primary, secondary, err := g.loadPair(primaryID, secondaryID)
	if err != nil {
		return nil, err
	}
	normalizedRate, err := validateOverrideRate(primary, overrideRate)
	if err != nil {
		return nil, err
	}

	var link *models.HierarchyLink
	err = g.linkRepo.Transaction(func(tx *gorm.DB) error {
		repo := g.linkRepo.WithTx(tx)
		existing, txErr := repo.GetActiveByPair(primaryID, secondaryID)
		if txErr != nil {
			return txErr
		}
		if existing != nil {
			return ErrHierarchyLinkExists
		}
		parent, txErr := repo.GetActiveBySecondaryForUpdate(secondaryID)
		if txErr != nil {
			return txErr
		}
		if parent != nil {
			return ErrHierarchyLinkExists
		}
		link = &models.HierarchyLink{
			PrimaryID:      primaryID,
			SecondaryID:    secondaryID,
			CommissionRate: normalizedRate,
			Status:         constants.HierarchyLinkStatusActive,
		}
		return repo.Create(link)
	})
	if err != nil {
		return nil, err
	}
	link.Secondary = *secondary
	link.Primary = *primary
	return link, nil
}

// Detach 软移除挂靠关系
func (g *HierarchyGraph) Detach(primaryID, secondaryID uint, removedBy, reason string) error {
	if g.linkRepo == nil {
		return ErrNotFound
	}
	link, err := g.linkRepo.GetActiveByPair(primaryID, secondaryID)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrHierarchyLinkNotFound
	}
	return g.linkRepo.Remove(link.ID, removedBy, reason, time.Now())
}

// UpdateLinkRate 更新挂靠关系的比例覆盖
func (g *HierarchyGraph) UpdateLinkRate(primaryID, secondaryID uint, rate decimal.Decimal) (*models.HierarchyLink, error) {
	if g.salesRepo == nil || g.linkRepo == nil {
		return nil, ErrNotFound
	}
	primary, _, err := g.loadPair(primaryID, secondaryID)
	if err != nil {
		return nil, err
	}
	normalizedRate, err := validateOverrideRate(primary, &rate)
	if err != nil {
		return nil, err
	}
	link, err := g.linkRepo.GetActiveByPair(primaryID, secondaryID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrHierarchyLinkNotFound
	}
	if err := g.linkRepo.UpdateRate(link.ID, normalizedRate, time.Now()); err != nil {
		return nil, err
	}
	return g.linkRepo.GetByID(link.ID)
}

// ListChildren 查询一级销售名下的二级销售
func (g *HierarchyGraph) ListChildren(primaryID uint, activeOnly bool) ([]models.SalesAccount, error) {
	if g.linkRepo == nil {
		return nil, ErrNotFound
	}
	links, err := g.linkRepo.ListByPrimary(primaryID, activeOnly)
	if err != nil {
		return nil, err
	}
	children := make([]models.SalesAccount, 0, len(links))
	for _, link := range links {
		children = append(children, link.Secondary)
	}
	return children, nil
}

// ActiveParentLink 查询二级销售当前的挂靠关系（归因用）
func (g *HierarchyGraph) ActiveParentLink(secondaryID uint) (*models.HierarchyLink, error) {
	if g.linkRepo == nil {
		return nil, nil
	}
	return g.linkRepo.GetActiveBySecondary(secondaryID)
}

func (g *HierarchyGraph) loadPair(primaryID, secondaryID uint) (*models.SalesAccount, *models.SalesAccount, error) {
	primary, err := g.salesRepo.GetByID(primaryID)
	if err != nil {
		return nil, nil, err
	}
	if primary == nil || primary.Role != constants.SalesRolePrimary {
		return nil, nil, ErrNotFound
	}
	secondary, err := g.salesRepo.GetByID(secondaryID)
	if err != nil {
		return nil, nil, err
	}
	if secondary == nil || secondary.Role != constants.SalesRoleSecondary {
		return nil, nil, ErrNotFound
	}
	return primary, secondary, nil
}

// validateOverrideRate 归一化并校验比例覆盖，超过一级基础比例时拒绝
func validateOverrideRate(primary *models.SalesAccount, rate *decimal.Decimal) (*decimal.Decimal, error) {
	if rate == nil {
		return nil, nil
	}
	normalized, err := normalizeCommissionRate(*rate)
	if err != nil {
		return nil, err
	}
	if primary != nil && normalized.GreaterThan(primary.CommissionRate) {
		return nil, ErrInvalidCommissionRate
	}
	return &normalized, nil
}
