package service

import (
	"strings"

	"github.com/fenxiao-api/internal/constants"
	"github.com/fenxiao-api/internal/models"
	"github.com/fenxiao-api/internal/repository"
)

// Attribution 订单归因结果
type Attribution struct {
	Account    *models.SalesAccount // 归因到的销售账号
	Parent     *models.SalesAccount // 二级销售的上级（无则为空）
	ParentLink *models.HierarchyLink
}

// salesCodeResolver 单个编码格式的解析函数，按序组成兜底链
type salesCodeResolver func(repo repository.SalesAccountRepository, raw string) (*models.SalesAccount, error)

// 历史上销售编码出现过三种写法：当前大写格式、早期小写落库、
// 以及带 WX 前缀的旧格式。按新到旧的顺序逐个尝试。
var salesCodeResolvers = []salesCodeResolver{
	resolveCurrentSalesCode,
	resolveLowercaseSalesCode,
	resolveLegacyPrefixedSalesCode,
}

// OrderAttributor 订单归因服务
type OrderAttributor struct {
	salesRepo repository.SalesAccountRepository
	linkRepo  repository.HierarchyLinkRepository
}

// NewOrderAttributor 创建订单归因服务
func NewOrderAttributor(salesRepo repository.SalesAccountRepository, linkRepo repository.HierarchyLinkRepository) *OrderAttributor {
	return &OrderAttributor{salesRepo: salesRepo, linkRepo: linkRepo}
}

// Attribute 将销售编码归因到唯一销售账号
//
// 所有格式都解析失败时返回 ErrUnresolvedSalesCode，调用方必须失败关闭，
// 不得落任何订单数据。
func (a *OrderAttributor) Attribute(rawCode string) (*Attribution, error) {
	if a.salesRepo == nil {
		return nil, ErrUnresolvedSalesCode
	}
	trimmed := strings.TrimSpace(rawCode)
	if trimmed == "" {
		return nil, ErrUnresolvedSalesCode
	}

	var account *models.SalesAccount
	for _, resolve := range salesCodeResolvers {
		found, err := resolve(a.salesRepo, trimmed)
		if err != nil {
			return nil, err
		}
		if found != nil {
			account = found
			break
		}
	}
	if account == nil || strings.TrimSpace(account.Status) != constants.SalesStatusActive {
		return nil, ErrUnresolvedSalesCode
	}

	attribution := &Attribution{Account: account}
	if account.Role == constants.SalesRoleSecondary && a.linkRepo != nil {
		link, err := a.linkRepo.GetActiveBySecondary(account.ID)
		if err != nil {
			return nil, err
		}
		if link != nil {
			parent, err := a.salesRepo.GetByID(link.PrimaryID)
			if err != nil {
				return nil, err
			}
			if parent != nil {
				attribution.Parent = parent
				attribution.ParentLink = link
			}
		}
	}
	return attribution, nil
}

// resolveCurrentSalesCode 当前格式：大写精确匹配
func resolveCurrentSalesCode(repo repository.SalesAccountRepository, raw string) (*models.SalesAccount, error) {
	return repo.GetBySalesCode(strings.ToUpper(raw))
}

// resolveLowercaseSalesCode 早期小写落库的编码
func resolveLowercaseSalesCode(repo repository.SalesAccountRepository, raw string) (*models.SalesAccount, error) {
	return repo.GetBySalesCode(strings.ToLower(raw))
}

// resolveLegacyPrefixedSalesCode 旧格式：WX 前缀编码，去掉前缀后按当前格式匹配
func resolveLegacyPrefixedSalesCode(repo repository.SalesAccountRepository, raw string) (*models.SalesAccount, error) {
	normalized := strings.ToUpper(raw)
	if !strings.HasPrefix(normalized, constants.LegacySalesCodePrefix) {
		return nil, nil
	}
	stripped := strings.TrimPrefix(normalized, constants.LegacySalesCodePrefix)
	if stripped == "" {
		return nil, nil
	}
	return repo.GetBySalesCode(stripped)
}
