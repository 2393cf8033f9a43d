package service

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/fenxiao-api/internal/constants"
	"github.com/fenxiao-api/internal/models"
	"github.com/fenxiao-api/internal/repository"
	"github.com/shopspring/decimal"
)

// 销售编码使用去歧义字母表（去掉 0/O/1/I）
const salesCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var decimalOne = decimal.NewFromInt(1)

// SalesRegistry 销售账号注册与维护服务
type SalesRegistry struct {
	repo   repository.SalesAccountRepository
	policy CommissionPolicy
}

// NewSalesRegistry 创建销售账号服务
func NewSalesRegistry(repo repository.SalesAccountRepository, policy CommissionPolicy) *SalesRegistry {
	return &SalesRegistry{repo: repo, policy: policy}
}

// RegisterSalesInput 注册销售账号输入
type RegisterSalesInput struct {
	Role           string
	WechatName     string
	PaymentMethod  string
	PaymentAddress string
	CommissionRate *decimal.Decimal
}

// Register 注册销售账号
//
// wechat_name 全角色唯一，并发注册由存储层唯一索引裁决；
// sales_code 冲突时重新生成并重试。
func (s *SalesRegistry) Register(input RegisterSalesInput) (*models.SalesAccount, error) {
	if s.repo == nil {
		return nil, ErrNotFound
	}
	role := strings.TrimSpace(input.Role)
	if role != constants.SalesRolePrimary &&
		role != constants.SalesRoleSecondary &&
		role != constants.SalesRoleIndependent {
		return nil, ErrInvalidSalesRole
	}
	wechatName := strings.TrimSpace(input.WechatName)
	if wechatName == "" {
		return nil, ErrInvalidWechatName
	}

	rate, err := s.resolveRegisterRate(role, input.CommissionRate)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByWechatName(wechatName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateWechatName
	}

	const maxRetry = 8
	for i := 0; i < maxRetry; i++ {
		code, genErr := generateSalesCode(constants.SalesCodeLength)
		if genErr != nil {
			return nil, genErr
		}
		account := &models.SalesAccount{
			WechatName:     wechatName,
			Role:           role,
			SalesCode:      code,
			PaymentMethod:  strings.TrimSpace(input.PaymentMethod),
			PaymentAddress: strings.TrimSpace(input.PaymentAddress),
			CommissionRate: rate,
			Status:         constants.SalesStatusActive,
		}
		if role == constants.SalesRolePrimary {
			registrationCode, genErr := generateRegistrationCode()
			if genErr != nil {
				return nil, genErr
			}
			account.SecondaryRegistrationCode = &registrationCode
		}
		if err := s.repo.Create(account); err != nil {
			if isUniqueViolation(err) {
				// 并发注册同名账号时败者收到重名错误，编码冲突则换码重试
				winner, checkErr := s.repo.GetByWechatName(wechatName)
				if checkErr != nil {
					return nil, checkErr
				}
				if winner != nil {
					return nil, ErrDuplicateWechatName
				}
				continue
			}
			return nil, err
		}
		return account, nil
	}
	return nil, ErrSalesCodeExhausted
}

// UpdateCommissionRate 更新销售账号佣金比例
func (s *SalesRegistry) UpdateCommissionRate(salesID uint, rate decimal.Decimal) (*models.SalesAccount, error) {
	if s.repo == nil {
		return nil, ErrNotFound
	}
	normalized, err := normalizeCommissionRate(rate)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.GetByID(salesID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	if err := s.repo.UpdateCommissionRate(salesID, normalized, time.Now()); err != nil {
		return nil, err
	}
	return s.repo.GetByID(salesID)
}

// UpdateStatus 更新销售账号状态（软移除）
func (s *SalesRegistry) UpdateStatus(salesID uint, rawStatus string) (*models.SalesAccount, error) {
	if s.repo == nil {
		return nil, ErrNotFound
	}
	status := strings.TrimSpace(rawStatus)
	if status != constants.SalesStatusActive && status != constants.SalesStatusRemoved {
		return nil, ErrInvalidSalesStatus
	}
	account, err := s.repo.GetByID(salesID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(account.Status) == status {
		return account, nil
	}
	if err := s.repo.UpdateStatus(salesID, status, time.Now()); err != nil {
		return nil, err
	}
	return s.repo.GetByID(salesID)
}

// Get 按ID查询销售账号
func (s *SalesRegistry) Get(salesID uint) (*models.SalesAccount, error) {
	if s.repo == nil {
		return nil, ErrNotFound
	}
	account, err := s.repo.GetByID(salesID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	return account, nil
}

// List 查询销售账号列表
func (s *SalesRegistry) List(filter repository.SalesAccountListFilter) ([]models.SalesAccount, int64, error) {
	if s.repo == nil {
		return nil, 0, ErrNotFound
	}
	return s.repo.List(filter)
}

func (s *SalesRegistry) resolveRegisterRate(role string, raw *decimal.Decimal) (decimal.Decimal, error) {
	if raw == nil {
		if role == constants.SalesRolePrimary {
			return s.policy.PrimaryBaseRate, nil
		}
		return s.policy.SecondaryDefaultRate, nil
	}
	return normalizeCommissionRate(*raw)
}

// normalizeCommissionRate 归一化佣金比例：大于 1 的输入按百分数处理，存储值恒为 [0,1] 小数
func normalizeCommissionRate(rate decimal.Decimal) (decimal.Decimal, error) {
	normalized := rate
	if normalized.GreaterThan(decimalOne) {
		normalized = normalized.Div(decimal.NewFromInt(100))
	}
	if normalized.IsNegative() || normalized.GreaterThan(decimalOne) {
		return decimal.Zero, ErrInvalidCommissionRate
	}
	return normalized, nil
}

func generateSalesCode(length int) (string, error) {
	if length <= 0 {
		length = constants.SalesCodeLength
	}
	buf := make([]byte, length)
	max := big.NewInt(int64(len(salesCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = salesCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func generateRegistrationCode() (string, error) {
	body, err := generateSalesCode(constants.RegistrationCodeBodyLength)
	if err != nil {
		return "", err
	}
	return constants.RegistrationCodePrefix + body, nil
}
