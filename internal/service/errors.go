package service

import (
	"errors"
	"strings"
)

// 业务哨兵错误，调用方通过 errors.Is 匹配
var (
	ErrNotFound                   = errors.New("record not found")
	ErrDuplicateWechatName        = errors.New("duplicate wechat name")
	ErrInvalidWechatName          = errors.New("invalid wechat name")
	ErrInvalidCommissionRate      = errors.New("invalid commission rate")
	ErrInvalidSalesRole           = errors.New("invalid sales role")
	ErrInvalidSalesStatus         = errors.New("invalid sales status")
	ErrSalesCodeExhausted         = errors.New("sales code generation exhausted")
	ErrHierarchyLinkExists        = errors.New("hierarchy link already exists")
	ErrHierarchyLinkNotFound      = errors.New("hierarchy link not found")
	ErrUnresolvedRegistrationCode = errors.New("unresolved registration code")
	ErrUnresolvedSalesCode        = errors.New("unresolved sales code")
	ErrInvalidOrderAmount         = errors.New("invalid order amount")
	ErrOrderStatusInvalid         = errors.New("invalid order status transition")
)

// isUniqueViolation 判断是否为存储层唯一约束冲突
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique") || strings.Contains(message, "duplicate")
}
