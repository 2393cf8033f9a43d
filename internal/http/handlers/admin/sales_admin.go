package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/fenxiao-api/internal/constants"
	"github.com/fenxiao-api/internal/http/response"
	"github.com/fenxiao-api/internal/repository"
	"github.com/fenxiao-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RegisterSalesRequest 注册销售账号请求
type RegisterSalesRequest struct {
	Role             string           `json:"role" binding:"required"`
	WechatName       string           `json:"wechat_name" binding:"required"`
	PaymentMethod    string           `json:"payment_method"`
	PaymentAddress   string           `json:"payment_address"`
	CommissionRate   *decimal.Decimal `json:"commission_rate"`
	RegistrationCode string           `json:"registration_code"` // 二级销售可携带注册码同时完成挂靠
}

// UpdateSalesRateRequest 更新佣金比例请求
type UpdateSalesRateRequest struct {
	CommissionRate decimal.Decimal `json:"commission_rate" binding:"required"`
}

// UpdateSalesStatusRequest 更新账号状态请求
type UpdateSalesStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// RegisterSales 注册销售账号
func (h *Handler) RegisterSales(c *gin.Context) {
	if h.SalesRegistry == nil {
		respondError(c, response.CodeInternal, "sales register failed", nil)
		return
	}
	var req RegisterSalesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	// 二级销售先解析注册码，避免账号落库后挂靠失败
	var primaryID uint
	registrationCode := strings.TrimSpace(req.RegistrationCode)
	if registrationCode != "" {
		if strings.TrimSpace(req.Role) != constants.SalesRoleSecondary || h.HierarchyGraph == nil {
			respondError(c, response.CodeBadRequest, "registration code only applies to secondary accounts", nil)
			return
		}
		resolved, err := h.HierarchyGraph.ResolveRegistrationCode(registrationCode)
		if err != nil {
			if errors.Is(err, service.ErrUnresolvedRegistrationCode) {
				respondError(c, response.CodeBadRequest, "registration code not recognized", nil)
				return
			}
			respondError(c, response.CodeInternal, "sales register failed", err)
			return
		}
		primaryID = resolved.ID
	}

	account, err := h.SalesRegistry.Register(service.RegisterSalesInput{
		Role:           strings.TrimSpace(req.Role),
		WechatName:     strings.TrimSpace(req.WechatName),
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		PaymentAddress: strings.TrimSpace(req.PaymentAddress),
		CommissionRate: req.CommissionRate,
	})
	if err != nil {
		respondRegisterSalesError(c, err)
		return
	}

	if primaryID != 0 {
		if _, err := h.HierarchyGraph.Attach(primaryID, account.ID, req.CommissionRate); err != nil {
			respondError(c, response.CodeConflict, "account created but hierarchy attach failed", err)
			return
		}
	}
	response.Success(c, account)
}

// UpdateSalesRate 更新销售账号佣金比例
func (h *Handler) UpdateSalesRate(c *gin.Context) {
	if h.SalesRegistry == nil {
		respondError(c, response.CodeInternal, "save failed", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	var req UpdateSalesRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	account, err := h.SalesRegistry.UpdateCommissionRate(uint(id), req.CommissionRate)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "sales account not found", nil)
		case errors.Is(err, service.ErrInvalidCommissionRate):
			respondError(c, response.CodeBadRequest, "invalid commission rate", nil)
		default:
			respondError(c, response.CodeInternal, "save failed", err)
		}
		return
	}
	response.Success(c, account)
}

// UpdateSalesStatus 更新销售账号状态
func (h *Handler) UpdateSalesStatus(c *gin.Context) {
	if h.SalesRegistry == nil {
		respondError(c, response.CodeInternal, "save failed", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	var req UpdateSalesStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	account, err := h.SalesRegistry.UpdateStatus(uint(id), strings.TrimSpace(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "sales account not found", nil)
		case errors.Is(err, service.ErrInvalidSalesStatus):
			respondError(c, response.CodeBadRequest, "invalid sales status", nil)
		default:
			respondError(c, response.CodeInternal, "save failed", err)
		}
		return
	}
	response.Success(c, account)
}

// ListSales 查询销售账号列表
func (h *Handler) ListSales(c *gin.Context) {
	if h.SalesRegistry == nil {
		respondError(c, response.CodeInternal, "fetch failed", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rows, total, err := h.SalesRegistry.List(repository.SalesAccountListFilter{
		Page:     page,
		PageSize: pageSize,
		Role:     strings.TrimSpace(c.Query("role")),
		Status:   strings.TrimSpace(c.Query("status")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetSales 查询销售账号详情
func (h *Handler) GetSales(c *gin.Context) {
	if h.SalesRegistry == nil {
		respondError(c, response.CodeInternal, "fetch failed", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	account, err := h.SalesRegistry.Get(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "sales account not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "fetch failed", err)
		return
	}
	response.Success(c, account)
}

func respondRegisterSalesError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateWechatName):
		respondError(c, response.CodeConflict, "wechat name already registered", nil)
	case errors.Is(err, service.ErrInvalidWechatName):
		respondError(c, response.CodeBadRequest, "invalid wechat name", nil)
	case errors.Is(err, service.ErrInvalidSalesRole):
		respondError(c, response.CodeBadRequest, "invalid sales role", nil)
	case errors.Is(err, service.ErrInvalidCommissionRate):
		respondError(c, response.CodeBadRequest, "invalid commission rate", nil)
	case errors.Is(err, service.ErrSalesCodeExhausted):
		respondError(c, response.CodeInternal, "sales code generation exhausted", err)
	default:
		respondError(c, response.CodeInternal, "sales register failed", err)
	}
}
