package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/fenxiao-api/internal/http/response"
	"github.com/fenxiao-api/internal/repository"
	"github.com/fenxiao-api/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateOrderStatusRequest 订单状态更新请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus 推进订单状态（确认、取消、过期）
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	if h.CommissionService == nil {
		respondError(c, response.CodeInternal, "save failed", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.CommissionService.UpdateOrderStatus(uint(id), strings.TrimSpace(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "invalid order status transition", nil)
		default:
			respondError(c, response.CodeInternal, "save failed", err)
		}
		return
	}
	response.Success(c, order)
}

// ListOrders 查询订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	if h.OrderRepo == nil {
		respondError(c, response.CodeInternal, "fetch failed", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rows, total, err := h.OrderRepo.List(repository.OrderListFilter{
		Page:      page,
		PageSize:  pageSize,
		SalesCode: strings.TrimSpace(c.Query("sales_code")),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}
