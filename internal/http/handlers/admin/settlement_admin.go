package admin

import (
	"strconv"
	"strings"

	"github.com/fenxiao-api/internal/http/response"
	"github.com/fenxiao-api/internal/repository"

	"github.com/gin-gonic/gin"
)

// SettleCommissionsRequest 批量结算请求
type SettleCommissionsRequest struct {
	CommissionIDs []uint `json:"commission_ids" binding:"required"`
}

// SettleCommissions 批量结算待结算佣金
func (h *Handler) SettleCommissions(c *gin.Context) {
	if h.SettlementLedger == nil {
		respondError(c, response.CodeInternal, "settle failed", nil)
		return
	}
	var req SettleCommissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	settled, err := h.SettlementLedger.Settle(req.CommissionIDs, operatorName(c))
	if err != nil {
		respondError(c, response.CodeInternal, "settle failed", err)
		return
	}
	response.Success(c, gin.H{"settled_count": settled})
}

// ListCommissions 查询佣金记录列表
func (h *Handler) ListCommissions(c *gin.Context) {
	if h.SettlementLedger == nil {
		respondError(c, response.CodeInternal, "fetch failed", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	salesID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("sales_id")), 10, 64)

	rows, total, err := h.SettlementLedger.ListCommissions(repository.CommissionListFilter{
		Page:     page,
		PageSize: pageSize,
		SalesID:  uint(salesID),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}
