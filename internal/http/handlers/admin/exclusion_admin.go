package admin

import (
	"errors"
	"strings"

	"github.com/fenxiao-api/internal/http/response"
	"github.com/fenxiao-api/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateExclusionRequest 创建统计排除请求
type CreateExclusionRequest struct {
	SalesCode string `json:"sales_code" binding:"required"`
	Reason    string `json:"reason"`
}

// CreateExclusion 将销售编码加入统计排除名单
func (h *Handler) CreateExclusion(c *gin.Context) {
	if h.StatsAggregator == nil {
		respondError(c, response.CodeInternal, "save failed", nil)
		return
	}
	var req CreateExclusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	entry, err := h.StatsAggregator.Exclude(strings.TrimSpace(req.SalesCode), strings.TrimSpace(req.Reason), operatorName(c))
	if err != nil {
		if errors.Is(err, service.ErrUnresolvedSalesCode) {
			respondError(c, response.CodeBadRequest, "bad request", nil)
			return
		}
		respondError(c, response.CodeInternal, "save failed", err)
		return
	}
	response.Success(c, entry)
}

// DeleteExclusion 解除统计排除
func (h *Handler) DeleteExclusion(c *gin.Context) {
	if h.StatsAggregator == nil {
		respondError(c, response.CodeInternal, "save failed", nil)
		return
	}
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	if err := h.StatsAggregator.Unexclude(code); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "exclusion entry not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "save failed", err)
		return
	}
	response.Success(c, nil)
}

// ListExclusions 查询统计排除名单
func (h *Handler) ListExclusions(c *gin.Context) {
	if h.StatsAggregator == nil {
		respondError(c, response.CodeInternal, "fetch failed", nil)
		return
	}
	rows, err := h.StatsAggregator.ListExclusions()
	if err != nil {
		respondError(c, response.CodeInternal, "fetch failed", err)
		return
	}
	response.Success(c, rows)
}
