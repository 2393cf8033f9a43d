package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/fenxiao-api/internal/http/response"
	"github.com/fenxiao-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AttachHierarchyRequest 挂靠请求
type AttachHierarchyRequest struct {
	PrimaryID      uint             `json:"primary_id" binding:"required"`
	SecondaryID    uint             `json:"secondary_id" binding:"required"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
}

// DetachHierarchyRequest 解除挂靠请求
type DetachHierarchyRequest struct {
	PrimaryID   uint   `json:"primary_id" binding:"required"`
	SecondaryID uint   `json:"secondary_id" binding:"required"`
	Reason      string `json:"reason"`
}

// UpdateHierarchyRateRequest 更新挂靠比例请求
type UpdateHierarchyRateRequest struct {
	PrimaryID      uint            `json:"primary_id" binding:"required"`
	SecondaryID    uint            `json:"secondary_id" binding:"required"`
	CommissionRate decimal.Decimal `json:"commission_rate" binding:"required"`
}

// AttachHierarchy 挂靠二级销售
func (h *Handler) AttachHierarchy(c *gin.Context) {
	if h.HierarchyGraph == nil {
		respondError(c, response.CodeInternal, "hierarchy attach failed", nil)
		return
	}
	var req AttachHierarchyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	link, err := h.HierarchyGraph.Attach(req.PrimaryID, req.SecondaryID, req.CommissionRate)
	if err != nil {
		respondHierarchyError(c, err, "hierarchy attach failed")
		return
	}
	response.Success(c, link)
}

// DetachHierarchy 解除挂靠
func (h *Handler) DetachHierarchy(c *gin.Context) {
	if h.HierarchyGraph == nil {
		respondError(c, response.CodeInternal, "hierarchy detach failed", nil)
		return
	}
	var req DetachHierarchyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.HierarchyGraph.Detach(req.PrimaryID, req.SecondaryID, operatorName(c), strings.TrimSpace(req.Reason)); err != nil {
		respondHierarchyError(c, err, "hierarchy detach failed")
		return
	}
	response.Success(c, nil)
}

// UpdateHierarchyRate 更新挂靠关系的比例覆盖
func (h *Handler) UpdateHierarchyRate(c *gin.Context) {
	if h.HierarchyGraph == nil {
		respondError(c, response.CodeInternal, "save failed", nil)
		return
	}
	var req UpdateHierarchyRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	link, err := h.HierarchyGraph.UpdateLinkRate(req.PrimaryID, req.SecondaryID, req.CommissionRate)
	if err != nil {
		respondHierarchyError(c, err, "save failed")
		return
	}
	response.Success(c, link)
}

// ListChildren 查询一级销售名下的二级销售
func (h *Handler) ListChildren(c *gin.Context) {
	if h.HierarchyGraph == nil {
		respondError(c, response.CodeInternal, "fetch failed", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	activeOnly := c.DefaultQuery("active_only", "true") != "false"
	children, err := h.HierarchyGraph.ListChildren(uint(id), activeOnly)
	if err != nil {
		respondError(c, response.CodeInternal, "fetch failed", err)
		return
	}
	response.Success(c, children)
}

func respondHierarchyError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "sales account not found", nil)
	case errors.Is(err, service.ErrHierarchyLinkExists):
		respondError(c, response.CodeConflict, "hierarchy link already exists", nil)
	case errors.Is(err, service.ErrHierarchyLinkNotFound):
		respondError(c, response.CodeNotFound, "hierarchy link not found", nil)
	case errors.Is(err, service.ErrInvalidCommissionRate):
		respondError(c, response.CodeBadRequest, "invalid commission rate", nil)
	default:
		respondError(c, response.CodeInternal, fallbackMsg, err)
	}
}
