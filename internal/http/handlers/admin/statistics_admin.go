package admin

import (
	"errors"
	"strconv"

	"github.com/fenxiao-api/internal/http/response"
	"github.com/fenxiao-api/internal/service"

	"github.com/gin-gonic/gin"
)

// RecomputeStatistics 触发全量统计重算
//
// 队列可用时异步执行，否则降级为同步重算。
func (h *Handler) RecomputeStatistics(c *gin.Context) {
	if h.StatsAggregator == nil {
		respondError(c, response.CodeInternal, "recompute failed", nil)
		return
	}
	if h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueStatsRecomputeAll(); err != nil {
			respondError(c, response.CodeInternal, "recompute enqueue failed", err)
			return
		}
		response.SuccessWithMsg(c, "recompute enqueued", nil)
		return
	}
	if err := h.StatsAggregator.RecomputeAll(); err != nil {
		respondError(c, response.CodeInternal, "recompute failed", err)
		return
	}
	response.Success(c, nil)
}

// RecomputeSalesStatistics 重算单个销售账号的统计快照
func (h *Handler) RecomputeSalesStatistics(c *gin.Context) {
	if h.StatsAggregator == nil {
		respondError(c, response.CodeInternal, "recompute failed", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	snapshot, err := h.StatsAggregator.Recompute(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "sales account not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "recompute failed", err)
		return
	}
	response.Success(c, snapshot)
}
