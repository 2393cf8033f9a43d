package public

import (
	"errors"
	"strconv"

	"github.com/fenxiao-api/internal/http/response"
	"github.com/fenxiao-api/internal/service"

	"github.com/gin-gonic/gin"
)

// GetSalesStatistics 查询销售账号的统计快照
func (h *Handler) GetSalesStatistics(c *gin.Context) {
	if h.StatsAggregator == nil {
		respondError(c, response.CodeInternal, "statistics unavailable", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	snapshot, err := h.StatsAggregator.Snapshot(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "sales account not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "statistics fetch failed", err)
		return
	}
	response.Success(c, snapshot)
}
