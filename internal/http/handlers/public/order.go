package public

import (
	"strings"

	"github.com/fenxiao-api/internal/http/response"
	"github.com/fenxiao-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest 订单创建请求
type CreateOrderRequest struct {
	SalesCode     string          `json:"sales_code" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
}

// CreateOrder 创建订单并归因佣金
func (h *Handler) CreateOrder(c *gin.Context) {
	if h.CommissionService == nil {
		respondError(c, response.CodeInternal, "order create failed", nil)
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.CommissionService.CreateOrder(service.CreateOrderInput{
		SalesCode:     strings.TrimSpace(req.SalesCode),
		Amount:        req.Amount,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Status:        strings.TrimSpace(req.Status),
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}
	response.Success(c, result)
}
