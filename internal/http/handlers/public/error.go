package public

import (
	"errors"

	handlershared "github.com/fenxiao-api/internal/http/handlers/shared"
	"github.com/fenxiao-api/internal/http/response"
	"github.com/fenxiao-api/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrUnresolvedSalesCode, code: response.CodeBadRequest, msg: "sales code not recognized"},
	{target: service.ErrInvalidOrderAmount, code: response.CodeBadRequest, msg: "order amount must be positive"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "invalid order status"},
	{target: service.ErrInvalidCommissionRate, code: response.CodeBadRequest, msg: "commission split not computable"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "order create failed")
}
