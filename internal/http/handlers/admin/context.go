package admin

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// operatorName 读取 JWT 中间件写入的操作人用户名，审计字段用
func operatorName(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("admin_username"); ok {
		if name, ok := value.(string); ok {
			return strings.TrimSpace(name)
		}
	}
	return ""
}
