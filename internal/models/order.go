package models

import (
	"time"
)

// Order 订单（sales_code 写入后不可变，状态由确认/过期流程推进）
type Order struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                  // 主键
	OrderNo       string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_no"` // 订单号
	SalesCode     string    `gorm:"type:varchar(32);not null;index" json:"sales_code"`     // 归因销售编码
	Amount        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`   // 订单金额
	PaymentMethod string    `gorm:"type:varchar(32);index" json:"payment_method"`          // 支付方式
	Status        string    `gorm:"type:varchar(32);not null;index" json:"status"`         // 订单状态
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`                               // 更新时间
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
