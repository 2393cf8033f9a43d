package models

import (
	"time"
)

// StatisticsSnapshot 每个销售账号的统计快照（纯派生缓存，可随时重算）
type StatisticsSnapshot struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                            // 主键
	SalesID           uint      `gorm:"not null;uniqueIndex" json:"sales_id"`                            // 销售账号ID
	ValidOrders       int64     `gorm:"not null;default:0" json:"valid_orders"`                          // 有效订单数
	ConfirmedOrders   int64     `gorm:"not null;default:0" json:"confirmed_orders"`                      // 确认订单数
	TotalAmount       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`       // 累计订单金额
	ConfirmedAmount   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"confirmed_amount"`   // 确认订单金额
	CommissionAmount  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"commission_amount"`  // 累计佣金
	PaidCommission    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"paid_commission"`    // 已结算佣金
	PendingCommission Money     `gorm:"type:decimal(20,2);not null;default:0" json:"pending_commission"` // 待结算佣金
	LastCalculatedAt  time.Time `json:"last_calculated_at"`                                              // 最近重算时间
	CreatedAt         time.Time `json:"created_at"`                                                      // 创建时间
	UpdatedAt         time.Time `json:"updated_at"`                                                      // 更新时间
}

// TableName 指定表名
func (StatisticsSnapshot) TableName() string {
	return "statistics_snapshots"
}
