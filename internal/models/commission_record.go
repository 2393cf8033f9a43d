package models

import (
	"time"
)

// CommissionRecord 佣金分成记录（与订单同事务写入，pending→settled 单向终态）
type CommissionRecord struct {
	ID                   uint       `gorm:"primarykey" json:"id"`                                                  // 主键
	OrderID              uint       `gorm:"not null;uniqueIndex" json:"order_id"`                                  // 订单ID
	PrimaryID            *uint      `gorm:"index" json:"primary_id,omitempty"`                                     // 一级销售ID
	SecondaryID          *uint      `gorm:"index" json:"secondary_id,omitempty"`                                   // 二级销售ID
	OrderAmount          Money      `gorm:"type:decimal(20,2);not null;default:0" json:"order_amount"`             // 订单金额
	PrimaryCommission    Money      `gorm:"type:decimal(20,2);not null;default:0" json:"primary_commission"`       // 一级总佣金（base*amount）
	SecondaryCommission  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"secondary_commission"`     // 二级佣金
	NetPrimaryCommission Money      `gorm:"type:decimal(20,2);not null;default:0" json:"net_primary_commission"`   // 一级净佣金（扣除二级后）
	Status               string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`       // 佣金状态
	SettledAt            *time.Time `gorm:"index" json:"settled_at,omitempty"`                                     // 结算时间
	SettledBy            string     `gorm:"type:varchar(64)" json:"settled_by,omitempty"`                          // 结算操作人
	CreatedAt            time.Time  `gorm:"index" json:"created_at"`                                               // 创建时间
	UpdatedAt            time.Time  `gorm:"index" json:"updated_at"`                                               // 更新时间

	Order Order `gorm:"foreignKey:OrderID" json:"order,omitempty"` // 关联订单
}

// TableName 指定表名
func (CommissionRecord) TableName() string {
	return "commission_records"
}
