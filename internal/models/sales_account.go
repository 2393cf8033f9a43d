package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesAccount 销售账号（单表承载一级/二级/独立三种角色）
type SalesAccount struct {
	ID                        uint            `gorm:"primarykey" json:"id"`                                                            // 主键
	WechatName                string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"wechat_name"`                        // 微信名（全角色唯一）
	Role                      string          `gorm:"type:varchar(20);not null;index" json:"role"`                                     // 角色
	SalesCode                 string          `gorm:"type:varchar(32);not null;uniqueIndex" json:"sales_code"`                         // 销售编码（订单归因唯一键）
	SecondaryRegistrationCode *string         `gorm:"type:varchar(32);uniqueIndex" json:"secondary_registration_code,omitempty"`       // 二级注册码（仅一级账号）
	PaymentMethod             string          `gorm:"type:varchar(32)" json:"payment_method"`                                          // 收款方式
	PaymentAddress            string          `gorm:"type:varchar(255)" json:"payment_address"`                                        // 收款地址
	CommissionRate            decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"commission_rate"`                    // 佣金比例（0..1 小数）
	Status                    string          `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`                  // 状态（软删除）
	CreatedAt                 time.Time       `gorm:"index" json:"created_at"`                                                         // 创建时间
	UpdatedAt                 time.Time       `gorm:"index" json:"updated_at"`                                                         // 更新时间
	DeletedAt                 gorm.DeletedAt  `gorm:"index" json:"-"`                                                                  // 软删除时间
}

// TableName 指定表名
func (SalesAccount) TableName() string {
	return "sales_accounts"
}
