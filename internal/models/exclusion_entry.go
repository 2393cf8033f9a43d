package models

import (
	"time"
)

// ExclusionEntry 统计排除名单（只影响汇总口径，不触碰原始数据）
type ExclusionEntry struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                   // 主键
	SalesCode         string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"sales_code"` // 被排除的销售编码
	ExcludedFromStats bool      `gorm:"not null;default:true" json:"excluded_from_stats"`       // 是否排除出统计
	Reason            string    `gorm:"type:varchar(255)" json:"reason,omitempty"`              // 排除原因
	CreatedBy         string    `gorm:"type:varchar(64)" json:"created_by,omitempty"`           // 操作人
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt         time.Time `gorm:"index" json:"updated_at"`                                // 更新时间
}

// TableName 指定表名
func (ExclusionEntry) TableName() string {
	return "exclusion_entries"
}
