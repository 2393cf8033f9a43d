package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HierarchyLink 一级与二级销售之间的挂靠关系
//
// 同一 (primary_id, secondary_id) 至多一条 active 记录，且一个二级销售
// 同时至多挂靠一个一级销售；历史 removed 记录保留审计字段。
// 唯一性在事务内由服务层校验，软移除的历史行不参与唯一约束。
type HierarchyLink struct {
	ID             uint             `gorm:"primarykey" json:"id"`                                           // 主键
	PrimaryID      uint             `gorm:"not null;index:idx_hierarchy_pair" json:"primary_id"`            // 一级销售ID
	SecondaryID    uint             `gorm:"not null;index:idx_hierarchy_pair;index" json:"secondary_id"`    // 二级销售ID
	CommissionRate *decimal.Decimal `gorm:"type:decimal(10,4)" json:"commission_rate,omitempty"`            // 本挂靠关系的比例覆盖（空则用二级默认）
	Status         string           `gorm:"type:varchar(20);not null;default:'active';index" json:"status"` // 状态
	RemovedBy      string           `gorm:"type:varchar(64)" json:"removed_by,omitempty"`                   // 移除操作人
	RemovedAt      *time.Time       `json:"removed_at,omitempty"`                                           // 移除时间
	Reason         string           `gorm:"type:varchar(255)" json:"reason,omitempty"`                      // 移除原因
	CreatedAt      time.Time        `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt      time.Time        `gorm:"index" json:"updated_at"`                                        // 更新时间

	Primary   SalesAccount `gorm:"foreignKey:PrimaryID" json:"primary,omitempty"`     // 一级销售
	Secondary SalesAccount `gorm:"foreignKey:SecondaryID" json:"secondary,omitempty"` // 二级销售
}

// TableName 指定表名
func (HierarchyLink) TableName() string {
	return "hierarchy_links"
}
