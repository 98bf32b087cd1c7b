package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog 审计日志，只追加不修改
type ActivityLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     *uint          `gorm:"index" json:"user_id"`
	Action     string         `gorm:"type:varchar(64);not null" json:"action"`
	EntityType *string        `gorm:"type:varchar(64);index:idx_activity_logs_entity" json:"entity_type"`
	EntityID   *uint          `gorm:"index:idx_activity_logs_entity" json:"entity_id"`
	Before     datatypes.JSON `json:"before"`
	After      datatypes.JSON `json:"after"`
	Meta       datatypes.JSON `json:"meta"`
	IP         *string        `gorm:"type:varchar(45)" json:"ip"`
	UA         *string        `gorm:"type:varchar(255)" json:"ua"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// ToResponse 转换为响应结构
func (l ActivityLog) ToResponse() ActivityResponse {
	return ActivityResponse{
		ID:         l.ID,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Before:     l.Before,
		After:      l.After,
		Meta:       l.Meta,
		CreatedAt:  l.CreatedAt,
	}
}
