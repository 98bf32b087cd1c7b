package models

import "time"

// Project 项目模型，名称在同一所有者内唯一
type Project struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	OwnerID    uint       `gorm:"not null;uniqueIndex:idx_projects_owner_name" json:"owner_id"`
	Name       string     `gorm:"type:varchar(120);not null;uniqueIndex:idx_projects_owner_name" json:"name"`
	Color      *string    `gorm:"type:varchar(16)" json:"color"`
	ArchivedAt *time.Time `json:"archived_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Project) EntityType() string { return "project" }

// Owner 项目的所有者
func (p Project) Owner() uint { return p.OwnerID }

// ToResponse 转换为响应结构
func (p Project) ToResponse() ProjectResponse {
	return ProjectResponse{ID: p.ID, Name: p.Name, Color: p.Color}
}
