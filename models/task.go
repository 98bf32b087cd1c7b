package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Task 任务模型
type Task struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	ProjectID   *uint                       `gorm:"index:idx_tasks_project_assignee_status" json:"project_id"`
	CreatorID   uint                        `gorm:"not null;index" json:"creator_id"`
	AssigneeID  *uint                       `gorm:"index:idx_tasks_project_assignee_status" json:"assignee_id"`
	ParentID    *uint                       `gorm:"index" json:"parent_id"`
	Title       string                      `gorm:"type:varchar(160);not null" json:"title"`
	Description *string                     `gorm:"type:text" json:"description"`
	Status      Status                      `gorm:"type:varchar(16);not null;default:todo;index:idx_tasks_project_assignee_status" json:"status"`
	Priority    Priority                    `gorm:"type:varchar(16);not null;default:normal" json:"priority"`
	StartDate   *time.Time                  `gorm:"type:date" json:"start_date"`
	DueDate     *time.Time                  `gorm:"type:date;index:idx_tasks_due_completed" json:"due_date"`
	CompletedAt *time.Time                  `gorm:"index:idx_tasks_due_completed" json:"completed_at"`
	Position    int                         `gorm:"not null;default:0" json:"position"`
	Labels      datatypes.JSONSlice[string] `json:"labels"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	DeletedAt   gorm.DeletedAt              `gorm:"index" json:"-"`

	Project *Project `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// EntityType 用于授权策略和审计日志
func (Task) EntityType() string { return "task" }

// Owner 任务的所有者是创建者
func (t Task) Owner() uint { return t.CreatorID }

// DueDateString 返回 YYYY-MM-DD，没有期限时返回 nil
func (t Task) DueDateString() *string {
	return FormatDate(t.DueDate)
}

// ToRow 转换为列表行的最小结构
func (t Task) ToRow() TaskRow {
	return TaskRow{
		ID:       t.ID,
		Title:    t.Title,
		Status:   t.Status,
		Priority: t.Priority,
		DueDate:  t.DueDateString(),
	}
}

// ToEditView 转换为编辑画面用的结构
func (t Task) ToEditView() TaskEditView {
	labels := []string(t.Labels)
	if labels == nil {
		labels = []string{}
	}
	return TaskEditView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		ProjectID:   t.ProjectID,
		AssigneeID:  t.AssigneeID,
		ParentID:    t.ParentID,
		StartDate:   FormatDate(t.StartDate),
		DueDate:     t.DueDateString(),
		Position:    t.Position,
		Labels:      labels,
	}
}
