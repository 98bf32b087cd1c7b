package models

import (
	"time"

	"gorm.io/datatypes"
)

// TaskRow 列表中每一行的结构
type TaskRow struct {
	ID       uint     `json:"id"`
	Title    string   `json:"title"`
	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`
	DueDate  *string  `json:"due_date"`
}

// TaskPage 分页结果
type TaskPage struct {
	Data        []TaskRow `json:"data"`
	CurrentPage int       `json:"current_page"`
	LastPage    int       `json:"last_page"`
	PerPage     int       `json:"per_page"`
	Total       int64     `json:"total"`
}

// TaskFilters 列表筛选条件（前端表单初始值）
type TaskFilters struct {
	Q          *string `json:"q"`
	Status     *string `json:"status"`
	Priority   *string `json:"priority"`
	ProjectID  *uint   `json:"project_id"`
	AssigneeID *uint   `json:"assignee_id"`
	Overdue    bool    `json:"overdue"`
	DueFrom    *string `json:"due_from"`
	DueTo      *string `json:"due_to"`
	Sort       string  `json:"sort"`
	Dir        string  `json:"dir"`
	PerPage    int     `json:"per_page"`
}

// TaskListResponse 任务列表响应
type TaskListResponse struct {
	Tasks   TaskPage    `json:"tasks"`
	Filters TaskFilters `json:"filters"`
	Flash   *Flash      `json:"flash"`
}

// TaskEditView 编辑画面用
type TaskEditView struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	ProjectID   *uint    `json:"project_id"`
	AssigneeID  *uint    `json:"assignee_id"`
	ParentID    *uint    `json:"parent_id"`
	StartDate   *string  `json:"start_date"`
	DueDate     *string  `json:"due_date"`
	Position    int      `json:"position"`
	Labels      []string `json:"labels"`
}

// DashboardStats 仪表盘指标
type DashboardStats struct {
	DoneThisWeek int64 `json:"done_this_week"`
	Overdue      int64 `json:"overdue"`
	WIP          int64 `json:"wip"`
	UrgentOpen   int64 `json:"urgent_open"`
	DoneToday    int64 `json:"done_today"`
	Stress       int   `json:"stress"`
	TTG          int   `json:"ttg"`
}

// TriageItem "接下来做什么" 列表项
type TriageItem struct {
	ID       uint     `json:"id"`
	Title    string   `json:"title"`
	Priority Priority `json:"priority"`
	Status   Status   `json:"status"`
	DueDate  *string  `json:"due_date"`
}

// ProjectBreakdown 按项目统计的 WIP / 超期
type ProjectBreakdown struct {
	Project string `json:"project"`
	WIP     int64  `json:"wip"`
	Overdue int64  `json:"overdue"`
}

// DashboardResponse 仪表盘响应
type DashboardResponse struct {
	Stats     DashboardStats     `json:"stats"`
	Triage    []TriageItem       `json:"triage"`
	ByProject []ProjectBreakdown `json:"by_project"`
	Flash     *Flash             `json:"flash"`
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

// ActivityResponse 审计日志响应
type ActivityResponse struct {
	ID         uint           `json:"id"`
	Action     string         `json:"action"`
	EntityType *string        `json:"entity_type"`
	EntityID   *uint          `json:"entity_id"`
	Before     datatypes.JSON `json:"before"`
	After      datatypes.JSON `json:"after"`
	Meta       datatypes.JSON `json:"meta"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ActivityPage 审计日志分页结果
type ActivityPage struct {
	Data        []ActivityResponse `json:"data"`
	CurrentPage int                `json:"current_page"`
	LastPage    int                `json:"last_page"`
	PerPage     int                `json:"per_page"`
	Total       int64              `json:"total"`
}

// Flash 一次性提示消息
type Flash struct {
	Type    string `json:"type"` // success, error
	Message string `json:"message"`
}
