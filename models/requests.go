package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 列表默认值
const (
	DefaultPerPage = 10
	MinPerPage     = 5
	MaxPerPage     = 100
	DefaultSort    = "position"
	DefaultDir     = "asc"
)

// SortKeys 列表允许的排序键
var SortKeys = []string{"position", "due_date", "created_at", "priority", "status"}

// ListTasksRequest 任务列表查询参数
type ListTasksRequest struct {
	Q          string `form:"q" binding:"max=160"`
	Status     string `form:"status" binding:"omitempty,oneof=todo doing done archived"`
	Priority   string `form:"priority" binding:"omitempty,oneof=low normal high urgent"`
	ProjectID  string `form:"project_id" binding:"omitempty,number"`
	AssigneeID string `form:"assignee_id" binding:"omitempty,number"`
	Overdue    string `form:"overdue" binding:"omitempty,oneof=0 1 true false"`
	DueFrom    string `form:"due_from" binding:"omitempty,datetime=2006-01-02"`
	DueTo      string `form:"due_to" binding:"omitempty,datetime=2006-01-02"`
	Sort       string `form:"sort" binding:"omitempty,oneof=position due_date created_at priority status"`
	Dir        string `form:"dir" binding:"omitempty,oneof=asc desc"`
	PerPage    string `form:"per_page" binding:"omitempty,integer"`
	Page       string `form:"page" binding:"omitempty,integer"`
}

// TaskFilter 校验后的列表条件
type TaskFilter struct {
	Keyword     string
	Status      Status
	Priority    Priority
	ProjectID   *uint
	AssigneeID  *uint
	OverdueOnly bool
	DueFrom     *time.Time
	DueTo       *time.Time
	Sort        string
	Dir         string
	PerPage     int
	Page        int
}

// ToFilter 转换为 TaskFilter 并补上默认值
func (r *ListTasksRequest) ToFilter() (TaskFilter, error) {
	filter := TaskFilter{
		Keyword:     strings.TrimSpace(r.Q),
		Status:      Status(r.Status),
		Priority:    Priority(r.Priority),
		OverdueOnly: r.Overdue == "1" || r.Overdue == "true",
		Sort:        r.Sort,
		Dir:         r.Dir,
	}

	var err error
	if filter.ProjectID, err = parseIDParam("project_id", r.ProjectID); err != nil {
		return TaskFilter{}, err
	}
	if filter.AssigneeID, err = parseIDParam("assignee_id", r.AssigneeID); err != nil {
		return TaskFilter{}, err
	}
	if filter.Page, filter.PerPage, err = parsePageParams(r.Page, r.PerPage); err != nil {
		return TaskFilter{}, err
	}
	if filter.DueFrom, err = ParseDate(r.DueFrom); err != nil {
		return TaskFilter{}, &ParamError{Field: "due_from", Message: "is not a valid date"}
	}
	if filter.DueTo, err = ParseDate(r.DueTo); err != nil {
		return TaskFilter{}, &ParamError{Field: "due_to", Message: "is not a valid date"}
	}
	return filter.WithDefaults(), nil
}

// ParamError 查询参数无法解析
type ParamError struct {
	Field   string
	Message string
}

func (e *ParamError) Error() string {
	return e.Field + " " + e.Message
}

// parseIntParam 空字符串返回 fallback
func parseIntParam(field, value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ParamError{Field: field, Message: "must be an integer"}
	}
	return n, nil
}

// parsePageParams 未指定时为 1 和 DefaultPerPage；显式的 0 不会被当作未指定
func parsePageParams(page, perPage string) (int, int, error) {
	p, err := parseIntParam("page", page, 1)
	if err != nil {
		return 0, 0, err
	}
	if p == 0 {
		return 0, 0, &ParamError{Field: "page", Message: "must be at least 1"}
	}
	pp, err := parseIntParam("per_page", perPage, DefaultPerPage)
	if err != nil {
		return 0, 0, err
	}
	if pp == 0 {
		return 0, 0, &ParamError{Field: "per_page", Message: fmt.Sprintf("must be between %d and %d", MinPerPage, MaxPerPage)}
	}
	return p, pp, nil
}

func parseIDParam(field, value string) (*uint, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(value, 10, 0)
	if err != nil {
		return nil, &ParamError{Field: field, Message: "is invalid"}
	}
	id := uint(n)
	return &id, nil
}

// WithDefaults 未指定排序时按手动顺序
func (f TaskFilter) WithDefaults() TaskFilter {
	if f.Sort == "" {
		f.Sort = DefaultSort
	}
	if f.Dir == "" {
		f.Dir = DefaultDir
	}
	if f.PerPage == 0 {
		f.PerPage = DefaultPerPage
	}
	if f.Page == 0 {
		f.Page = 1
	}
	return f
}

// Echo 回显给前端表单的筛选条件
func (f TaskFilter) Echo() TaskFilters {
	echo := TaskFilters{
		ProjectID:  f.ProjectID,
		AssigneeID: f.AssigneeID,
		Overdue:    f.OverdueOnly,
		DueFrom:    FormatDate(f.DueFrom),
		DueTo:      FormatDate(f.DueTo),
		Sort:       f.Sort,
		Dir:        f.Dir,
		PerPage:    f.PerPage,
	}
	if f.Keyword != "" {
		echo.Q = &f.Keyword
	}
	if f.Status != "" {
		s := string(f.Status)
		echo.Status = &s
	}
	if f.Priority != "" {
		p := string(f.Priority)
		echo.Priority = &p
	}
	return echo
}

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	Title       string   `json:"title" binding:"required,max=160"`
	Description *string  `json:"description"`
	Status      string   `json:"status" binding:"omitempty,oneof=todo doing done archived"`
	Priority    string   `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	DueDate     string   `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	StartDate   string   `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	ProjectID   *uint    `json:"project_id"`
	AssigneeID  *uint    `json:"assignee_id"`
	ParentID    *uint    `json:"parent_id"`
	Labels      []string `json:"labels" binding:"omitempty,max=20,dive,max=32"`
}

// UpdateTaskRequest 更新任务请求（PUT 语义，未提供的可选字段会被清空）
type UpdateTaskRequest struct {
	Title       string   `json:"title" binding:"required,max=160"`
	Description *string  `json:"description"`
	Status      string   `json:"status" binding:"required,oneof=todo doing done archived"`
	Priority    string   `json:"priority" binding:"required,oneof=low normal high urgent"`
	DueDate     string   `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	StartDate   string   `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	ProjectID   *uint    `json:"project_id"`
	AssigneeID  *uint    `json:"assignee_id"`
	ParentID    *uint    `json:"parent_id"`
	Labels      []string `json:"labels" binding:"omitempty,max=20,dive,max=32"`
}

// TaskInput 创建和更新共用的写入内容
type TaskInput struct {
	Title       string
	Description *string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	StartDate   *time.Time
	ProjectID   *uint
	AssigneeID  *uint
	ParentID    *uint
	Labels      []string
}

func (r *CreateTaskRequest) ToInput() (TaskInput, error) {
	return buildTaskInput(r.Title, r.Description, r.Status, r.Priority, r.DueDate, r.StartDate, r.ProjectID, r.AssigneeID, r.ParentID, r.Labels)
}

func (r *UpdateTaskRequest) ToInput() (TaskInput, error) {
	return buildTaskInput(r.Title, r.Description, r.Status, r.Priority, r.DueDate, r.StartDate, r.ProjectID, r.AssigneeID, r.ParentID, r.Labels)
}

func buildTaskInput(title string, description *string, status, priority, dueDate, startDate string, projectID, assigneeID, parentID *uint, labels []string) (TaskInput, error) {
	input := TaskInput{
		Title:      strings.TrimSpace(title),
		Status:     Status(status),
		Priority:   Priority(priority),
		ProjectID:  projectID,
		AssigneeID: assigneeID,
		ParentID:   parentID,
		Labels:     labels,
	}
	if description != nil && strings.TrimSpace(*description) != "" {
		input.Description = description
	}

	var err error
	if input.DueDate, err = ParseDate(dueDate); err != nil {
		return TaskInput{}, fmt.Errorf("due_date: %w", err)
	}
	if input.StartDate, err = ParseDate(startDate); err != nil {
		return TaskInput{}, fmt.Errorf("start_date: %w", err)
	}
	return input, nil
}

// BulkTaskRequest 批量操作请求
type BulkTaskRequest struct {
	IDs    []uint `json:"ids" binding:"required,min=1"`
	Action string `json:"action" binding:"required,oneof=complete delete"`
}

// ReorderTasksRequest 拖拽排序结果，ids 按新顺序排列
type ReorderTasksRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// ProjectRequest 项目创建/更新请求
type ProjectRequest struct {
	Name  string  `json:"name" binding:"required,max=120"`
	Color *string `json:"color" binding:"omitempty,max=16"`
}

// ProjectQuery 项目列表的搜索参数
type ProjectQuery struct {
	Q string `form:"q" binding:"max=120"`
}

// ActivityQuery 审计日志查询参数
type ActivityQuery struct {
	EntityType string `form:"entity_type" binding:"omitempty,oneof=task project"`
	EntityID   string `form:"entity_id" binding:"omitempty,number"`
	Action     string `form:"action" binding:"max=64"`
	PerPage    string `form:"per_page" binding:"omitempty,integer"`
	Page       string `form:"page" binding:"omitempty,integer"`
}

// ActivityParams 解析后的审计日志查询参数
type ActivityParams struct {
	EntityID *uint
	Page     int
	PerPage  int
}

// Params 解析数值参数，未指定时使用默认值
func (q *ActivityQuery) Params() (ActivityParams, error) {
	var (
		p   ActivityParams
		err error
	)
	if p.EntityID, err = parseIDParam("entity_id", q.EntityID); err != nil {
		return ActivityParams{}, err
	}
	if p.Page, p.PerPage, err = parsePageParams(q.Page, q.PerPage); err != nil {
		return ActivityParams{}, err
	}
	return p, nil
}
