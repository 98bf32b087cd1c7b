package services

import (
	"encoding/json"
	"fmt"
	"time"

	"TaskPilotGo/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 审计动作名称
const (
	ActionTaskCreate       = "task.create"
	ActionTaskUpdate       = "task.update"
	ActionTaskDelete       = "task.delete"
	ActionTaskBulkComplete = "task.bulk_complete"
	ActionTaskBulkDelete   = "task.bulk_delete"
	ActionTaskReorder      = "task.reorder"
	ActionProjectCreate    = "project.create"
	ActionProjectUpdate    = "project.update"
	ActionProjectDelete    = "project.delete"
)

const maxUserAgentLen = 255

// Actor 操作者及请求信息
type Actor struct {
	UserID    uint
	IP        string
	UserAgent string
}

// TaskSnapshot 更新/删除时记录的字段
type TaskSnapshot struct {
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Status      models.Status   `json:"status"`
	Priority    models.Priority `json:"priority"`
	DueDate     *string         `json:"due_date"`
	Position    int             `json:"position"`
	CompletedAt *time.Time      `json:"completed_at"`
	ProjectID   *uint           `json:"project_id"`
}

// TaskCreatedSnapshot 创建时只记录 after
type TaskCreatedSnapshot struct {
	Title     string          `json:"title"`
	Status    models.Status   `json:"status"`
	Priority  models.Priority `json:"priority"`
	DueDate   *string         `json:"due_date"`
	Position  int             `json:"position"`
	CreatorID uint            `json:"creator_id"`
}

// TaskState 批量操作前每个任务的状态
type TaskState struct {
	Status      models.Status `json:"status"`
	CompletedAt *time.Time    `json:"completed_at"`
}

// BulkMeta 批量操作的附加信息
type BulkMeta struct {
	IDs   []uint `json:"ids"`
	Count int    `json:"count"`
}

// ReorderMeta 排序请求中的 id 顺序
type ReorderMeta struct {
	IDs []uint `json:"ids"`
}

// PositionMap id => position
type PositionMap map[uint]int

// ProjectSnapshot 项目记录的字段
type ProjectSnapshot struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

func snapshotTask(t models.Task) TaskSnapshot {
	return TaskSnapshot{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDateString(),
		Position:    t.Position,
		CompletedAt: t.CompletedAt,
		ProjectID:   t.ProjectID,
	}
}

func snapshotProject(p models.Project) ProjectSnapshot {
	return ProjectSnapshot{Name: p.Name, Color: p.Color}
}

// Entry 一条待写入的审计记录，只能通过下面的构造函数创建
type Entry struct {
	action     string
	entityType string
	entityID   uint
	before     any
	after      any
	meta       any
}

func (e Entry) Action() string { return e.action }

func TaskCreated(t models.Task) Entry {
	return Entry{
		action:     ActionTaskCreate,
		entityType: t.EntityType(),
		entityID:   t.ID,
		after: TaskCreatedSnapshot{
			Title:     t.Title,
			Status:    t.Status,
			Priority:  t.Priority,
			DueDate:   t.DueDateString(),
			Position:  t.Position,
			CreatorID: t.CreatorID,
		},
	}
}

func TaskUpdated(t models.Task, before, after TaskSnapshot) Entry {
	return Entry{action: ActionTaskUpdate, entityType: t.EntityType(), entityID: t.ID, before: before, after: after}
}

func TaskDeleted(t models.Task) Entry {
	return Entry{action: ActionTaskDelete, entityType: t.EntityType(), entityID: t.ID, before: snapshotTask(t)}
}

func TasksBulkCompleted(before map[uint]TaskState, ids []uint) Entry {
	return Entry{action: ActionTaskBulkComplete, before: before, meta: BulkMeta{IDs: ids, Count: len(ids)}}
}

func TasksBulkDeleted(before map[uint]TaskState, ids []uint) Entry {
	return Entry{action: ActionTaskBulkDelete, before: before, meta: BulkMeta{IDs: ids, Count: len(ids)}}
}

func TasksReordered(before, after PositionMap, ids []uint) Entry {
	return Entry{action: ActionTaskReorder, before: before, after: after, meta: ReorderMeta{IDs: ids}}
}

func ProjectCreated(p models.Project) Entry {
	return Entry{action: ActionProjectCreate, entityType: p.EntityType(), entityID: p.ID, after: snapshotProject(p)}
}

func ProjectUpdated(p models.Project, before, after ProjectSnapshot) Entry {
	return Entry{action: ActionProjectUpdate, entityType: p.EntityType(), entityID: p.ID, before: before, after: after}
}

func ProjectDeleted(p models.Project) Entry {
	return Entry{action: ActionProjectDelete, entityType: p.EntityType(), entityID: p.ID, before: snapshotProject(p)}
}

// AuditRecorder 写入审计日志，调用方传入所在的事务
type AuditRecorder struct{}

// Record 追加一行 ActivityLog
func (AuditRecorder) Record(tx *gorm.DB, actor Actor, e Entry) error {
	row := models.ActivityLog{Action: e.action}
	if actor.UserID != 0 {
		uid := actor.UserID
		row.UserID = &uid
	}
	if e.entityType != "" {
		entityType := e.entityType
		row.EntityType = &entityType
	}
	if e.entityID != 0 {
		entityID := e.entityID
		row.EntityID = &entityID
	}
	if actor.IP != "" {
		ip := actor.IP
		row.IP = &ip
	}
	if actor.UserAgent != "" {
		ua := actor.UserAgent
		if len(ua) > maxUserAgentLen {
			ua = ua[:maxUserAgentLen]
		}
		row.UA = &ua
	}

	var err error
	if row.Before, err = encodeSnapshot(e.before); err != nil {
		return err
	}
	if row.After, err = encodeSnapshot(e.after); err != nil {
		return err
	}
	if row.Meta, err = encodeSnapshot(e.meta); err != nil {
		return err
	}

	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("record %s: %w", e.action, err)
	}
	return nil
}

// encodeSnapshot 空值写入 NULL
func encodeSnapshot(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	switch string(data) {
	case "null", "{}", "[]":
		return nil, nil
	}
	return datatypes.JSON(data), nil
}
