package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"TaskPilotGo/config"
	"TaskPilotGo/models"

	"gorm.io/gorm"
)

const (
	maxTitleLen   = 160
	maxKeywordLen = 160
)

// Bulk 支持的动作
const (
	BulkComplete = "complete"
	BulkDelete   = "delete"
)

// TaskService 任务列表与写操作
type TaskService struct {
	db    *gorm.DB
	clock Clock
	auth  *Authorizer
	audit AuditRecorder
}

func NewTaskService(db *gorm.DB, clock Clock, auth *Authorizer) *TaskService {
	return &TaskService{db: db, clock: clock, auth: auth}
}

// List 按条件筛选、排序并分页
func (s *TaskService) List(ctx context.Context, userID uint, filter models.TaskFilter) (models.TaskPage, error) {
	filter = filter.WithDefaults()
	if err := validateFilter(filter); err != nil {
		return models.TaskPage{}, err
	}

	scope := s.filterScope(userID, filter)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Task{}).Scopes(scope).Count(&total).Error; err != nil {
		return models.TaskPage{}, fmt.Errorf("count tasks: %w", err)
	}

	var tasks []models.Task
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Scopes(scope, sortScope(filter)).
		Select("id", "title", "status", "priority", "due_date").
		Offset((filter.Page - 1) * filter.PerPage).
		Limit(filter.PerPage).
		Find(&tasks).Error
	if err != nil {
		return models.TaskPage{}, fmt.Errorf("list tasks: %w", err)
	}

	rows := make([]models.TaskRow, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, t.ToRow())
	}

	lastPage := int(math.Ceil(float64(total) / float64(filter.PerPage)))
	if lastPage < 1 {
		lastPage = 1
	}
	return models.TaskPage{
		Data:        rows,
		CurrentPage: filter.Page,
		LastPage:    lastPage,
		PerPage:     filter.PerPage,
		Total:       total,
	}, nil
}

func validateFilter(f models.TaskFilter) error {
	errs := validationErrors{}
	if utf8.RuneCountInString(f.Keyword) > maxKeywordLen {
		errs.add("q", fmt.Sprintf("may not be greater than %d characters", maxKeywordLen))
	}
	if f.Status != "" && !f.Status.Valid() {
		errs.add("status", "is invalid")
	}
	if f.Priority != "" && !f.Priority.Valid() {
		errs.add("priority", "is invalid")
	}
	if !containsString(models.SortKeys, f.Sort) {
		errs.add("sort", "is invalid")
	}
	if f.Dir != "asc" && f.Dir != "desc" {
		errs.add("dir", "is invalid")
	}
	if f.PerPage < models.MinPerPage || f.PerPage > models.MaxPerPage {
		errs.add("per_page", fmt.Sprintf("must be between %d and %d", models.MinPerPage, models.MaxPerPage))
	}
	if f.Page < 1 {
		errs.add("page", "must be at least 1")
	}
	return errs.err()
}

// filterScope 所有条件以 AND 组合
func (s *TaskService) filterScope(userID uint, f models.TaskFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("creator_id = ?", userID)
		if f.Keyword != "" {
			like := containsPattern(f.Keyword)
			q = q.Where("(title LIKE ? ESCAPE '!' OR description LIKE ? ESCAPE '!')", like, like)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.Priority != "" {
			q = q.Where("priority = ?", f.Priority)
		}
		if f.ProjectID != nil {
			q = q.Where("project_id = ?", *f.ProjectID)
		}
		if f.AssigneeID != nil {
			q = q.Where("assignee_id = ?", *f.AssigneeID)
		}
		if f.DueFrom != nil {
			q = q.Where("due_date >= ?", *f.DueFrom)
		}
		if f.DueTo != nil {
			q = q.Where("due_date <= ?", *f.DueTo)
		}
		if f.OverdueOnly {
			q = q.Where("completed_at IS NULL AND due_date IS NOT NULL AND due_date < ?", s.clock.Today())
		}
		return q
	}
}

// likeEscaper 转义 LIKE 通配符，转义字符为 '!'
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern 按字面量做部分一致匹配，配合 ESCAPE '!' 使用
func containsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

// sortScope position 固定升序；其它键按指定方向，最后都以 id 降序
func sortScope(f models.TaskFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		dir := strings.ToUpper(f.Dir)
		switch f.Sort {
		case "position":
			q = q.Order("position ASC")
		case "priority":
			q = q.Order(models.PriorityRankSQL("priority") + " " + dir)
		case "status":
			q = q.Order(models.StatusOrdinalSQL("status") + " " + dir)
		case "due_date":
			// 无截止日期的任务无论方向都排在最后
			q = q.Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END").Order("due_date " + dir)
		default:
			// created_at，已在 validateFilter 中白名单校验
			q = q.Order(f.Sort + " " + dir)
		}
		return q.Order("id DESC")
	}
}

// Get 编辑画面用
func (s *TaskService) Get(ctx context.Context, userID, id uint) (models.Task, error) {
	task, err := s.findActive(s.db.WithContext(ctx), id)
	if err != nil {
		return models.Task{}, err
	}
	if err := s.auth.Authorize(userID, AbilityView, task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskService) findActive(db *gorm.DB, id uint) (models.Task, error) {
	var task models.Task
	if err := db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
		return models.Task{}, fmt.Errorf("find task %d: %w", id, err)
	}
	return task, nil
}

func validateTaskInput(in models.TaskInput, requireEnums bool) error {
	errs := validationErrors{}
	if in.Title == "" {
		errs.add("title", "is required")
	} else if utf8.RuneCountInString(in.Title) > maxTitleLen {
		errs.add("title", fmt.Sprintf("may not be greater than %d characters", maxTitleLen))
	}

	if in.Status == "" {
		if requireEnums {
			errs.add("status", "is required")
		}
	} else if !in.Status.Valid() {
		errs.add("status", "is invalid")
	}

	if in.Priority == "" {
		if requireEnums {
			errs.add("priority", "is required")
		}
	} else if !in.Priority.Valid() {
		errs.add("priority", "is invalid")
	}
	return errs.err()
}

// checkReferences 项目/父任务必须属于本人且有效，负责人必须存在。
// 已归档的项目不能再加入新任务，current 为更新前的任务（新建时为 nil）
func (s *TaskService) checkReferences(db *gorm.DB, userID uint, current *models.Task, in models.TaskInput) error {
	errs := validationErrors{}

	var selfID uint
	keepProject := false
	if current != nil {
		selfID = current.ID
		keepProject = current.ProjectID != nil && in.ProjectID != nil && *current.ProjectID == *in.ProjectID
	}

	if in.ProjectID != nil {
		query := db.Model(&models.Project{}).Where("id = ? AND owner_id = ?", *in.ProjectID, userID)
		if !keepProject {
			query = query.Where("archived_at IS NULL")
		}
		var n int64
		if err := query.Count(&n).Error; err != nil {
			return fmt.Errorf("check project: %w", err)
		}
		if n == 0 {
			errs.add("project_id", "is invalid")
		}
	}

	if in.ParentID != nil {
		if selfID != 0 && *in.ParentID == selfID {
			errs.add("parent_id", "cannot reference itself")
		} else {
			var n int64
			if err := db.Model(&models.Task{}).Where("id = ? AND creator_id = ?", *in.ParentID, userID).Count(&n).Error; err != nil {
				return fmt.Errorf("check parent: %w", err)
			}
			if n == 0 {
				errs.add("parent_id", "is invalid")
			}
		}
	}

	if in.AssigneeID != nil {
		var n int64
		if err := db.Model(&models.User{}).Where("id = ?", *in.AssigneeID).Count(&n).Error; err != nil {
			return fmt.Errorf("check assignee: %w", err)
		}
		if n == 0 {
			errs.add("assignee_id", "is invalid")
		}
	}
	return errs.err()
}

// normalizeLabels 去空白、去重（不区分大小写）
func normalizeLabels(labels []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(labels))
	for _, label := range labels {
		trimmed := strings.TrimSpace(label)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// applyInput 写入可编辑字段，并根据状态重新计算 completed_at
func (s *TaskService) applyInput(task *models.Task, in models.TaskInput) {
	task.Title = in.Title
	task.Description = in.Description
	task.Status = in.Status
	task.Priority = in.Priority
	task.StartDate = in.StartDate
	task.DueDate = in.DueDate
	task.ProjectID = in.ProjectID
	task.AssigneeID = in.AssigneeID
	task.ParentID = in.ParentID
	task.Labels = normalizeLabels(in.Labels)

	if task.Status == models.StatusDone {
		now := s.clock.Now()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
}

// Create 新建任务，position 取本人任务（含已删除）的最大值 + 1
func (s *TaskService) Create(ctx context.Context, actor Actor, in models.TaskInput) (models.Task, error) {
	if in.Status == "" {
		in.Status = models.StatusTodo
	}
	if in.Priority == "" {
		in.Priority = models.PriorityNormal
	}
	if err := validateTaskInput(in, false); err != nil {
		return models.Task{}, err
	}

	db := s.db.WithContext(ctx)
	if err := s.checkReferences(db, actor.UserID, nil, in); err != nil {
		return models.Task{}, err
	}

	task := models.Task{CreatorID: actor.UserID}
	s.applyInput(&task, in)

	err := db.Transaction(func(tx *gorm.DB) error {
		var maxPosition int
		if err := tx.Unscoped().Model(&models.Task{}).
			Where("creator_id = ?", actor.UserID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&maxPosition).Error; err != nil {
			return fmt.Errorf("max position: %w", err)
		}
		task.Position = maxPosition + 1

		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return s.audit.Record(tx, actor, TaskCreated(task))
	})
	if err != nil {
		config.Logger.Errorw("创建任务失败", "error", err, "uid", actor.UserID)
		return models.Task{}, err
	}

	config.Logger.Infow("任务已创建", "taskID", task.ID, "uid", actor.UserID)
	return task, nil
}

// Update 全量更新，completed_at 每次都按新状态重新计算
func (s *TaskService) Update(ctx context.Context, actor Actor, id uint, in models.TaskInput) (models.Task, error) {
	if err := validateTaskInput(in, true); err != nil {
		return models.Task{}, err
	}

	db := s.db.WithContext(ctx)
	task, err := s.findActive(db, id)
	if err != nil {
		return models.Task{}, err
	}
	if err := s.auth.Authorize(actor.UserID, AbilityUpdate, task); err != nil {
		return models.Task{}, err
	}
	if err := s.checkReferences(db, actor.UserID, &task, in); err != nil {
		return models.Task{}, err
	}

	before := snapshotTask(task)
	s.applyInput(&task, in)
	after := snapshotTask(task)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&task).
			Select("title", "description", "status", "priority", "start_date", "due_date",
				"completed_at", "project_id", "assignee_id", "parent_id", "labels").
			Updates(&task).Error; err != nil {
			return fmt.Errorf("update task %d: %w", task.ID, err)
		}
		return s.audit.Record(tx, actor, TaskUpdated(task, before, after))
	})
	if err != nil {
		config.Logger.Errorw("更新任务失败", "error", err, "taskID", id, "uid", actor.UserID)
		return models.Task{}, err
	}
	return task, nil
}

// Delete 软删除并记录删除前的快照
func (s *TaskService) Delete(ctx context.Context, actor Actor, id uint) error {
	db := s.db.WithContext(ctx)
	task, err := s.findActive(db, id)
	if err != nil {
		return err
	}
	if err := s.auth.Authorize(actor.UserID, AbilityDelete, task); err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&task).Error; err != nil {
			return fmt.Errorf("delete task %d: %w", task.ID, err)
		}
		return s.audit.Record(tx, actor, TaskDeleted(task))
	})
	if err != nil {
		config.Logger.Errorw("删除任务失败", "error", err, "taskID", id, "uid", actor.UserID)
	}
	return err
}

// validateIDs ids 非空、非零、不重复
func validateIDs(ids []uint) error {
	if len(ids) == 0 {
		return invalid("ids", "is required")
	}
	errs := validationErrors{}
	seen := make(map[uint]struct{}, len(ids))
	for i, id := range ids {
		field := fmt.Sprintf("ids.%d", i)
		if id == 0 {
			errs.add(field, "is invalid")
			continue
		}
		if _, ok := seen[id]; ok {
			errs.add(field, "has a duplicate value")
			continue
		}
		seen[id] = struct{}{}
	}
	return errs.err()
}

func (s *TaskService) ownedIDs(db *gorm.DB, userID uint, ids []uint) ([]uint, error) {
	var owned []uint
	if err := db.Model(&models.Task{}).
		Where("id IN ? AND creator_id = ?", ids, userID).
		Pluck("id", &owned).Error; err != nil {
		return nil, fmt.Errorf("owned ids: %w", err)
	}
	return owned, nil
}

// Bulk 批量完成/删除；只要有一个 id 不属于本人就整体拒绝
func (s *TaskService) Bulk(ctx context.Context, actor Actor, ids []uint, action string) (int, error) {
	if action != BulkComplete && action != BulkDelete {
		return 0, invalid("action", "is invalid")
	}
	if err := validateIDs(ids); err != nil {
		return 0, err
	}

	db := s.db.WithContext(ctx)
	owned, err := s.ownedIDs(db, actor.UserID, ids)
	if err != nil {
		return 0, err
	}
	if err := AuthorizeAll(ids, owned); err != nil {
		config.Logger.Warnw("批量操作包含无权限的任务", "uid", actor.UserID, "ids", ids)
		return 0, err
	}

	var rows []models.Task
	if err := db.Select("id", "status", "completed_at").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("bulk before state: %w", err)
	}
	before := make(map[uint]TaskState, len(rows))
	for _, t := range rows {
		before[t.ID] = TaskState{Status: t.Status, CompletedAt: t.CompletedAt}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		scoped := tx.Model(&models.Task{}).Where("id IN ? AND creator_id = ?", ids, actor.UserID)
		if action == BulkComplete {
			// 已完成的任务保留原来的 completed_at
			if err := scoped.Where("status <> ?", models.StatusDone).Updates(map[string]any{
				"status":       models.StatusDone,
				"completed_at": s.clock.Now(),
			}).Error; err != nil {
				return fmt.Errorf("bulk complete: %w", err)
			}
			return s.audit.Record(tx, actor, TasksBulkCompleted(before, ids))
		}

		if err := scoped.Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("bulk delete: %w", err)
		}
		return s.audit.Record(tx, actor, TasksBulkDeleted(before, ids))
	})
	if err != nil {
		config.Logger.Errorw("批量操作失败", "error", err, "action", action, "uid", actor.UserID)
		return 0, err
	}
	return len(ids), nil
}

// Reorder 按 ids 顺序把 position 重排为 1,2,3...
func (s *TaskService) Reorder(ctx context.Context, actor Actor, ids []uint) error {
	if err := validateIDs(ids); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)

	// 每个 id 必须存在且未被软删除
	var existing []uint
	if err := db.Model(&models.Task{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return fmt.Errorf("reorder existing ids: %w", err)
	}
	existingSet := make(map[uint]struct{}, len(existing))
	for _, id := range existing {
		existingSet[id] = struct{}{}
	}
	errs := validationErrors{}
	for i, id := range ids {
		if _, ok := existingSet[id]; !ok {
			errs.add(fmt.Sprintf("ids.%d", i), "is invalid")
		}
	}
	if err := errs.err(); err != nil {
		return err
	}

	owned, err := s.ownedIDs(db, actor.UserID, ids)
	if err != nil {
		return err
	}
	if err := AuthorizeAll(ids, owned); err != nil {
		config.Logger.Warnw("排序包含无权限的任务", "uid", actor.UserID, "ids", ids)
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		before, err := positionMap(tx, actor.UserID, ids)
		if err != nil {
			return err
		}
		for i, id := range ids {
			if err := tx.Model(&models.Task{}).Where("id = ?", id).Update("position", i+1).Error; err != nil {
				return fmt.Errorf("reorder task %d: %w", id, err)
			}
		}
		after, err := positionMap(tx, actor.UserID, ids)
		if err != nil {
			return err
		}
		return s.audit.Record(tx, actor, TasksReordered(before, after, ids))
	})
	if err != nil {
		config.Logger.Errorw("排序失败", "error", err, "uid", actor.UserID)
	}
	return err
}

func positionMap(tx *gorm.DB, userID uint, ids []uint) (PositionMap, error) {
	var rows []models.Task
	if err := tx.Select("id", "position").Where("id IN ? AND creator_id = ?", ids, userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("position map: %w", err)
	}
	m := make(PositionMap, len(rows))
	for _, t := range rows {
		m[t.ID] = t.Position
	}
	return m, nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
