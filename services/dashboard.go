package services

import (
	"context"
	"fmt"
	"math"

	"TaskPilotGo/models"

	"gorm.io/gorm"
)

const (
	triageLimit        = 10
	byProjectLimit     = 8
	unassignedProject  = "unassigned"
	stressFloor        = 0
	stressCeiling      = 100
	stressPerGreenStep = 10
)

// StressCounts 计算压力分数所需的计数
type StressCounts struct {
	Overdue    int64
	WIP        int64
	UrgentOpen int64
	DoneToday  int64
}

// ComputeStress 线形加权后四舍五入并限制在 [0,100]，ttg = ceil(stress/10)
func ComputeStress(c StressCounts, w models.StressWeights) (stress int, ttg int) {
	raw := w.Overdue*float64(c.Overdue) +
		w.WIP*float64(c.WIP) +
		w.Urgent*float64(c.UrgentOpen) +
		w.DoneToday*float64(c.DoneToday)

	stress = int(math.Round(raw))
	if stress < stressFloor {
		stress = stressFloor
	}
	if stress > stressCeiling {
		stress = stressCeiling
	}

	ttg = int(math.Ceil(float64(stress) / stressPerGreenStep))
	if ttg < 0 {
		ttg = 0
	}
	return stress, ttg
}

// DashboardService 仪表盘的只读聚合
type DashboardService struct {
	db      *gorm.DB
	clock   Clock
	weights models.StressWeights
}

func NewDashboardService(db *gorm.DB, clock Clock, weights models.StressWeights) *DashboardService {
	return &DashboardService{db: db, clock: clock, weights: weights}
}

// Build 汇总指标、Triage 和按项目统计
func (s *DashboardService) Build(ctx context.Context, userID uint) (models.DashboardResponse, error) {
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return models.DashboardResponse{}, err
	}
	triage, err := s.Triage(ctx, userID)
	if err != nil {
		return models.DashboardResponse{}, err
	}
	byProject, err := s.ByProject(ctx, userID)
	if err != nil {
		return models.DashboardResponse{}, err
	}
	return models.DashboardResponse{Stats: stats, Triage: triage, ByProject: byProject}, nil
}

func (s *DashboardService) userTasks(ctx context.Context, userID uint) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Task{}).Where("creator_id = ?", userID)
}

// Stats 五个独立的计数加上 stress / ttg
func (s *DashboardService) Stats(ctx context.Context, userID uint) (models.DashboardStats, error) {
	var stats models.DashboardStats
	today := s.clock.Today()
	dayStart, dayEnd := s.clock.DayBounds()
	weekStart, weekEnd := s.clock.WeekBounds()

	counts := []struct {
		name  string
		dest  *int64
		scope func(*gorm.DB) *gorm.DB
	}{
		{"done_this_week", &stats.DoneThisWeek, func(q *gorm.DB) *gorm.DB {
			return q.Where("completed_at >= ? AND completed_at < ?", weekStart, weekEnd)
		}},
		{"overdue", &stats.Overdue, func(q *gorm.DB) *gorm.DB {
			return q.Where("completed_at IS NULL AND due_date IS NOT NULL AND due_date < ?", today)
		}},
		{"wip", &stats.WIP, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ?", models.StatusDoing)
		}},
		{"urgent_open", &stats.UrgentOpen, func(q *gorm.DB) *gorm.DB {
			return q.Where("priority = ? AND status <> ?", models.PriorityUrgent, models.StatusDone)
		}},
		{"done_today", &stats.DoneToday, func(q *gorm.DB) *gorm.DB {
			return q.Where("completed_at >= ? AND completed_at < ?", dayStart, dayEnd)
		}},
	}

	for _, c := range counts {
		if err := c.scope(s.userTasks(ctx, userID)).Count(c.dest).Error; err != nil {
			return models.DashboardStats{}, fmt.Errorf("count %s: %w", c.name, err)
		}
	}

	stats.Stress, stats.TTG = ComputeStress(StressCounts{
		Overdue:    stats.Overdue,
		WIP:        stats.WIP,
		UrgentOpen: stats.UrgentOpen,
		DoneToday:  stats.DoneToday,
	}, s.weights)
	return stats, nil
}

// Triage 未完成任务按 优先级 → 期限(NULL 最后) → 创建时间 排序取前 10
func (s *DashboardService) Triage(ctx context.Context, userID uint) ([]models.TriageItem, error) {
	var tasks []models.Task
	err := s.userTasks(ctx, userID).
		Select("id", "title", "priority", "status", "due_date", "created_at").
		Where("status IN ?", []models.Status{models.StatusTodo, models.StatusDoing}).
		Order(models.PriorityRankSQL("priority")).
		Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END").
		Order("due_date ASC").
		Order("created_at ASC").
		Limit(triageLimit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("triage: %w", err)
	}

	items := make([]models.TriageItem, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, models.TriageItem{
			ID:       t.ID,
			Title:    t.Title,
			Priority: t.Priority,
			Status:   t.Status,
			DueDate:  t.DueDateString(),
		})
	}
	return items, nil
}

// ByProject 按项目统计 WIP / 超期，没有项目的归为 unassigned
func (s *DashboardService) ByProject(ctx context.Context, userID uint) ([]models.ProjectBreakdown, error) {
	rows := make([]models.ProjectBreakdown, 0, byProjectLimit)
	err := s.db.WithContext(ctx).
		Table("tasks AS t").
		Select(
			"COALESCE(p.name, ?) AS project, "+
				"SUM(CASE WHEN t.status = ? THEN 1 ELSE 0 END) AS wip, "+
				"SUM(CASE WHEN t.status <> ? AND t.due_date IS NOT NULL AND t.due_date < ? THEN 1 ELSE 0 END) AS overdue",
			unassignedProject, models.StatusDoing, models.StatusDone, s.clock.Today(),
		).
		Joins("LEFT JOIN projects AS p ON p.id = t.project_id").
		Where("t.creator_id = ? AND t.deleted_at IS NULL", userID).
		Group("project").
		Order("overdue ASC").
		Order("wip ASC").
		Order("project ASC").
		Limit(byProjectLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("by project: %w", err)
	}
	return rows, nil
}
