package services

import (
	"context"
	"fmt"
	"math"

	"TaskPilotGo/models"

	"gorm.io/gorm"
)

// ActivityService 查看本人的审计日志
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// ActivityFilter 审计日志筛选条件
type ActivityFilter struct {
	EntityType string
	EntityID   *uint
	Action     string
	Page       int
	PerPage    int
}

// List 新的在前
func (s *ActivityService) List(ctx context.Context, userID uint, f ActivityFilter) (models.ActivityPage, error) {
	if f.Page == 0 {
		f.Page = 1
	}
	if f.PerPage == 0 {
		f.PerPage = models.DefaultPerPage
	}
	errs := validationErrors{}
	if f.Page < 1 {
		errs.add("page", "must be at least 1")
	}
	if f.PerPage < models.MinPerPage || f.PerPage > models.MaxPerPage {
		errs.add("per_page", fmt.Sprintf("must be between %d and %d", models.MinPerPage, models.MaxPerPage))
	}
	if err := errs.err(); err != nil {
		return models.ActivityPage{}, err
	}

	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("user_id = ?", userID)
		if f.EntityType != "" {
			q = q.Where("entity_type = ?", f.EntityType)
		}
		if f.EntityID != nil {
			q = q.Where("entity_id = ?", *f.EntityID)
		}
		if f.Action != "" {
			q = q.Where("action = ?", f.Action)
		}
		return q
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.ActivityLog{}).Scopes(scope).Count(&total).Error; err != nil {
		return models.ActivityPage{}, fmt.Errorf("count activity: %w", err)
	}

	var logs []models.ActivityLog
	err := s.db.WithContext(ctx).Scopes(scope).
		Order("created_at DESC").Order("id DESC").
		Offset((f.Page - 1) * f.PerPage).
		Limit(f.PerPage).
		Find(&logs).Error
	if err != nil {
		return models.ActivityPage{}, fmt.Errorf("list activity: %w", err)
	}

	data := make([]models.ActivityResponse, 0, len(logs))
	for _, l := range logs {
		data = append(data, l.ToResponse())
	}

	lastPage := int(math.Ceil(float64(total) / float64(f.PerPage)))
	if lastPage < 1 {
		lastPage = 1
	}
	return models.ActivityPage{
		Data:        data,
		CurrentPage: f.Page,
		LastPage:    lastPage,
		PerPage:     f.PerPage,
		Total:       total,
	}, nil
}
