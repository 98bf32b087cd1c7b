package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"TaskPilotGo/config"
	"TaskPilotGo/models"

	"gorm.io/gorm"
)

const (
	maxProjectNameLen  = 120
	maxProjectColorLen = 16
)

// ProjectService 项目的 CRUD，名称在同一所有者内唯一
type ProjectService struct {
	db    *gorm.DB
	auth  *Authorizer
	audit AuditRecorder
}

func NewProjectService(db *gorm.DB, auth *Authorizer) *ProjectService {
	return &ProjectService{db: db, auth: auth}
}

// ProjectInput 项目的可编辑字段
type ProjectInput struct {
	Name  string
	Color *string
}

// List 本人的项目，按名称排序；q 为部分一致搜索
func (s *ProjectService) List(ctx context.Context, userID uint, q string) ([]models.Project, error) {
	query := s.db.WithContext(ctx).Where("owner_id = ?", userID)
	if kw := strings.TrimSpace(q); kw != "" {
		query = query.Where("name LIKE ? ESCAPE '!'", containsPattern(kw))
	}

	var projects []models.Project
	if err := query.Order("name ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func normalizeProjectInput(in ProjectInput) (ProjectInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Color != nil {
		color := strings.TrimSpace(*in.Color)
		if color == "" {
			in.Color = nil
		} else {
			in.Color = &color
		}
	}

	errs := validationErrors{}
	if in.Name == "" {
		errs.add("name", "is required")
	} else if utf8.RuneCountInString(in.Name) > maxProjectNameLen {
		errs.add("name", fmt.Sprintf("may not be greater than %d characters", maxProjectNameLen))
	}
	if in.Color != nil && utf8.RuneCountInString(*in.Color) > maxProjectColorLen {
		errs.add("color", fmt.Sprintf("may not be greater than %d characters", maxProjectColorLen))
	}
	return in, errs.err()
}

// ensureUniqueName exceptID 为 0 时不排除任何项目
func (s *ProjectService) ensureUniqueName(db *gorm.DB, userID uint, name string, exceptID uint) error {
	query := db.Model(&models.Project{}).Where("owner_id = ? AND name = ?", userID, name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return fmt.Errorf("check project name: %w", err)
	}
	if n > 0 {
		return nameTaken()
	}
	return nil
}

// nameTaken 同名项目已存在（预先检查或唯一索引冲突）
func nameTaken() error {
	return invalid("name", "has already been taken")
}

// Create 新建项目
func (s *ProjectService) Create(ctx context.Context, actor Actor, in ProjectInput) (models.Project, error) {
	in, err := normalizeProjectInput(in)
	if err != nil {
		return models.Project{}, err
	}

	db := s.db.WithContext(ctx)
	if err := s.ensureUniqueName(db, actor.UserID, in.Name, 0); err != nil {
		return models.Project{}, err
	}

	project := models.Project{OwnerID: actor.UserID, Name: in.Name, Color: in.Color}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		return s.audit.Record(tx, actor, ProjectCreated(project))
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.Project{}, nameTaken()
	}
	if err != nil {
		config.Logger.Errorw("创建项目失败", "error", err, "uid", actor.UserID)
		return models.Project{}, err
	}
	return project, nil
}

func (s *ProjectService) find(db *gorm.DB, id uint) (models.Project, error) {
	var project models.Project
	if err := db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Project{}, fmt.Errorf("project %d: %w", id, ErrNotFound)
		}
		return models.Project{}, fmt.Errorf("find project %d: %w", id, err)
	}
	return project, nil
}

// Update 改名或改颜色
func (s *ProjectService) Update(ctx context.Context, actor Actor, id uint, in ProjectInput) (models.Project, error) {
	in, err := normalizeProjectInput(in)
	if err != nil {
		return models.Project{}, err
	}

	db := s.db.WithContext(ctx)
	project, err := s.find(db, id)
	if err != nil {
		return models.Project{}, err
	}
	if err := s.auth.Authorize(actor.UserID, AbilityUpdate, project); err != nil {
		return models.Project{}, err
	}
	if err := s.ensureUniqueName(db, actor.UserID, in.Name, project.ID); err != nil {
		return models.Project{}, err
	}

	before := snapshotProject(project)
	project.Name = in.Name
	project.Color = in.Color
	after := snapshotProject(project)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&project).Select("name", "color").Updates(&project).Error; err != nil {
			return fmt.Errorf("update project %d: %w", project.ID, err)
		}
		return s.audit.Record(tx, actor, ProjectUpdated(project, before, after))
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.Project{}, nameTaken()
	}
	if err != nil {
		config.Logger.Errorw("更新项目失败", "error", err, "projectID", id, "uid", actor.UserID)
		return models.Project{}, err
	}
	return project, nil
}

// Delete 删除项目，所属任务（含已软删除的）变为未分配
func (s *ProjectService) Delete(ctx context.Context, actor Actor, id uint) error {
	db := s.db.WithContext(ctx)
	project, err := s.find(db, id)
	if err != nil {
		return err
	}
	if err := s.auth.Authorize(actor.UserID, AbilityDelete, project); err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Model(&models.Task{}).
			Where("project_id = ?", project.ID).
			Update("project_id", nil).Error; err != nil {
			return fmt.Errorf("detach tasks from project %d: %w", project.ID, err)
		}
		if err := tx.Delete(&project).Error; err != nil {
			return fmt.Errorf("delete project %d: %w", project.ID, err)
		}
		return s.audit.Record(tx, actor, ProjectDeleted(project))
	})
	if err != nil {
		config.Logger.Errorw("删除项目失败", "error", err, "projectID", id, "uid", actor.UserID)
	}
	return err
}
