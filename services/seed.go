package services

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"TaskPilotGo/config"
	"TaskPilotGo/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures/default.yaml
var defaultFixture []byte

// Fixture 种子数据文件
type Fixture struct {
	Projects []struct {
		Name  string `yaml:"name"`
		Color string `yaml:"color"`
	} `yaml:"projects"`
	Attach []struct {
		Match   string `yaml:"match"`
		Project string `yaml:"project"`
	} `yaml:"attach"`
	DefaultProject string `yaml:"default_project"`
}

// ParseFixture 解析 YAML
func ParseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	for i, p := range f.Projects {
		if p.Name == "" {
			return Fixture{}, fmt.Errorf("parse fixture: projects[%d].name is required", i)
		}
	}
	return f, nil
}

// LoadFixture path 为空时使用内置的默认数据
func LoadFixture(path string) (Fixture, error) {
	if path == "" {
		return ParseFixture(defaultFixture)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, err
	}
	return ParseFixture(data)
}

// SeedResult 种子执行结果
type SeedResult struct {
	Projects int
	Attached int64
}

// Seeder 为某个用户准备项目并把未分配的任务归类
type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run 按 (owner, name) upsert 项目；标题包含 match 的未分配任务归入对应项目，剩余的归入 default_project
func (s *Seeder) Run(ctx context.Context, ownerID uint, f Fixture) (SeedResult, error) {
	var result SeedResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]uint, len(f.Projects))
		for _, p := range f.Projects {
			project := models.Project{OwnerID: ownerID, Name: p.Name}
			if err := tx.Where(models.Project{OwnerID: ownerID, Name: p.Name}).FirstOrCreate(&project).Error; err != nil {
				return fmt.Errorf("upsert project %q: %w", p.Name, err)
			}
			var color *string
			if p.Color != "" {
				c := p.Color
				color = &c
			}
			if err := tx.Model(&project).Update("color", color).Error; err != nil {
				return fmt.Errorf("update project %q: %w", p.Name, err)
			}
			ids[p.Name] = project.ID
			result.Projects++
		}

		unassigned := func() *gorm.DB {
			return tx.Model(&models.Task{}).Where("creator_id = ? AND project_id IS NULL", ownerID)
		}
		for _, rule := range f.Attach {
			projectID, ok := ids[rule.Project]
			if !ok {
				return fmt.Errorf("attach rule %q: unknown project %q", rule.Match, rule.Project)
			}
			res := unassigned().Where("title LIKE ?", "%"+rule.Match+"%").Update("project_id", projectID)
			if res.Error != nil {
				return fmt.Errorf("attach %q: %w", rule.Match, res.Error)
			}
			result.Attached += res.RowsAffected
		}

		if f.DefaultProject != "" {
			projectID, ok := ids[f.DefaultProject]
			if !ok {
				return fmt.Errorf("unknown default project %q", f.DefaultProject)
			}
			res := unassigned().Update("project_id", projectID)
			if res.Error != nil {
				return fmt.Errorf("attach remaining: %w", res.Error)
			}
			result.Attached += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	config.Logger.Infow("种子数据已写入", "ownerID", ownerID, "projects", result.Projects, "attached", result.Attached)
	return result, nil
}
