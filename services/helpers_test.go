package services

import (
	"testing"
	"time"

	"TaskPilotGo/config"
	"TaskPilotGo/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 2025-03-12 是周三
var testNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func testClock() Clock {
	return FixedClock(testNow, time.UTC)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), config.GormConfig("silent"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.MigrateDB(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createProject(t *testing.T, db *gorm.DB, ownerID uint, name string) models.Project {
	t.Helper()
	project := models.Project{OwnerID: ownerID, Name: name}
	require.NoError(t, db.Create(&project).Error)
	return project
}

func createTask(t *testing.T, db *gorm.DB, task models.Task) models.Task {
	t.Helper()
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityNormal
	}
	require.NoError(t, db.Create(&task).Error)
	return task
}

func day(value string) *time.Time {
	d, err := models.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

func at(value string) *time.Time {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return &ts
}

func actorOf(user models.User) Actor {
	return Actor{UserID: user.ID, IP: "127.0.0.1", UserAgent: "go-test"}
}

func activityLogs(t *testing.T, db *gorm.DB, action string) []models.ActivityLog {
	t.Helper()
	var logs []models.ActivityLog
	require.NoError(t, db.Where("action = ?", action).Order("id ASC").Find(&logs).Error)
	return logs
}

func reloadTask(t *testing.T, db *gorm.DB, id uint) models.Task {
	t.Helper()
	var task models.Task
	require.NoError(t, db.Unscoped().First(&task, id).Error)
	return task
}
