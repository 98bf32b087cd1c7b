package services

import (
	"context"
	"testing"

	"TaskPilotGo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProjectService(db *gorm.DB) *ProjectService {
	return NewProjectService(db, NewAuthorizer())
}

func TestProjectCreateAndList(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	other := createUser(t, db, "bob")
	svc := newProjectService(db)
	ctx := context.Background()

	color := " #2563eb "
	work, err := svc.Create(ctx, actorOf(user), ProjectInput{Name: "  Work ", Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "Work", work.Name)
	require.NotNil(t, work.Color)
	assert.Equal(t, "#2563eb", *work.Color)

	_, err = svc.Create(ctx, actorOf(user), ProjectInput{Name: "Home"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, actorOf(other), ProjectInput{Name: "Work"})
	require.NoError(t, err, "names are unique per owner only")

	projects, err := svc.List(ctx, user.ID, "")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Home", projects[0].Name)
	assert.Equal(t, "Work", projects[1].Name)

	projects, err = svc.List(ctx, user.ID, "wor")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, work.ID, projects[0].ID)

	// 通配符按字面量匹配
	projects, err = svc.List(ctx, user.ID, "_")
	require.NoError(t, err)
	assert.Empty(t, projects)
	projects, err = svc.List(ctx, user.ID, "%")
	require.NoError(t, err)
	assert.Empty(t, projects)

	assert.Len(t, activityLogs(t, db, ActionProjectCreate), 3)
}

func TestProjectNameMustBeUnique(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	svc := newProjectService(db)
	ctx := context.Background()

	work, err := svc.Create(ctx, actorOf(user), ProjectInput{Name: "Work"})
	require.NoError(t, err)
	home, err := svc.Create(ctx, actorOf(user), ProjectInput{Name: "Home"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, actorOf(user), ProjectInput{Name: "Work"})
	assert.Equal(t, "has already been taken", validationFields(t, err)["name"])

	_, err = svc.Update(ctx, actorOf(user), home.ID, ProjectInput{Name: "Work"})
	assert.Equal(t, "has already been taken", validationFields(t, err)["name"])

	// 保持原名更新不算重复
	renamed, err := svc.Update(ctx, actorOf(user), work.ID, ProjectInput{Name: "Work"})
	require.NoError(t, err)
	assert.Nil(t, renamed.Color)
}

func TestProjectValidation(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	color := "this-color-is-way-too-long"

	_, err := newProjectService(db).Create(context.Background(), actorOf(user), ProjectInput{Name: "   ", Color: &color})
	fields := validationFields(t, err)
	assert.Equal(t, "is required", fields["name"])
	assert.Contains(t, fields, "color")
}

func TestProjectUpdateRecordsBeforeAndAfter(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	project := createProject(t, db, user.ID, "Work")

	color := "#000000"
	_, err := newProjectService(db).Update(context.Background(), actorOf(user), project.ID, ProjectInput{Name: "Office", Color: &color})
	require.NoError(t, err)

	var stored models.Project
	require.NoError(t, db.First(&stored, project.ID).Error)
	assert.Equal(t, "Office", stored.Name)

	logs := activityLogs(t, db, ActionProjectUpdate)
	require.Len(t, logs, 1)
	assert.JSONEq(t, `{"name":"Work","color":null}`, string(logs[0].Before))
	assert.JSONEq(t, `{"name":"Office","color":"#000000"}`, string(logs[0].After))
}

func TestProjectDeleteDetachesTasks(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	project := createProject(t, db, user.ID, "Work")
	active := createTask(t, db, models.Task{CreatorID: user.ID, ProjectID: &project.ID, Title: "active"})
	tombstoned := createTask(t, db, models.Task{CreatorID: user.ID, ProjectID: &project.ID, Title: "tombstoned"})
	require.NoError(t, db.Delete(&tombstoned).Error)

	require.NoError(t, newProjectService(db).Delete(context.Background(), actorOf(user), project.ID))

	var n int64
	require.NoError(t, db.Model(&models.Project{}).Where("id = ?", project.ID).Count(&n).Error)
	assert.Zero(t, n)
	assert.Nil(t, reloadTask(t, db, active.ID).ProjectID)
	assert.Nil(t, reloadTask(t, db, tombstoned.ID).ProjectID)

	logs := activityLogs(t, db, ActionProjectDelete)
	require.Len(t, logs, 1)
	assert.Equal(t, project.ID, *logs[0].EntityID)
	assert.JSONEq(t, `{"name":"Work","color":null}`, string(logs[0].Before))
}

func TestProjectMutationsRequireOwnership(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "alice")
	intruder := createUser(t, db, "mallory")
	project := createProject(t, db, owner.ID, "Work")
	svc := newProjectService(db)
	ctx := context.Background()

	_, err := svc.Update(ctx, actorOf(intruder), project.ID, ProjectInput{Name: "Mine now"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, actorOf(intruder), project.ID), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, actorOf(owner), 9999), ErrNotFound)

	var stored models.Project
	require.NoError(t, db.First(&stored, project.ID).Error)
	assert.Equal(t, "Work", stored.Name)
}
