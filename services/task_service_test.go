package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"TaskPilotGo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTaskService(db *gorm.DB) *TaskService {
	return NewTaskService(db, testClock(), NewAuthorizer())
}

func rowIDs(page models.TaskPage) []uint {
	ids := make([]uint, 0, len(page.Data))
	for _, row := range page.Data {
		ids = append(ids, row.ID)
	}
	return ids
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	return ve.Fields
}

type listFixture struct {
	user                          models.User
	report, review, milk, holiday models.Task
}

func seedList(t *testing.T, db *gorm.DB) listFixture {
	desc := "draft the report section"
	user := createUser(t, db, "alice")
	other := createUser(t, db, "bob")

	f := listFixture{user: user}
	f.report = createTask(t, db, models.Task{CreatorID: user.ID, Title: "Write report", Priority: models.PriorityHigh, DueDate: day("2025-03-10"), Position: 1})
	f.review = createTask(t, db, models.Task{CreatorID: user.ID, Title: "Review PR", Description: &desc, Status: models.StatusDoing, Priority: models.PriorityUrgent, DueDate: day("2025-03-20"), Position: 2})
	f.milk = createTask(t, db, models.Task{CreatorID: user.ID, Title: "Buy milk", Status: models.StatusDone, Priority: models.PriorityLow, DueDate: day("2025-03-01"), CompletedAt: at("2025-03-02T09:00:00Z"), Position: 3})
	f.holiday = createTask(t, db, models.Task{CreatorID: user.ID, Title: "Plan holiday", Position: 4})
	createTask(t, db, models.Task{CreatorID: other.ID, Title: "Other report", DueDate: day("2025-01-01")})
	return f
}

func TestTaskListFilters(t *testing.T) {
	db := newTestDB(t)
	f := seedList(t, db)
	svc := newTaskService(db)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter models.TaskFilter
		want   []uint
	}{
		{"default is manual order", models.TaskFilter{}, []uint{f.report.ID, f.review.ID, f.milk.ID, f.holiday.ID}},
		{"status done", models.TaskFilter{Status: models.StatusDone}, []uint{f.milk.ID}},
		{"keyword matches title or description", models.TaskFilter{Keyword: "report"}, []uint{f.report.ID, f.review.ID}},
		{"keyword underscore is literal", models.TaskFilter{Keyword: "r_p"}, []uint{}},
		{"keyword percent is literal", models.TaskFilter{Keyword: "re%rt"}, []uint{}},
		{"overdue only", models.TaskFilter{OverdueOnly: true}, []uint{f.report.ID}},
		{"overdue composes with status", models.TaskFilter{OverdueOnly: true, Status: models.StatusDoing}, []uint{}},
		{"overdue composes with priority", models.TaskFilter{OverdueOnly: true, Priority: models.PriorityHigh}, []uint{f.report.ID}},
		{"due range is inclusive", models.TaskFilter{DueFrom: day("2025-03-01"), DueTo: day("2025-03-10")}, []uint{f.report.ID, f.milk.ID}},
		{"priority ascending uses rank", models.TaskFilter{Sort: "priority", Dir: "asc"}, []uint{f.review.ID, f.report.ID, f.holiday.ID, f.milk.ID}},
		{"status descending uses ordinal", models.TaskFilter{Sort: "status", Dir: "desc"}, []uint{f.milk.ID, f.review.ID, f.holiday.ID, f.report.ID}},
		{"due date descending", models.TaskFilter{Sort: "due_date", Dir: "desc"}, []uint{f.review.ID, f.report.ID, f.milk.ID, f.holiday.ID}},
		{"due date ascending keeps undated last", models.TaskFilter{Sort: "due_date", Dir: "asc"}, []uint{f.milk.ID, f.report.ID, f.review.ID, f.holiday.ID}},
		{"position ignores direction", models.TaskFilter{Sort: "position", Dir: "desc"}, []uint{f.report.ID, f.review.ID, f.milk.ID, f.holiday.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(ctx, f.user.ID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rowIDs(page))
			assert.Equal(t, int64(len(tt.want)), page.Total)
		})
	}
}

func TestTaskListKeywordMatchesWildcardsLiterally(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	abc := createTask(t, db, models.Task{CreatorID: user.ID, Title: "abc", Position: 1})
	discount := createTask(t, db, models.Task{CreatorID: user.ID, Title: "discount 100 off", Position: 2})
	snake := createTask(t, db, models.Task{CreatorID: user.ID, Title: "rename a_c column", Position: 3})
	percent := createTask(t, db, models.Task{CreatorID: user.ID, Title: "grow 100% faster", Position: 4})
	bang := createTask(t, db, models.Task{CreatorID: user.ID, Title: "wow! done", Position: 5})
	svc := newTaskService(db)

	tests := []struct {
		keyword string
		want    []uint
	}{
		{"a_c", []uint{snake.ID}},
		{"100%", []uint{percent.ID}},
		{"!", []uint{bang.ID}},
		{"c", []uint{abc.ID, discount.ID, snake.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			page, err := svc.List(context.Background(), user.ID, models.TaskFilter{Keyword: tt.keyword})
			require.NoError(t, err)
			assert.Equal(t, tt.want, rowIDs(page))
		})
	}
}

func TestTaskListRowShape(t *testing.T) {
	db := newTestDB(t)
	f := seedList(t, db)

	page, err := newTaskService(db).List(context.Background(), f.user.ID, models.TaskFilter{Status: models.StatusTodo})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)

	first := page.Data[0]
	assert.Equal(t, "Write report", first.Title)
	require.NotNil(t, first.DueDate)
	assert.Equal(t, "2025-03-10", *first.DueDate)
	assert.Nil(t, page.Data[1].DueDate)
}

func TestTaskListPagination(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	for i := 1; i <= 12; i++ {
		createTask(t, db, models.Task{CreatorID: user.ID, Title: fmt.Sprintf("task %02d", i), Position: i})
	}

	page, err := newTaskService(db).List(context.Background(), user.ID, models.TaskFilter{PerPage: 5, Page: 3})
	require.NoError(t, err)

	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 3, page.LastPage)
	assert.Equal(t, 3, page.CurrentPage)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "task 11", page.Data[0].Title)
}

func TestTaskListTieBreakIsIDDescending(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	first := createTask(t, db, models.Task{CreatorID: user.ID, Title: "first", Position: 1})
	second := createTask(t, db, models.Task{CreatorID: user.ID, Title: "second", Position: 1})

	page, err := newTaskService(db).List(context.Background(), user.ID, models.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID, first.ID}, rowIDs(page))
}

func TestTaskListRejectsInvalidFilter(t *testing.T) {
	db := newTestDB(t)
	svc := newTaskService(db)

	_, err := svc.List(context.Background(), 1, models.TaskFilter{PerPage: 3, Sort: "title", Status: "blocked"})
	fields := validationFields(t, err)
	assert.Contains(t, fields, "per_page")
	assert.Contains(t, fields, "sort")
	assert.Contains(t, fields, "status")
}

func TestTaskCreateAssignsNextPosition(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	svc := newTaskService(db)
	ctx := context.Background()

	first, err := svc.Create(ctx, actorOf(user), models.TaskInput{Title: "first"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, actorOf(user), models.TaskInput{Title: "second", Labels: []string{" Home ", "home", ""}})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, models.StatusTodo, first.Status)
	assert.Equal(t, models.PriorityNormal, first.Priority)
	assert.Equal(t, []string{"Home"}, []string(second.Labels))

	// 软删除的任务仍然占用 position
	require.NoError(t, svc.Delete(ctx, actorOf(user), second.ID))
	third, err := svc.Create(ctx, actorOf(user), models.TaskInput{Title: "third"})
	require.NoError(t, err)
	assert.Equal(t, 3, third.Position)

	logs := activityLogs(t, db, ActionTaskCreate)
	require.Len(t, logs, 3)
	assert.Equal(t, user.ID, *logs[0].UserID)
	assert.Equal(t, "task", *logs[0].EntityType)
	assert.Equal(t, first.ID, *logs[0].EntityID)
	assert.Nil(t, logs[0].Before)
	assert.JSONEq(t, fmt.Sprintf(`{"title":"first","status":"todo","priority":"normal","due_date":null,"position":1,"creator_id":%d}`, user.ID), string(logs[0].After))
}

func TestTaskCreateDoneSetsCompletedAt(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")

	task, err := newTaskService(db).Create(context.Background(), actorOf(user), models.TaskInput{Title: "already done", Status: models.StatusDone})
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, testNow.Equal(*task.CompletedAt))
}

func TestTaskCreateValidatesReferences(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	other := createUser(t, db, "bob")
	foreignProject := createProject(t, db, other.ID, "theirs")
	foreignTask := createTask(t, db, models.Task{CreatorID: other.ID, Title: "theirs"})
	missingUser := uint(9999)

	_, err := newTaskService(db).Create(context.Background(), actorOf(user), models.TaskInput{
		Title:      "mine",
		ProjectID:  &foreignProject.ID,
		ParentID:   &foreignTask.ID,
		AssigneeID: &missingUser,
	})
	fields := validationFields(t, err)
	assert.Equal(t, "is invalid", fields["project_id"])
	assert.Equal(t, "is invalid", fields["parent_id"])
	assert.Equal(t, "is invalid", fields["assignee_id"])

	var n int64
	require.NoError(t, db.Model(&models.Task{}).Where("creator_id = ?", user.ID).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, activityLogs(t, db, ActionTaskCreate))
}

func TestTaskArchivedProjectAcceptsNoNewTasks(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	project := createProject(t, db, user.ID, "old")
	other := createProject(t, db, user.ID, "other")
	svc := newTaskService(db)
	ctx := context.Background()

	existing, err := svc.Create(ctx, actorOf(user), models.TaskInput{Title: "kept", ProjectID: &project.ID})
	require.NoError(t, err)
	moving, err := svc.Create(ctx, actorOf(user), models.TaskInput{Title: "moving", ProjectID: &other.ID})
	require.NoError(t, err)
	require.NoError(t, db.Model(&project).Update("archived_at", testNow).Error)

	_, err = svc.Create(ctx, actorOf(user), models.TaskInput{Title: "new", ProjectID: &project.ID})
	assert.Equal(t, "is invalid", validationFields(t, err)["project_id"])

	_, err = svc.Update(ctx, actorOf(user), moving.ID, models.TaskInput{Title: "moving", Status: models.StatusTodo, Priority: models.PriorityNormal, ProjectID: &project.ID})
	assert.Equal(t, "is invalid", validationFields(t, err)["project_id"])

	// 原本就在该项目中的任务可以继续编辑
	updated, err := svc.Update(ctx, actorOf(user), existing.ID, models.TaskInput{Title: "kept edited", Status: models.StatusDoing, Priority: models.PriorityNormal, ProjectID: &project.ID})
	require.NoError(t, err)
	assert.Equal(t, project.ID, *updated.ProjectID)
}

func TestTaskCreateValidatesInput(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")

	_, err := newTaskService(db).Create(context.Background(), actorOf(user), models.TaskInput{Title: "", Priority: "critical"})
	fields := validationFields(t, err)
	assert.Equal(t, "is required", fields["title"])
	assert.Equal(t, "is invalid", fields["priority"])
}

func TestTaskUpdateRecomputesCompletedAt(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	task := createTask(t, db, models.Task{CreatorID: user.ID, Title: "ship", Status: models.StatusDoing, DueDate: day("2025-03-20")})
	svc := newTaskService(db)
	ctx := context.Background()

	updated, err := svc.Update(ctx, actorOf(user), task.ID, models.TaskInput{
		Title: "ship", Status: models.StatusDone, Priority: models.PriorityNormal, DueDate: day("2025-03-20"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)

	stored := reloadTask(t, db, task.ID)
	require.NotNil(t, stored.CompletedAt)
	assert.WithinDuration(t, testNow, *stored.CompletedAt, time.Second)

	_, err = svc.Update(ctx, actorOf(user), task.ID, models.TaskInput{
		Title: "ship", Status: models.StatusTodo, Priority: models.PriorityNormal,
	})
	require.NoError(t, err)

	stored = reloadTask(t, db, task.ID)
	assert.Nil(t, stored.CompletedAt)
	assert.Equal(t, models.StatusTodo, stored.Status)
	// 未提供的 due_date 被清空
	assert.Nil(t, stored.DueDate)

	logs := activityLogs(t, db, ActionTaskUpdate)
	require.Len(t, logs, 2)
	var before, after TaskSnapshot
	require.NoError(t, json.Unmarshal(logs[1].Before, &before))
	require.NoError(t, json.Unmarshal(logs[1].After, &after))
	assert.Equal(t, models.StatusDone, before.Status)
	assert.NotNil(t, before.CompletedAt)
	assert.Equal(t, models.StatusTodo, after.Status)
	assert.Nil(t, after.CompletedAt)
}

func TestTaskUpdateRequiresEnums(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	task := createTask(t, db, models.Task{CreatorID: user.ID, Title: "ship"})

	_, err := newTaskService(db).Update(context.Background(), actorOf(user), task.ID, models.TaskInput{Title: "ship"})
	fields := validationFields(t, err)
	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "priority")
}

func TestTaskUpdateRejectsSelfParent(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	task := createTask(t, db, models.Task{CreatorID: user.ID, Title: "ship"})

	_, err := newTaskService(db).Update(context.Background(), actorOf(user), task.ID, models.TaskInput{
		Title: "ship", Status: models.StatusTodo, Priority: models.PriorityLow, ParentID: &task.ID,
	})
	assert.Equal(t, "cannot reference itself", validationFields(t, err)["parent_id"])
}

func TestTaskUpdateForbiddenForNonOwner(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "alice")
	intruder := createUser(t, db, "mallory")
	task := createTask(t, db, models.Task{CreatorID: owner.ID, Title: "private"})

	_, err := newTaskService(db).Update(context.Background(), actorOf(intruder), task.ID, models.TaskInput{
		Title: "hacked", Status: models.StatusDone, Priority: models.PriorityUrgent,
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "private", reloadTask(t, db, task.ID).Title)
	assert.Empty(t, activityLogs(t, db, ActionTaskUpdate))
}

func TestTaskDeleteIsSoft(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	task := createTask(t, db, models.Task{CreatorID: user.ID, Title: "old", Position: 7})
	svc := newTaskService(db)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, actorOf(user), task.ID))

	_, err := svc.Get(ctx, user.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, reloadTask(t, db, task.ID).DeletedAt.Valid)

	err = svc.Delete(ctx, actorOf(user), task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	logs := activityLogs(t, db, ActionTaskDelete)
	require.Len(t, logs, 1)
	var before TaskSnapshot
	require.NoError(t, json.Unmarshal(logs[0].Before, &before))
	assert.Equal(t, "old", before.Title)
	assert.Equal(t, 7, before.Position)
	assert.Nil(t, logs[0].After)
}

func TestTaskGetForbiddenForNonOwner(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "alice")
	intruder := createUser(t, db, "mallory")
	task := createTask(t, db, models.Task{CreatorID: owner.ID, Title: "private"})

	_, err := newTaskService(db).Get(context.Background(), intruder.ID, task.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTaskBulkComplete(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	a := createTask(t, db, models.Task{CreatorID: user.ID, Title: "a"})
	b := createTask(t, db, models.Task{CreatorID: user.ID, Title: "b", Status: models.StatusDoing})
	untouched := createTask(t, db, models.Task{CreatorID: user.ID, Title: "c"})

	n, err := newTaskService(db).Bulk(context.Background(), actorOf(user), []uint{a.ID, b.ID}, BulkComplete)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []uint{a.ID, b.ID} {
		stored := reloadTask(t, db, id)
		assert.Equal(t, models.StatusDone, stored.Status)
		require.NotNil(t, stored.CompletedAt)
	}
	assert.Equal(t, models.StatusTodo, reloadTask(t, db, untouched.ID).Status)

	logs := activityLogs(t, db, ActionTaskBulkComplete)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].EntityID)
	assert.JSONEq(t, fmt.Sprintf(`{"ids":[%d,%d],"count":2}`, a.ID, b.ID), string(logs[0].Meta))
	assert.JSONEq(t, fmt.Sprintf(`{"%d":{"status":"todo","completed_at":null},"%d":{"status":"doing","completed_at":null}}`, a.ID, b.ID), string(logs[0].Before))
}

func TestTaskBulkCompleteKeepsExistingCompletion(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	finished := createTask(t, db, models.Task{CreatorID: user.ID, Title: "old", Status: models.StatusDone, CompletedAt: at("2025-02-01T08:00:00Z")})
	open := createTask(t, db, models.Task{CreatorID: user.ID, Title: "open"})

	n, err := newTaskService(db).Bulk(context.Background(), actorOf(user), []uint{finished.ID, open.ID}, BulkComplete)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored := reloadTask(t, db, finished.ID)
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, at("2025-02-01T08:00:00Z").Equal(*stored.CompletedAt))

	stored = reloadTask(t, db, open.ID)
	assert.Equal(t, models.StatusDone, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, testNow.Equal(*stored.CompletedAt))

	stats, err := NewDashboardService(db, testClock(), models.DefaultStressWeights()).Stats(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.DoneToday)
}

func TestTaskBulkDeleteIsSoft(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	a := createTask(t, db, models.Task{CreatorID: user.ID, Title: "a"})
	b := createTask(t, db, models.Task{CreatorID: user.ID, Title: "b"})

	n, err := newTaskService(db).Bulk(context.Background(), actorOf(user), []uint{a.ID, b.ID}, BulkDelete)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var active int64
	require.NoError(t, db.Model(&models.Task{}).Count(&active).Error)
	assert.Zero(t, active)
	assert.True(t, reloadTask(t, db, a.ID).DeletedAt.Valid)
	assert.Len(t, activityLogs(t, db, ActionTaskBulkDelete), 1)
}

func TestTaskBulkIsAllOrNothing(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	other := createUser(t, db, "bob")
	mine := createTask(t, db, models.Task{CreatorID: user.ID, Title: "mine"})
	theirs := createTask(t, db, models.Task{CreatorID: other.ID, Title: "theirs"})
	svc := newTaskService(db)
	ctx := context.Background()

	for _, action := range []string{BulkComplete, BulkDelete} {
		_, err := svc.Bulk(ctx, actorOf(user), []uint{mine.ID, theirs.ID}, action)
		assert.ErrorIs(t, err, ErrForbidden)
	}
	_, err := svc.Bulk(ctx, actorOf(user), []uint{mine.ID, 424242}, BulkComplete)
	assert.ErrorIs(t, err, ErrForbidden)

	stored := reloadTask(t, db, mine.ID)
	assert.Equal(t, models.StatusTodo, stored.Status)
	assert.False(t, stored.DeletedAt.Valid)
	assert.Empty(t, activityLogs(t, db, ActionTaskBulkComplete))
	assert.Empty(t, activityLogs(t, db, ActionTaskBulkDelete))
}

func TestTaskBulkValidation(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	task := createTask(t, db, models.Task{CreatorID: user.ID, Title: "a"})
	svc := newTaskService(db)
	ctx := context.Background()

	_, err := svc.Bulk(ctx, actorOf(user), []uint{task.ID}, "archive")
	assert.Contains(t, validationFields(t, err), "action")

	_, err = svc.Bulk(ctx, actorOf(user), nil, BulkComplete)
	assert.Contains(t, validationFields(t, err), "ids")

	_, err = svc.Bulk(ctx, actorOf(user), []uint{task.ID, task.ID}, BulkComplete)
	assert.Equal(t, "has a duplicate value", validationFields(t, err)["ids.1"])
}

func positions(t *testing.T, db *gorm.DB, ids ...uint) []int {
	t.Helper()
	result := make([]int, 0, len(ids))
	for _, id := range ids {
		result = append(result, reloadTask(t, db, id).Position)
	}
	return result
}

func TestTaskReorder(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	a := createTask(t, db, models.Task{CreatorID: user.ID, Title: "a", Position: 1})
	b := createTask(t, db, models.Task{CreatorID: user.ID, Title: "b", Position: 2})
	c := createTask(t, db, models.Task{CreatorID: user.ID, Title: "c", Position: 3})

	require.NoError(t, newTaskService(db).Reorder(context.Background(), actorOf(user), []uint{c.ID, a.ID, b.ID}))
	assert.Equal(t, []int{2, 3, 1}, positions(t, db, a.ID, b.ID, c.ID))

	logs := activityLogs(t, db, ActionTaskReorder)
	require.Len(t, logs, 1)
	assert.JSONEq(t, fmt.Sprintf(`{"%d":1,"%d":2,"%d":3}`, a.ID, b.ID, c.ID), string(logs[0].Before))
	assert.JSONEq(t, fmt.Sprintf(`{"%d":2,"%d":3,"%d":1}`, a.ID, b.ID, c.ID), string(logs[0].After))
	assert.JSONEq(t, fmt.Sprintf(`{"ids":[%d,%d,%d]}`, c.ID, a.ID, b.ID), string(logs[0].Meta))
}

func TestTaskReorderNoopIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	a := createTask(t, db, models.Task{CreatorID: user.ID, Title: "a", Position: 1})
	b := createTask(t, db, models.Task{CreatorID: user.ID, Title: "b", Position: 2})

	require.NoError(t, newTaskService(db).Reorder(context.Background(), actorOf(user), []uint{a.ID, b.ID}))
	assert.Equal(t, []int{1, 2}, positions(t, db, a.ID, b.ID))

	logs := activityLogs(t, db, ActionTaskReorder)
	require.Len(t, logs, 1)
	assert.JSONEq(t, string(logs[0].Before), string(logs[0].After))
}

func TestTaskReorderRejections(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "alice")
	other := createUser(t, db, "bob")
	a := createTask(t, db, models.Task{CreatorID: user.ID, Title: "a", Position: 1})
	b := createTask(t, db, models.Task{CreatorID: user.ID, Title: "b", Position: 2})
	gone := createTask(t, db, models.Task{CreatorID: user.ID, Title: "gone", Position: 3})
	require.NoError(t, db.Delete(&gone).Error)
	theirs := createTask(t, db, models.Task{CreatorID: other.ID, Title: "theirs", Position: 1})
	svc := newTaskService(db)
	ctx := context.Background()

	err := svc.Reorder(ctx, actorOf(user), []uint{b.ID, theirs.ID, a.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.Reorder(ctx, actorOf(user), []uint{b.ID, a.ID, b.ID})
	assert.Equal(t, "has a duplicate value", validationFields(t, err)["ids.2"])

	err = svc.Reorder(ctx, actorOf(user), []uint{gone.ID, b.ID, a.ID})
	assert.Equal(t, "is invalid", validationFields(t, err)["ids.0"])

	assert.Equal(t, []int{1, 2, 3}, positions(t, db, a.ID, b.ID, gone.ID))
	assert.Empty(t, activityLogs(t, db, ActionTaskReorder))
}
