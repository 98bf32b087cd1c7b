package controllers

import (
	"net/http"

	"TaskPilotGo/models"
	"TaskPilotGo/services"

	"github.com/gin-gonic/gin"
)

// TaskController 任务列表、编辑与批量操作
type TaskController struct {
	tasks *services.TaskService
	flash flasher
}

func NewTaskController(tasks *services.TaskService, store services.FlashStore) *TaskController {
	return &TaskController{tasks: tasks, flash: flasher{store: store}}
}

// Index 任务列表
func (tc *TaskController) Index(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req models.ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	filter, err := req.ToFilter()
	if err != nil {
		respondError(c, bindError(err))
		return
	}

	page, err := tc.tasks.List(c.Request.Context(), actor.UserID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TaskListResponse{
		Tasks:   page,
		Filters: filter.Echo(),
		Flash:   tc.flash.pop(c, actor.UserID),
	})
}

// Store 创建任务
func (tc *TaskController) Store(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		tc.flash.fail(c, actor.UserID, bindError(err))
		return
	}
	input, err := req.ToInput()
	if err != nil {
		tc.flash.fail(c, actor.UserID, bindError(err))
		return
	}

	task, err := tc.tasks.Create(c.Request.Context(), actor, input)
	if err != nil {
		tc.flash.fail(c, actor.UserID, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"task":  task.ToEditView(),
		"flash": tc.flash.success(c, actor.UserID, "任务已创建"),
	})
}

// Edit 编辑画面的初始数据
func (tc *TaskController) Edit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := tc.tasks.Get(c.Request.Context(), actor.UserID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task.ToEditView()})
}

// Update 更新任务
func (tc *TaskController) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		tc.flash.fail(c, actor.UserID, bindError(err))
		return
	}
	input, err := req.ToInput()
	if err != nil {
		tc.flash.fail(c, actor.UserID, bindError(err))
		return
	}

	task, err := tc.tasks.Update(c.Request.Context(), actor, id, input)
	if err != nil {
		tc.flash.fail(c, actor.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":  task.ToEditView(),
		"flash": tc.flash.success(c, actor.UserID, "任务已更新"),
	})
}

// Destroy 删除任务（软删除）
func (tc *TaskController) Destroy(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := tc.tasks.Delete(c.Request.Context(), actor, id); err != nil {
		tc.flash.fail(c, actor.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flash": tc.flash.success(c, actor.UserID, "任务已删除"),
	})
}

// Bulk 批量完成或删除
func (tc *TaskController) Bulk(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req models.BulkTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		tc.flash.fail(c, actor.UserID, bindError(err))
		return
	}

	n, err := tc.tasks.Bulk(c.Request.Context(), actor, req.IDs, req.Action)
	if err != nil {
		tc.flash.fail(c, actor.UserID, err)
		return
	}

	message := "已完成所选任务"
	if req.Action == services.BulkDelete {
		message = "已删除所选任务"
	}
	c.JSON(http.StatusOK, gin.H{
		"affected": n,
		"flash":    tc.flash.success(c, actor.UserID, message),
	})
}

// Reorder 保存拖拽后的顺序
func (tc *TaskController) Reorder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req models.ReorderTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		tc.flash.fail(c, actor.UserID, bindError(err))
		return
	}

	if err := tc.tasks.Reorder(c.Request.Context(), actor, req.IDs); err != nil {
		tc.flash.fail(c, actor.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flash": tc.flash.success(c, actor.UserID, "顺序已保存"),
	})
}
