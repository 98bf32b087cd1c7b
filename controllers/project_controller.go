package controllers

import (
	"net/http"

	"TaskPilotGo/models"
	"TaskPilotGo/services"

	"github.com/gin-gonic/gin"
)

// ProjectController 项目管理
type ProjectController struct {
	projects *services.ProjectService
	flash    flasher
}

func NewProjectController(projects *services.ProjectService, store services.FlashStore) *ProjectController {
	return &ProjectController{projects: projects, flash: flasher{store: store}}
}

func (pc *ProjectController) Index(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var query models.ProjectQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, bindError(err))
		return
	}

	projects, err := pc.projects.List(c.Request.Context(), actor.UserID, query.Q)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]models.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		data = append(data, p.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"projects": data})
}

func (pc *ProjectController) Store(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req models.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pc.flash.fail(c, actor.UserID, bindError(err))
		return
	}

	project, err := pc.projects.Create(c.Request.Context(), actor, services.ProjectInput{Name: req.Name, Color: req.Color})
	if err != nil {
		pc.flash.fail(c, actor.UserID, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"project": project.ToResponse(),
		"flash":   pc.flash.success(c, actor.UserID, "项目已创建"),
	})
}

func (pc *ProjectController) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pc.flash.fail(c, actor.UserID, bindError(err))
		return
	}

	project, err := pc.projects.Update(c.Request.Context(), actor, id, services.ProjectInput{Name: req.Name, Color: req.Color})
	if err != nil {
		pc.flash.fail(c, actor.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": project.ToResponse(),
		"flash":   pc.flash.success(c, actor.UserID, "项目已更新"),
	})
}

// Destroy 删除项目，其任务变为未分配
func (pc *ProjectController) Destroy(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := pc.projects.Delete(c.Request.Context(), actor, id); err != nil {
		pc.flash.fail(c, actor.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flash": pc.flash.success(c, actor.UserID, "项目已删除"),
	})
}
