package controllers

import (
	"net/http"

	"TaskPilotGo/models"
	"TaskPilotGo/services"

	"github.com/gin-gonic/gin"
)

type ActivityController struct {
	activity *services.ActivityService
}

func NewActivityController(activity *services.ActivityService) *ActivityController {
	return &ActivityController{activity: activity}
}

// Index 本人的操作记录
func (ac *ActivityController) Index(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var query models.ActivityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, bindError(err))
		return
	}
	params, err := query.Params()
	if err != nil {
		respondError(c, bindError(err))
		return
	}

	result, err := ac.activity.List(c.Request.Context(), actor.UserID, services.ActivityFilter{
		EntityType: query.EntityType,
		EntityID:   params.EntityID,
		Action:     query.Action,
		Page:       params.Page,
		PerPage:    params.PerPage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
