package controllers

import (
	"net/http"

	"TaskPilotGo/services"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	dashboard *services.DashboardService
	flash     flasher
}

func NewDashboardController(dashboard *services.DashboardService, store services.FlashStore) *DashboardController {
	return &DashboardController{dashboard: dashboard, flash: flasher{store: store}}
}

// Show 仪表盘
func (dc *DashboardController) Show(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	resp, err := dc.dashboard.Build(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp.Flash = dc.flash.pop(c, actor.UserID)

	c.JSON(http.StatusOK, resp)
}
