package controllers

import (
	"errors"
	"net/http"

	"TaskPilotGo/config"
	"TaskPilotGo/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	db *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// GetUser 当前登录用户
func (uc *UserController) GetUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var user models.User
	if err := uc.db.WithContext(c.Request.Context()).First(&user, actor.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "用户未找到"})
			return
		}
		config.Logger.Errorw("数据库查询失败", "error", err, "userID", actor.UserID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"name":  user.GetDisplayName(),
			"email": user.Email,
		},
	})
}
