package controllers

import (
	"fmt"
	"net/http"

	"TaskPilotGo/config"
	"TaskPilotGo/models"
	"TaskPilotGo/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthController 开发环境的身份引导；正式认证由外部身份提供方负责
type AuthController struct {
	db *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// CreateTestUser 创建测试用户
func (ac *AuthController) CreateTestUser(c *gin.Context) {
	suffix := utils.GenerateID()[:8]
	testUser := models.User{
		Name:       "test_user_" + suffix,
		Email:      fmt.Sprintf("test_%s@example.com", suffix),
		IsTestUser: true,
	}

	if err := ac.db.WithContext(c.Request.Context()).Create(&testUser).Error; err != nil {
		config.Logger.Errorw("创建测试用户失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建测试用户失败"})
		return
	}

	// 生成 JWT
	token, err := utils.GenerateToken(testUser.ID)
	if err != nil {
		config.Logger.Errorw("令牌生成失败", "error", err, "userID", testUser.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "令牌生成失败"})
		return
	}

	config.Logger.Infow("创建测试用户",
		"userID", testUser.ID,
		"name", testUser.Name,
	)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    testUser.ID,
			"name":  testUser.Name,
			"email": testUser.Email,
		},
	})
}
