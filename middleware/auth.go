package middleware

import (
	"net/http"

	"TaskPilotGo/utils"

	"github.com/gin-gonic/gin"
)

// UIDKey gin.Context 中保存当前用户 ID 的键
const UIDKey = "uid"

// AuthMiddleware 认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "未提供认证信息"})
			return
		}

		// 解析 JWT
		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的认证信息"})
			return
		}

		// 将 uid 存储在 gin.Context 中
		c.Set(UIDKey, claims.UserID)
		c.Next()
	}
}

// CurrentUserID 取出 AuthMiddleware 写入的用户 ID
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(UIDKey)
	if !exists {
		return 0, false
	}
	uid, ok := v.(uint)
	return uid, ok && uid != 0
}
