package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DevOnly 生产环境下隐藏开发用接口
func DevOnly(isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProduction {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error": "Not Found",
			})
			return
		}

		c.Next()
	}
}
