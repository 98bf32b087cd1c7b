package middleware

import (
	"time"

	"TaskPilotGo/config"
	"TaskPilotGo/utils"

	"github.com/gin-gonic/gin"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger 为每个请求分配 requestID 并输出访问日志
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = utils.GenerateID()
		}
		c.Set("requestID", requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		fields := []interface{}{
			"requestID", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"clientIP", c.ClientIP(),
			"latency", time.Since(start).String(),
			"userAgent", c.Request.UserAgent(),
		}
		if uid, ok := CurrentUserID(c); ok {
			fields = append(fields, "uid", uid)
		}
		if len(c.Errors) > 0 {
			config.Logger.Warnw("request", append(fields, "errors", c.Errors.String())...)
			return
		}
		config.Logger.Infow("request", fields...)
	}
}
