package middleware

import (
	"time"

	"github.com/Baaaki/freelance-market/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request with zap
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if actor, ok := CurrentActor(c); ok {
			fields = append(fields, zap.String("user_id", actor.UserID.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Log.Error("Request", fields...)
		case status >= 400:
			logger.Log.Warn("Request", fields...)
		default:
			logger.Log.Info("Request", fields...)
		}
	}
}
