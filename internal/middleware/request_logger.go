package middleware

import (
	"time"

	"github.com/agrisetu/marketplace-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs every request with timing and client device fields
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		ua := user_agent.New(c.Request.UserAgent())
		browser, _ := ua.Browser()

		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       utils.GetRealIP(c),
			"os":       ua.OS(),
			"browser":  browser,
			"mobile":   ua.Mobile(),
		}).Info("Request handled")
	}
}
