package middleware

import (
	"time"

	"github.com/modelhub/modelhub/logger"
	"github.com/modelhub/modelhub/web/service"

	"github.com/gin-gonic/gin"
)

// RequestLogger counts every request and logs it at debug level.
func RequestLogger(analytics *service.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		analytics.CountRequest()
		logger.Debugf("%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
