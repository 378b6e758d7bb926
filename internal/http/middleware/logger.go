package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger prints one line per request. Errors attached by handlers via
// c.Error are appended.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		line := "[HTTP] request_id=%s method=%s path=%s status=%d latency_ms=%.3f ip=%s user_id=%d"
		args := []any{
			GetRequestID(c),
			c.Request.Method,
			path,
			c.Writer.Status(),
			float64(time.Since(start).Microseconds()) / 1000.0,
			c.ClientIP(),
			UserID(c),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			line += " err=%q"
			args = append(args, errs.String())
		}
		log.Printf(line, args...)
	}
}
