package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"agsa-server/pkg/response"
)

// LoggerMiddleware logs one line per request: status, latency, client
// IP, method and path, with the level chosen by status class.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		line := fmt.Sprintf("%d | %12s | %15s | %-7s %s",
			status,
			latency.Truncate(time.Microsecond),
			c.ClientIP(),
			c.Request.Method,
			path,
		)
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			line += " | " + errs
		}

		switch {
		case status >= 500:
			log.Printf("[ERROR] %s", line)
		case status >= 400:
			log.Printf("[WARN] %s", line)
		default:
			log.Printf("[INFO] %s", line)
		}
	}
}

// RecoveryMiddleware turns handler panics into a generic 500 instead of
// taking the process down.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    response.CodeInternalError,
					"message": "internal server error",
				})
			}
		}()

		c.Next()
	}
}
