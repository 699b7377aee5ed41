package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/JairPrada/radarcol-tfm/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Recovery turns a panic in a handler into a 500 error body
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)

				AbortWithError(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
			}
		}()

		c.Next()
	}
}
