package middleware

import "github.com/gin-gonic/gin"

// Error codes carried in the "code" field of every error body
const (
	CodeBadRequest  = "bad_request"
	CodeNotFound    = "not_found"
	CodeUpstream    = "upstream_error"
	CodeUnavailable = "upstream_unavailable"
	CodeRateLimited = "rate_limited"
	CodeInternal    = "internal_error"
)

// AbortWithError writes the shared error body and stops the chain
func AbortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      message,
		"code":       code,
		"request_id": GetRequestID(c),
	})
}
