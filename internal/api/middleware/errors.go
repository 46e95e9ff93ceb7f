package middleware

import (
	"github.com/gin-gonic/gin"
)

// abortWithError stops the chain with a WebDriver error envelope.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"value": gin.H{
			"error":      code,
			"message":    message,
			"stacktrace": "",
		},
	})
}
