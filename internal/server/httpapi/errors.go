package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var statusMessages = map[int]string{
	http.StatusNotFound:     "Not found",
	http.StatusUnauthorized: "Unauthorized",
	http.StatusForbidden:    "Forbidden",
}

// abortWithStatus ends the request with the standard JSON body for status.
func abortWithStatus(c *gin.Context, status int) {
	msg, ok := statusMessages[status]
	if !ok {
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
