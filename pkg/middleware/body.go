package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter caps the size of request bodies. Forms parsed after
// the limit was hit fail to bind and are rejected by the handlers.
func BodySizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Fast reject for honest clients
		if c.Request.ContentLength > maxBytes {
			c.String(http.StatusRequestEntityTooLarge, "Request body size exceeds limit")
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()

		var maxErr *http.MaxBytesError
		if last := c.Errors.Last(); last != nil && errors.As(last.Err, &maxErr) && !c.Writer.Written() {
			c.String(http.StatusRequestEntityTooLarge, "Request body size exceeds limit")
		}
	}
}
