package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestRecorder receives one observation per served request.
type RequestRecorder interface {
	RecordHTTPRequest(method, path string, status int, d time.Duration)
}

// Metrics records request counts and latency labelled by route template.
// Unmatched routes are labelled "unmatched" to bound cardinality.
func Metrics(recorder RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		recorder.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

//Personal.AI order the ending
