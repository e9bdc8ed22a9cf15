package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkzip/linkzip/go-server/internal/metrics"
)

// MetricsMiddleware collects HTTP metrics for each request
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()

		requestSize := computeApproximateRequestSize(c.Request)

		// Wrap the writer to capture response size
		blw := &bodyLogWriter{ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		duration := time.Since(start)

		// Use the route pattern instead of the raw path so one short
		// code per request does not explode label cardinality
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		status := strconv.Itoa(c.Writer.Status())

		metrics.RecordHTTPMetrics(
			c.Request.Method,
			path,
			status,
			duration,
			requestSize,
			blw.size,
		)
	}
}

type bodyLogWriter struct {
	gin.ResponseWriter
	size int64
}

func (w *bodyLogWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// computeApproximateRequestSize calculates approximate request size
func computeApproximateRequestSize(r *http.Request) int64 {
	s := int64(0)

	if r.ContentLength > 0 {
		s += r.ContentLength
	}

	s += int64(len(r.Method))
	s += int64(len(r.URL.String()))
	s += int64(len(r.Header) * 50) // Rough estimate: 50 bytes per header

	return s
}
