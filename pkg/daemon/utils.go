package daemon

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ginLogger logs each request through logger. Event streams stay open for
// as long as a client watches, so they are logged once when they end, with
// the stream duration instead of a request latency.
func ginLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Handlers may rewrite the URL.
		path := c.Request.URL.Path
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"statusCode": c.Writer.Status(),
			"remote":     c.Request.RemoteAddr,
		}

		if isEventStream(c) {
			fields["duration"] = time.Since(start).Round(time.Millisecond).String()
			logger.WithFields(fields).Debug("event stream closed")
			return
		}

		fields["latencyMs"] = time.Since(start).Milliseconds()
		fields["bytes"] = max(c.Writer.Size(), 0)
		entry := logger.WithFields(fields)

		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			entry.Error(errs.String())
			return
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Trace("request served")
		}
	}
}

func isEventStream(c *gin.Context) bool {
	return strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream")
}
