package daemon

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func TestGinLogger(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)

	tests := []struct {
		name    string
		handler gin.HandlerFunc
		want    []string
		notWant []string
	}{
		{
			name:    "ok request at trace",
			handler: func(c *gin.Context) { c.String(http.StatusOK, "3700") },
			want:    []string{"level=trace", "request served", "statusCode=200", "bytes=4"},
		},
		{
			name: "unavailable is an error",
			handler: func(c *gin.Context) {
				c.String(http.StatusServiceUnavailable, "not started")
			},
			want: []string{"level=error", "request failed", "statusCode=503"},
		},
		{
			name:    "not found is a warning",
			handler: func(c *gin.Context) { c.Status(http.StatusNotFound) },
			want:    []string{"level=warning", "request rejected"},
		},
		{
			name: "event stream logged with duration",
			handler: func(c *gin.Context) {
				c.Header("Content-Type", "text/event-stream")
				c.Status(http.StatusOK)
			},
			want:    []string{"level=debug", "event stream closed", "duration="},
			notWant: []string{"latencyMs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logrus.New()
			logger.SetOutput(&buf)
			logger.SetLevel(logrus.TraceLevel)
			logger.SetFormatter(&logrus.TextFormatter{DisableColors: true})

			router := gin.New()
			router.Use(ginLogger(logger))
			router.GET("/x", tt.handler)

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("log %q missing %q", out, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("log %q contains %q", out, w)
				}
			}
		})
	}
}
