package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"mindscale/src/infra/logger"
)

// maxLoggedBody caps how much of a request or response body ends up in a log line.
const maxLoggedBody = 512

// Logging emits one line per request. Bodies are included at debug level,
// truncated.
func Logging(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		verbose := log.Enabled(c.Request.Context(), slog.LevelDebug)

		// Capture request body
		var reqBodyBytes []byte
		if verbose && c.Request.Body != nil {
			reqBodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(reqBodyBytes))
		}

		// Capture response body
		rec := &responseCapture{ResponseWriter: c.Writer, enabled: verbose}
		c.Writer = rec

		// Process request
		c.Next()

		api := path
		if query != "" {
			api = api + "?" + query
		}
		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", api,
			"status", status,
			"duration", time.Since(start),
		}
		if actor, ok := GetActor(c); ok {
			args = append(args, "user_id", actor.ID)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}
		if verbose {
			args = append(args, "request", truncate(reqBodyBytes), "response", truncate(rec.body.Bytes()))
		}

		reqLog := logger.WithRequestID(log, GetRequestID(c))
		switch {
		case status >= 500:
			reqLog.Error("http request", args...)
		case status >= 400:
			reqLog.Warn("http request", args...)
		default:
			reqLog.Info("http request", args...)
		}
	}
}

// responseCapture captures response body while delegating to original writer.
type responseCapture struct {
	gin.ResponseWriter
	body    bytes.Buffer
	enabled bool
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.enabled && r.body.Len() < maxLoggedBody {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) WriteString(s string) (int, error) {
	if r.enabled && r.body.Len() < maxLoggedBody {
		r.body.WriteString(s)
	}
	return r.ResponseWriter.WriteString(s)
}

func truncate(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "..."
	}
	return string(b)
}
