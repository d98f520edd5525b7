package logger

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"
	ginLoggerKey    = "logger"
)

// quietRoutes are polled by infrastructure; their summaries go to debug.
var quietRoutes = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// Middleware tags every request with a request id, carries a request logger in both
// the gin and request contexts, and writes one summary line per request.
// The summary level follows the status: 5xx error, 4xx warn, everything else info.
func Middleware(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, rid)

		reqLog := l.With("request_id", rid)
		c.Set(ginLoggerKey, reqLog)
		c.Request = c.Request.WithContext(With(c.Request.Context(), reqLog))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if loc := c.Writer.Header().Get("Location"); loc != "" {
			attrs = append(attrs, slog.String("location", loc))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}
		reqLog.LogAttrs(context.Background(), summaryLevel(route, status, len(c.Errors) > 0), "request", attrs...)
	}
}

func summaryLevel(route string, status int, failed bool) slog.Level {
	switch {
	case status >= http.StatusInternalServerError || failed:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case quietRoutes[route]:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// FromGin returns the request logger set by Middleware, or slog.Default().
func FromGin(c *gin.Context) *slog.Logger {
	if l, ok := c.Value(ginLoggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
