package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxLoggedBody caps request and response bodies in the access log.
const maxLoggedBody = 4096

// LoggingConfig controls the access log.
type LoggingConfig struct {
	// Bodies adds request and response bodies to each line.
	Bodies bool
	// SkipPaths are not logged.
	SkipPaths []string
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	if room := maxLoggedBody - w.buf.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		w.buf.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Logging writes one zap line per request.
func Logging(logger *zap.Logger, cfg LoggingConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		var reqBody []byte
		var recorder *bodyRecorder
		if cfg.Bodies {
			if c.Request.Body != nil {
				data, err := io.ReadAll(c.Request.Body)
				if err == nil {
					reqBody = data
				}
				c.Request.Body = io.NopCloser(bytes.NewReader(data))
			}
			recorder = &bodyRecorder{ResponseWriter: c.Writer}
			c.Writer = recorder
		}

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if sid := c.Param("sessionId"); sid != "" {
			fields = append(fields, zap.String("session_id", sid))
		}
		if cfg.Bodies {
			fields = append(fields,
				zap.String("request_body", truncate(reqBody)),
				zap.String("response_body", truncate(recorder.buf.Bytes())),
			)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request handled", fields...)
		}
	}
}

func truncate(b []byte) string {
	if len(b) <= maxLoggedBody {
		return string(b)
	}
	return string(b[:maxLoggedBody]) + "...(truncated)"
}

// Recovery turns a handler panic into a 500 WebDriver error and logs it.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Handler panicked",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				abortWithError(c, http.StatusInternalServerError, "unknown error", "internal server error")
			}
		}()
		c.Next()
	}
}
