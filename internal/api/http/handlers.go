package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/deskdriver/internal/shared/id"
)

// Version is reported by GET /status.
var Version = "dev"

// Handlers serves the WebDriver endpoints.
type Handlers struct {
	registry *automation.Registry
	executor *automation.Executor
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	logger   *zap.Logger
	started  time.Time
}

// NewHandlers creates handlers. metrics may be nil.
func NewHandlers(registry *automation.Registry, executor *automation.Executor, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		registry: registry,
		executor: executor,
		metrics:  metrics,
		logger:   logger,
		started:  time.Now(),
	}
}

// WithTracer records a span for the automation work of every session
// command.
func (h *Handlers) WithTracer(t *tracing.Tracer) *Handlers {
	h.tracer = t
	return h
}

func commandStatus(err error) string {
	if err == nil {
		return monitoring.StatusOK
	}
	return automation.KindOf(err).String()
}

// run looks up the path session and runs fn on an automation worker once
// the session's earlier commands are done.
// notFoundCode names what a NotFound error from fn refers to.
func (h *Handlers) run(c *gin.Context, command, notFoundCode string, fn func(*automation.Session) (any, error)) {
	timer := monitoring.NewTimer(h.metrics, command)

	s, err := h.registry.Get(id.SessionID(c.Param("sessionId")))
	if err != nil {
		timer.Stop(commandStatus(err))
		h.writeError(c, err, codeInvalidSession)
		return
	}

	var value any
	err = h.tracer.Trace(c.Request.Context(), "automation."+command, func(ctx context.Context, span *tracing.Span) error {
		span.SetTag("session_id", string(s.ID()))
		return h.executor.DoFor(ctx, s, func() error {
			var err error
			value, err = fn(s)
			return err
		})
	})
	timer.Stop(commandStatus(err))
	if err != nil {
		h.writeError(c, err, notFoundCode)
		return
	}
	ok(c, value)
}

// bind decodes the JSON body into dst, answering 400 on failure.
func (h *Handlers) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.badRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// Status reports server readiness.
func (h *Handlers) Status(c *gin.Context) {
	ok(c, StatusResponse{
		Ready:   true,
		Message: "deskdriver is ready to accept commands",
		Build: map[string]any{
			"version": Version,
		},
		Sessions: h.registry.Len(),
	})
}

// Health is the liveness probe.
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":   "healthy",
		"uptime":   time.Since(h.started).Round(time.Second).String(),
		"sessions": h.registry.Len(),
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.Render(http.StatusOK, sonicJSON{Data: body})
}

// ListSessions returns every live session.
func (h *Handlers) ListSessions(c *gin.Context) {
	ok(c, h.registry.List())
}
