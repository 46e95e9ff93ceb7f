package http

import (
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/deskdriver/internal/shared/id"
)

// CreateSession launches, attaches or roots a new session.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req NewSessionRequest
	if !h.bind(c, &req) {
		return
	}
	caps := req.AutomationCapabilities()
	timer := monitoring.NewTimer(h.metrics, "newSession")

	var s *automation.Session
	err := h.executor.Do(c.Request.Context(), func() error {
		var err error
		s, err = h.registry.Create(caps)
		return err
	})
	timer.Stop(commandStatus(err))
	if err != nil {
		h.writeError(c, err, codeNoSuchWindow)
		return
	}

	echo := map[string]any{"platformName": "Windows"}
	if caps.App != "" {
		echo[vendorPrefix+capApp] = caps.App
	}
	if caps.TopLevelWindow != "" {
		echo[vendorPrefix+capTopLevelWindow] = caps.TopLevelWindow
	}
	ok(c, NewSessionResponse{SessionID: s.ID(), Capabilities: echo})
}

// DeleteSession closes a session. Close errors are reported after the
// session is gone.
func (h *Handlers) DeleteSession(c *gin.Context) {
	timer := monitoring.NewTimer(h.metrics, "deleteSession")
	err := h.registry.Delete(id.SessionID(c.Param("sessionId")))
	timer.Stop(commandStatus(err))
	if err != nil {
		h.writeError(c, err, codeInvalidSession)
		return
	}
	ok(c, nil)
}

// Source returns the active window's XML source.
func (h *Handlers) Source(c *gin.Context) {
	h.run(c, "getPageSource", codeNoSuchWindow, func(s *automation.Session) (any, error) {
		return s.Source()
	})
}

// Screenshot returns the primary screen as base64 PNG.
func (h *Handlers) Screenshot(c *gin.Context) {
	h.run(c, "takeScreenshot", codeNoSuchWindow, func(s *automation.Session) (any, error) {
		return s.Screenshot()
	})
}

// Execute runs a named script.
func (h *Handlers) Execute(c *gin.Context) {
	var req ExecuteRequest
	if !h.bind(c, &req) {
		return
	}
	h.run(c, "executeScript", codeNoSuchElement, func(s *automation.Session) (any, error) {
		return s.ExecuteScript(c.Request.Context(), req.Script, req.Args)
	})
}

// Keys types into the focused element through the modifier state machine.
func (h *Handlers) Keys(c *gin.Context) {
	var req KeysRequest
	if !h.bind(c, &req) {
		return
	}
	h.run(c, "keys", codeNoSuchElement, func(s *automation.Session) (any, error) {
		return nil, s.TypeKeys(req.Runes())
	})
}
