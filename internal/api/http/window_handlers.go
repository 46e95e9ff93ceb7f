package http

import (
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
)

// Title returns the active window title.
func (h *Handlers) Title(c *gin.Context) {
	h.run(c, "getTitle", codeNoSuchWindow, func(s *automation.Session) (any, error) {
		return s.WindowTitle()
	})
}

// WindowRect returns the active window rectangle.
func (h *Handlers) WindowRect(c *gin.Context) {
	h.run(c, "getWindowRect", codeNoSuchWindow, func(s *automation.Session) (any, error) {
		return s.WindowRect()
	})
}

// WindowHandle returns the active window handle.
func (h *Handlers) WindowHandle(c *gin.Context) {
	h.run(c, "getWindowHandle", codeNoSuchWindow, func(s *automation.Session) (any, error) {
		return s.WindowHandle()
	})
}

// WindowHandles lists the handles of the session's top-level windows.
func (h *Handlers) WindowHandles(c *gin.Context) {
	h.run(c, "getWindowHandles", codeNoSuchWindow, func(s *automation.Session) (any, error) {
		return s.WindowHandles()
	})
}

// SwitchWindow activates a window by handle.
func (h *Handlers) SwitchWindow(c *gin.Context) {
	var req SwitchWindowRequest
	if !h.bind(c, &req) {
		return
	}
	handle := req.target()
	if handle == "" {
		h.badRequest(c, "handle is required")
		return
	}
	h.run(c, "switchToWindow", codeNoSuchWindow, func(s *automation.Session) (any, error) {
		return nil, s.SwitchToWindow(handle)
	})
}

// CloseWindow closes the active window and returns the remaining handles.
func (h *Handlers) CloseWindow(c *gin.Context) {
	h.run(c, "closeWindow", codeNoSuchWindow, func(s *automation.Session) (any, error) {
		if err := s.CloseWindow(); err != nil {
			return nil, err
		}
		return s.WindowHandles()
	})
}
