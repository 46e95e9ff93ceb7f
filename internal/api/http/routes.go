package http

import (
	"github.com/gin-gonic/gin"
)

// Register mounts the WebDriver routes under basePath and the operational
// routes at the root.
func Register(router *gin.Engine, h *Handlers, basePath string) {
	router.HandleMethodNotAllowed = true
	router.NoRoute(h.NoRoute)
	router.NoMethod(h.NoMethod)

	router.GET("/health", h.Health)
	router.GET("/sessions", h.ListSessions)

	wd := router.Group(basePath)
	wd.GET("/status", h.Status)
	wd.POST("/session", h.CreateSession)

	s := wd.Group("/session/:sessionId")
	s.DELETE("", h.DeleteSession)
	s.GET("/source", h.Source)
	s.GET("/screenshot", h.Screenshot)
	s.GET("/title", h.Title)

	s.POST("/execute", h.Execute)
	s.POST("/execute/sync", h.Execute)
	s.POST("/keys", h.Keys)
	s.POST("/actions/keys", h.Keys)

	s.GET("/window_handle", h.WindowHandle)
	s.GET("/window_handles", h.WindowHandles)
	s.GET("/window/handle", h.WindowHandle)
	s.GET("/window/handles", h.WindowHandles)
	s.GET("/window/rect", h.WindowRect)
	s.POST("/window", h.SwitchWindow)
	s.DELETE("/window", h.CloseWindow)

	s.POST("/element", h.FindElement)
	s.POST("/elements", h.FindElements)

	e := s.Group("/element/:elementId")
	e.POST("/element", h.FindElement)
	e.POST("/elements", h.FindElements)
	e.POST("/click", h.Click)
	e.POST("/value", h.SendKeys)
	e.POST("/clear", h.Clear)
	e.GET("/text", h.Text)
	e.GET("/displayed", h.Displayed)
	e.GET("/enabled", h.Enabled)
	e.GET("/selected", h.Selected)
	e.GET("/rect", h.Rect)
	e.GET("/attribute/:name", h.Attribute)
}
