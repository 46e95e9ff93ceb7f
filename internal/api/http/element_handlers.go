package http

import (
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
	"github.com/GriffinCanCode/deskdriver/internal/shared/id"
)

func elementParam(c *gin.Context) id.ElementID {
	return id.ElementID(c.Param("elementId"))
}

func (h *Handlers) locator(c *gin.Context) (automation.Locator, bool) {
	var req LocatorRequest
	if !h.bind(c, &req) {
		return automation.Locator{}, false
	}
	loc, err := automation.ParseLocator(req.Using, req.Value)
	if err != nil {
		h.writeError(c, err, codeNoSuchElement)
		return automation.Locator{}, false
	}
	return loc, true
}

// FindElement finds one element below the active window or a parent
// element.
func (h *Handlers) FindElement(c *gin.Context) {
	loc, good := h.locator(c)
	if !good {
		return
	}
	parent := elementParam(c)
	h.run(c, "findElement", codeNoSuchElement, func(s *automation.Session) (any, error) {
		eid, err := s.FindElement(parent, loc)
		if err != nil {
			return nil, err
		}
		return elementRef(eid), nil
	})
}

// FindElements finds every matching element.
func (h *Handlers) FindElements(c *gin.Context) {
	loc, good := h.locator(c)
	if !good {
		return
	}
	parent := elementParam(c)
	h.run(c, "findElements", codeNoSuchElement, func(s *automation.Session) (any, error) {
		eids, err := s.FindElements(parent, loc)
		if err != nil {
			return nil, err
		}
		refs := make([]ElementReference, 0, len(eids))
		for _, eid := range eids {
			refs = append(refs, elementRef(eid))
		}
		return refs, nil
	})
}

// Click clicks an element.
func (h *Handlers) Click(c *gin.Context) {
	eid := elementParam(c)
	h.run(c, "elementClick", codeNoSuchElement, func(s *automation.Session) (any, error) {
		return nil, s.Click(eid)
	})
}

// SendKeys enters text into an element.
func (h *Handlers) SendKeys(c *gin.Context) {
	var req KeysRequest
	if !h.bind(c, &req) {
		return
	}
	eid := elementParam(c)
	text := string(req.Runes())
	h.run(c, "elementSendKeys", codeNoSuchElement, func(s *automation.Session) (any, error) {
		return nil, s.SendKeys(eid, text)
	})
}

// Clear empties an element's value.
func (h *Handlers) Clear(c *gin.Context) {
	eid := elementParam(c)
	h.run(c, "elementClear", codeNoSuchElement, func(s *automation.Session) (any, error) {
		return nil, s.Clear(eid)
	})
}

// Text returns an element's text.
func (h *Handlers) Text(c *gin.Context) {
	eid := elementParam(c)
	h.run(c, "getElementText", codeNoSuchElement, func(s *automation.Session) (any, error) {
		return s.Text(eid)
	})
}

// Displayed reports whether an element is on screen.
func (h *Handlers) Displayed(c *gin.Context) {
	eid := elementParam(c)
	h.run(c, "isElementDisplayed", codeNoSuchElement, func(s *automation.Session) (any, error) {
		return s.IsDisplayed(eid)
	})
}

// Enabled reports whether an element is enabled.
func (h *Handlers) Enabled(c *gin.Context) {
	eid := elementParam(c)
	h.run(c, "isElementEnabled", codeNoSuchElement, func(s *automation.Session) (any, error) {
		return s.IsEnabled(eid)
	})
}

// Selected reports an element's selection or toggle state.
func (h *Handlers) Selected(c *gin.Context) {
	eid := elementParam(c)
	h.run(c, "isElementSelected", codeNoSuchElement, func(s *automation.Session) (any, error) {
		return s.IsSelected(eid)
	})
}

// Rect returns an element's bounding rectangle.
func (h *Handlers) Rect(c *gin.Context) {
	eid := elementParam(c)
	h.run(c, "getElementRect", codeNoSuchElement, func(s *automation.Session) (any, error) {
		return s.Rect(eid)
	})
}

// Attribute returns a property value, or null when the element lacks it.
func (h *Handlers) Attribute(c *gin.Context) {
	eid := elementParam(c)
	name := c.Param("name")
	h.run(c, "getElementAttribute", codeNoSuchElement, func(s *automation.Session) (any, error) {
		v, err := s.Attribute(eid, name)
		if err != nil || v == nil {
			return nil, err
		}
		return *v, nil
	})
}
