package client

import (
	"context"
	"net/http"
)

// Element is a found element handle.
type Element struct {
	s  *Session
	ID string
}

func (e *Element) path(parts ...string) string {
	return e.s.path(append([]string{"element", e.ID}, parts...)...)
}

// FindElement finds the first match below e.
func (e *Element) FindElement(ctx context.Context, using, value string) (*Element, error) {
	return e.s.find(ctx, e.path("element"), using, value)
}

// FindElements finds every match below e.
func (e *Element) FindElements(ctx context.Context, using, value string) ([]*Element, error) {
	return e.s.findAll(ctx, e.path("elements"), using, value)
}

// Click clicks the element.
func (e *Element) Click(ctx context.Context) error {
	return e.s.c.call(ctx, http.MethodPost, e.path("click"), struct{}{}, nil)
}

// SendKeys types text into the element.
func (e *Element) SendKeys(ctx context.Context, text string) error {
	return e.s.c.call(ctx, http.MethodPost, e.path("value"), map[string]string{"text": text}, nil)
}

// Clear empties the element.
func (e *Element) Clear(ctx context.Context) error {
	return e.s.c.call(ctx, http.MethodPost, e.path("clear"), struct{}{}, nil)
}

// Text returns the element text.
func (e *Element) Text(ctx context.Context) (string, error) {
	var out string
	err := e.s.c.call(ctx, http.MethodGet, e.path("text"), nil, &out)
	return out, err
}

func (e *Element) flag(ctx context.Context, name string) (bool, error) {
	var out bool
	err := e.s.c.call(ctx, http.MethodGet, e.path(name), nil, &out)
	return out, err
}

// Displayed reports whether the element is on screen.
func (e *Element) Displayed(ctx context.Context) (bool, error) { return e.flag(ctx, "displayed") }

// Enabled reports whether the element is enabled.
func (e *Element) Enabled(ctx context.Context) (bool, error) { return e.flag(ctx, "enabled") }

// Selected reports the element's selection or toggle state.
func (e *Element) Selected(ctx context.Context) (bool, error) { return e.flag(ctx, "selected") }

// Rect returns the element bounds.
func (e *Element) Rect(ctx context.Context) (Rect, error) {
	var out Rect
	err := e.s.c.call(ctx, http.MethodGet, e.path("rect"), nil, &out)
	return out, err
}

// Attribute returns a property value; ok is false when the element has
// no such property.
func (e *Element) Attribute(ctx context.Context, name string) (value string, ok bool, err error) {
	var out *string
	if err := e.s.c.call(ctx, http.MethodGet, e.path("attribute", name), nil, &out); err != nil {
		return "", false, err
	}
	if out == nil {
		return "", false, nil
	}
	return *out, true, nil
}
