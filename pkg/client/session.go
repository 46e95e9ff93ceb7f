package client

import (
	"context"
	"net/http"
)

// ElementKey is the W3C web element identifier key.
const ElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Rect is a screen rectangle in pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Locator strategies.
const (
	ByAccessibilityID = "accessibility id"
	ByClassName       = "class name"
	ByTagName         = "tag name"
	ByName            = "name"
	ByXPath           = "xpath"
)

// Special key code points for Keys.
const (
	KeyNull    = "\uE000"
	KeyShift   = "\uE008"
	KeyControl = "\uE009"
	KeyAlt     = "\uE00A"
	KeyEnter   = "\uE007"
	KeyMeta    = "\uE03D"
)

// Session is an open driver session.
type Session struct {
	c            *Client
	ID           string
	Capabilities map[string]any
}

func (s *Session) path(parts ...string) string {
	return s.c.path(append([]string{"session", s.ID}, parts...)...)
}

// Delete closes the session.
func (s *Session) Delete(ctx context.Context) error {
	return s.c.call(ctx, http.MethodDelete, s.path(), nil, nil)
}

type locator struct {
	Using string `json:"using"`
	Value string `json:"value"`
}

type elementRef map[string]string

func (s *Session) element(ref elementRef) *Element {
	eid := ref[ElementKey]
	if eid == "" {
		eid = ref["ELEMENT"]
	}
	return &Element{s: s, ID: eid}
}

func (s *Session) find(ctx context.Context, path, using, value string) (*Element, error) {
	var ref elementRef
	if err := s.c.call(ctx, http.MethodPost, path, locator{using, value}, &ref); err != nil {
		return nil, err
	}
	return s.element(ref), nil
}

func (s *Session) findAll(ctx context.Context, path, using, value string) ([]*Element, error) {
	var refs []elementRef
	if err := s.c.call(ctx, http.MethodPost, path, locator{using, value}, &refs); err != nil {
		return nil, err
	}
	out := make([]*Element, len(refs))
	for i, ref := range refs {
		out[i] = s.element(ref)
	}
	return out, nil
}

// FindElement finds the first match below the active window.
func (s *Session) FindElement(ctx context.Context, using, value string) (*Element, error) {
	return s.find(ctx, s.path("element"), using, value)
}

// FindElements finds every match below the active window.
func (s *Session) FindElements(ctx context.Context, using, value string) ([]*Element, error) {
	return s.findAll(ctx, s.path("elements"), using, value)
}

// Title returns the active window title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var out string
	err := s.c.call(ctx, http.MethodGet, s.path("title"), nil, &out)
	return out, err
}

// Source returns the active window's XML source.
func (s *Session) Source(ctx context.Context) (string, error) {
	var out string
	err := s.c.call(ctx, http.MethodGet, s.path("source"), nil, &out)
	return out, err
}

// Screenshot returns the primary screen as base64 PNG.
func (s *Session) Screenshot(ctx context.Context) (string, error) {
	var out string
	err := s.c.call(ctx, http.MethodGet, s.path("screenshot"), nil, &out)
	return out, err
}

// WindowHandle returns the active window handle.
func (s *Session) WindowHandle(ctx context.Context) (string, error) {
	var out string
	err := s.c.call(ctx, http.MethodGet, s.path("window_handle"), nil, &out)
	return out, err
}

// WindowHandles lists the session's top-level window handles.
func (s *Session) WindowHandles(ctx context.Context) ([]string, error) {
	var out []string
	err := s.c.call(ctx, http.MethodGet, s.path("window_handles"), nil, &out)
	return out, err
}

// WindowRect returns the active window bounds.
func (s *Session) WindowRect(ctx context.Context) (Rect, error) {
	var out Rect
	err := s.c.call(ctx, http.MethodGet, s.path("window", "rect"), nil, &out)
	return out, err
}

// SwitchWindow activates the window with the given handle.
func (s *Session) SwitchWindow(ctx context.Context, handle string) error {
	return s.c.call(ctx, http.MethodPost, s.path("window"), map[string]string{"handle": handle}, nil)
}

// CloseWindow closes the active window and returns the remaining handles.
func (s *Session) CloseWindow(ctx context.Context) ([]string, error) {
	var out []string
	err := s.c.call(ctx, http.MethodDelete, s.path("window"), nil, &out)
	return out, err
}

// Keys sends a key sequence through the modifier state machine. Modifier
// code points toggle; KeyNull releases everything held.
func (s *Session) Keys(ctx context.Context, keys ...string) error {
	return s.c.call(ctx, http.MethodPost, s.path("keys"), map[string][]string{"value": keys}, nil)
}

// Execute runs a named script with args as its argument object and
// decodes the result into out, which may be nil.
func (s *Session) Execute(ctx context.Context, script string, args, out any) error {
	body := map[string]any{"script": script, "args": []any{args}}
	return s.c.call(ctx, http.MethodPost, s.path("execute", "sync"), body, out)
}

// SetClipboardText replaces the clipboard with text.
func (s *Session) SetClipboardText(ctx context.Context, text string) error {
	return s.Execute(ctx, "windows: setClipboard", map[string]string{
		"contentType": "plaintext",
		"b64Content":  text,
	}, nil)
}

// ClipboardText returns the clipboard text.
func (s *Session) ClipboardText(ctx context.Context) (string, error) {
	var out string
	err := s.Execute(ctx, "windows: getClipboard", map[string]string{"contentType": "plaintext"}, &out)
	return out, err
}

// Click clicks at screen coordinates.
func (s *Session) Click(ctx context.Context, x, y int) error {
	return s.Execute(ctx, "windows: click", map[string]any{"x": x, "y": y}, nil)
}
