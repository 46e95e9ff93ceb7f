package automation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/GriffinCanCode/deskdriver/internal/shared/id"
)

// Summary is the listing projection of a session.
type Summary struct {
	ID           id.SessionID `json:"id"`
	Created      time.Time    `json:"created"`
	LastActionAt time.Time    `json:"lastActionAt"`
	Root         bool         `json:"root"`
}

// Session owns one automation target: a launched or attached application,
// or the whole desktop. Operations are serialized by the session mutex.
type Session struct {
	id       id.SessionID
	created  time.Time
	root     bool
	app      Application
	provider Provider
	scripts  *Dispatcher
	logger   *zap.Logger
	now      func() time.Time

	lastAction atomic.Int64

	// turn queues commands ahead of s.mu so waiters can give up with
	// their context and hold no worker slot meanwhile.
	turn *semaphore.Weighted

	mu        sync.Mutex
	closed    bool
	window    Window // nil until resolved
	handles   *handleTable
	modifiers modifierState
}

type sessionParams struct {
	root        bool
	app         Application
	window      Window
	provider    Provider
	scripts     *Dispatcher
	logger      *zap.Logger
	now         func() time.Time
	handleLimit int
}

func newSession(p sessionParams) *Session {
	now := p.now
	if now == nil {
		now = time.Now
	}
	sid := id.NewSessionID()
	s := &Session{
		id:       sid,
		created:  now(),
		root:     p.root,
		app:      p.app,
		provider: p.provider,
		scripts:  p.scripts,
		logger:   p.logger.With(zap.String("session_id", string(sid))),
		now:      now,
		window:   p.window,
		handles:  newHandleTable(p.handleLimit),
		turn:     semaphore.NewWeighted(1),
	}
	s.lastAction.Store(s.created.UnixNano())
	return s
}

// ID returns the session id.
func (s *Session) ID() id.SessionID { return s.id }

// Created returns the creation time.
func (s *Session) Created() time.Time { return s.created }

// IsRoot reports whether the session targets the desktop.
func (s *Session) IsRoot() bool { return s.root }

// LastActionAt returns the last time the session was looked up.
func (s *Session) LastActionAt() time.Time {
	return time.Unix(0, s.lastAction.Load())
}

// Touch refreshes the last-activity timestamp.
func (s *Session) Touch() {
	s.lastAction.Store(s.now().UnixNano())
}

// Summary projects the session for listing.
func (s *Session) Summary() Summary {
	return Summary{
		ID:           s.id,
		Created:      s.created,
		LastActionAt: s.LastActionAt(),
		Root:         s.root,
	}
}

func (s *Session) lock() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return sessionNotFound(s.id)
	}
	return nil
}

// activeWindow resolves the active window, lazily falling back to the main
// window or the desktop. Callers hold s.mu.
func (s *Session) activeWindow() (Window, error) {
	if s.window != nil {
		return s.window, nil
	}
	var (
		w   Window
		err error
	)
	if s.root {
		w, err = s.provider.Desktop()
	} else {
		w, err = s.app.MainWindow()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active window: %w", err)
	}
	if w == nil {
		return nil, notFound("Session has no active window")
	}
	s.window = w
	return w, nil
}

func (s *Session) element(eid id.ElementID) (Element, error) {
	e, ok := s.handles.get(eid)
	if !ok {
		return nil, notFound("Element with id '%s' was not found", eid)
	}
	return e, nil
}

func (s *Session) searchRoot(parent id.ElementID) (Element, error) {
	if parent == "" {
		return s.activeWindow()
	}
	return s.element(parent)
}

// FindElement finds the first match below parent, or below the active
// window when parent is empty, and registers a handle for it.
func (s *Session) FindElement(parent id.ElementID, loc Locator) (id.ElementID, error) {
	if err := s.lock(); err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	root, err := s.searchRoot(parent)
	if err != nil {
		return "", err
	}
	e, err := loc.FindFirst(root)
	if err != nil {
		return "", err
	}
	return s.handles.add(e), nil
}

// FindElements registers a handle for every match. No match fails
// NotFound rather than returning an empty slice.
func (s *Session) FindElements(parent id.ElementID, loc Locator) ([]id.ElementID, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	root, err := s.searchRoot(parent)
	if err != nil {
		return nil, err
	}
	found, err := loc.FindAll(root)
	if err != nil {
		return nil, err
	}
	ids := make([]id.ElementID, 0, len(found))
	for _, e := range found {
		ids = append(ids, s.handles.add(e))
	}
	return ids, nil
}

// withElement runs fn against a registered element under the session lock.
func (s *Session) withElement(eid id.ElementID, fn func(Element) error) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	e, err := s.element(eid)
	if err != nil {
		return err
	}
	return fn(e)
}

// Click waits until the element is clickable, then clicks it.
func (s *Session) Click(eid id.ElementID) error {
	return s.withElement(eid, func(e Element) error {
		if err := e.WaitUntilClickable(); err != nil {
			return err
		}
		return e.Click()
	})
}

// SendKeys focuses the element and types text into it.
func (s *Session) SendKeys(eid id.ElementID, text string) error {
	return s.withElement(eid, func(e Element) error {
		if err := e.Focus(); err != nil {
			return err
		}
		return e.Enter(text)
	})
}

// Clear empties the element's text.
func (s *Session) Clear(eid id.ElementID) error {
	return s.withElement(eid, func(e Element) error {
		return e.SetText("")
	})
}

// Text reads the element text from the first supported pattern.
func (s *Session) Text(eid id.ElementID) (string, error) {
	var text string
	err := s.withElement(eid, func(e Element) error {
		text = elementText(e)
		return nil
	})
	return text, err
}

func elementText(e Element) string {
	p := e.Patterns()
	if t, ok := p.Text(); ok {
		return t
	}
	if v, ok := p.Value(); ok {
		return v
	}
	if r, ok := p.RangeValue(); ok {
		return strconv.FormatFloat(r, 'f', -1, 64)
	}
	return e.Name()
}

// IsDisplayed reports whether the element is available and on screen.
func (s *Session) IsDisplayed(eid id.ElementID) (bool, error) {
	var shown bool
	err := s.withElement(eid, func(e Element) error {
		shown = e.IsAvailable() && !e.IsOffscreen()
		return nil
	})
	return shown, err
}

// IsEnabled reports the element's enabled flag.
func (s *Session) IsEnabled(eid id.ElementID) (bool, error) {
	var enabled bool
	err := s.withElement(eid, func(e Element) error {
		enabled = e.IsEnabled()
		return nil
	})
	return enabled, err
}

// IsSelected checks selection, then toggle state. Elements supporting
// neither are not selected.
func (s *Session) IsSelected(eid id.ElementID) (bool, error) {
	var selected bool
	err := s.withElement(eid, func(e Element) error {
		p := e.Patterns()
		if sel, ok := p.SelectionItem(); ok {
			selected = sel
		} else if state, ok := p.Toggle(); ok {
			selected = state == ToggleOn
		}
		return nil
	})
	return selected, err
}

// Rect returns the element's bounding rectangle, zero when unsupported.
func (s *Session) Rect(eid id.ElementID) (Rect, error) {
	var r Rect
	err := s.withElement(eid, func(e Element) error {
		r, _ = e.BoundingRectangle()
		return nil
	})
	return r, err
}

// Attribute returns a named property as a string, or nil when the element
// has no such property.
func (s *Session) Attribute(eid id.ElementID, name string) (*string, error) {
	var out *string
	err := s.withElement(eid, func(e Element) error {
		if v, ok := e.Property(name); ok && v != nil {
			str := fmt.Sprint(v)
			out = &str
			return nil
		}
		for _, a := range elementAttributes(e) {
			if a.name == name {
				v := a.value
				out = &v
				break
			}
		}
		return nil
	})
	return out, err
}

// Screenshot captures the primary screen as base64 PNG.
func (s *Session) Screenshot() (string, error) {
	if err := s.lock(); err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	png, err := s.provider.Screen().CapturePrimary()
	if err != nil {
		return "", fmt.Errorf("failed to capture screen: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// withWindow runs fn against the active window under the session lock.
func (s *Session) withWindow(fn func(Window) error) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	w, err := s.activeWindow()
	if err != nil {
		return err
	}
	return fn(w)
}

// WindowTitle returns the active window title.
func (s *Session) WindowTitle() (string, error) {
	var title string
	err := s.withWindow(func(w Window) error {
		title = w.Title()
		return nil
	})
	return title, err
}

// WindowRect returns the active window bounds.
func (s *Session) WindowRect() (Rect, error) {
	var r Rect
	err := s.withWindow(func(w Window) error {
		r, _ = w.BoundingRectangle()
		return nil
	})
	return r, err
}

// WindowHandle returns the active window handle.
func (s *Session) WindowHandle() (string, error) {
	var handle string
	err := s.withWindow(func(w Window) error {
		handle = WindowHandle(w)
		return nil
	})
	return handle, err
}

func (s *Session) topLevelWindows() ([]Window, error) {
	if s.root {
		return s.provider.TopLevelWindows()
	}
	return s.app.TopLevelWindows()
}

// WindowHandles lists the handles of the target's top-level windows.
func (s *Session) WindowHandles() ([]string, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	windows, err := s.topLevelWindows()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate windows: %w", err)
	}
	handles := make([]string, 0, len(windows))
	for _, w := range windows {
		handles = append(handles, WindowHandle(w))
	}
	return handles, nil
}

// SwitchToWindow makes the window with the given handle active.
func (s *Session) SwitchToWindow(handle string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	windows, err := s.topLevelWindows()
	if err != nil {
		return fmt.Errorf("failed to enumerate windows: %w", err)
	}
	for _, w := range windows {
		if WindowHandle(w) == handle {
			s.window = w
			s.logger.Debug("Switched window", zap.String("handle", handle))
			return nil
		}
	}
	return notFound("Window with handle '%s' not found", handle)
}

// CloseWindow closes the active window. The next window access resolves
// the main window again.
func (s *Session) CloseWindow() error {
	return s.withWindow(func(w Window) error {
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to close window: %w", err)
		}
		s.window = nil
		return nil
	})
}

// Source serializes the active window's subtree as XML.
func (s *Session) Source() (string, error) {
	var src string
	err := s.withWindow(func(w Window) error {
		var err error
		src, err = RenderSource(w)
		return err
	})
	return src, err
}

// ExecuteScript runs a named gesture, clipboard or shell script.
func (s *Session) ExecuteScript(ctx context.Context, name string, args []json.RawMessage) (any, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return s.scripts.Execute(ctx, name, args)
}

// TypeKeys drives the modifier-key state machine. Held modifiers persist
// across calls until toggled off or released with ReleaseAllRune.
func (s *Session) TypeKeys(keys []rune) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.modifiers.apply(s.provider.Keyboard(), keys, s.logger)
}

// HeldKeys returns the keys currently held by this session.
func (s *Session) HeldKeys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modifiers.Held()
}

// HandleCount returns the number of registered element handles.
func (s *Session) HandleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles.len()
}

// Close releases held keys, closes the owned application unless this is a
// root session or it already exited, then releases every resource. The
// close error is returned after release. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if len(s.modifiers.held) > 0 {
		if err := s.modifiers.releaseAll(s.provider.Keyboard(), s.logger); err != nil {
			errs = append(errs, fmt.Errorf("failed to release keys: %w", err))
		}
	}
	if !s.root && s.app != nil && !s.app.HasExited() {
		if err := s.app.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close application: %w", err))
		}
	}

	s.handles.clear()
	s.window = nil
	if s.app != nil {
		if err := s.app.Release(); err != nil {
			errs = append(errs, fmt.Errorf("failed to release application: %w", err))
		}
	}
	return errors.Join(errs...)
}
