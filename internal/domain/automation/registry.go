package automation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/deskdriver/internal/shared/id"
)

// RootApplication selects the desktop as the automation root.
const RootApplication = "Root"

// Capabilities selects the automation target of a new session.
type Capabilities struct {
	// App is a launch path or RootApplication.
	App string
	// TopLevelWindow is a hexadecimal window handle to attach to.
	TopLevelWindow string
}

// Observer receives registry lifecycle events.
type Observer interface {
	SessionCreated()
	SessionDeleted(reaped bool)
	SessionsActive(n int)
}

type nopObserver struct{}

func (nopObserver) SessionCreated()     {}
func (nopObserver) SessionDeleted(bool) {}
func (nopObserver) SessionsActive(int)  {}

// RegistryConfig tunes sessions created by the registry.
type RegistryConfig struct {
	MaxElementHandles int
	// CloseConcurrency bounds parallel closes in ReapAll.
	CloseConcurrency int
}

// Registry owns the live sessions keyed by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*Session

	provider Provider
	scripts  *Dispatcher
	config   RegistryConfig
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(provider Provider, scripts *Dispatcher, cfg RegistryConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CloseConcurrency <= 0 {
		cfg.CloseConcurrency = 4
	}
	return &Registry{
		sessions: make(map[id.SessionID]*Session),
		provider: provider,
		scripts:  scripts,
		config:   cfg,
		logger:   logger,
		observer: nopObserver{},
		now:      time.Now,
	}
}

// WithObserver sets the lifecycle observer.
func (r *Registry) WithObserver(o Observer) *Registry {
	if o != nil {
		r.observer = o
	}
	return r
}

// WithClock overrides the time source.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// ParseWindowHandle parses a hexadecimal window handle with an optional
// 0x prefix.
func ParseWindowHandle(s string) (int64, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	h, err := strconv.ParseInt(trimmed, 16, 64)
	if err != nil {
		return 0, &Error{Kind: KindValidation, Msg: fmt.Sprintf("window handle '%s' is not hexadecimal", s), Err: err}
	}
	return h, nil
}

// Create launches, attaches, or roots a new session and registers it.
func (r *Registry) Create(caps Capabilities) (*Session, error) {
	params := sessionParams{
		provider:    r.provider,
		scripts:     r.scripts,
		logger:      r.logger.Named("session"),
		now:         r.now,
		handleLimit: r.config.MaxElementHandles,
	}

	switch {
	case caps.TopLevelWindow != "":
		handle, err := ParseWindowHandle(caps.TopLevelWindow)
		if err != nil {
			return nil, err
		}
		app, err := r.provider.Attach(handle)
		if err != nil {
			return nil, initialization(err, "failed to attach to window %s", caps.TopLevelWindow)
		}
		params.app = app
	case caps.App == RootApplication:
		desktop, err := r.provider.Desktop()
		if err != nil {
			return nil, initialization(err, "failed to open desktop")
		}
		params.root = true
		params.window = desktop
	case caps.App != "":
		app, err := r.provider.Launch(caps.App)
		if err != nil {
			return nil, initialization(err, "failed to launch %s", caps.App)
		}
		params.app = app
		w, err := app.MainWindow()
		if err != nil {
			_ = app.Close()
			_ = app.Release()
			return nil, initialization(err, "application %s has no main window", caps.App)
		}
		params.window = w
	default:
		return nil, validation("capability appium:app or appium:appTopLevelWindow is required")
	}

	s := newSession(params)

	r.mu.Lock()
	r.sessions[s.id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.observer.SessionCreated()
	r.observer.SessionsActive(n)
	r.logger.Info("Session created",
		zap.String("session_id", string(s.id)),
		zap.String("app", caps.App),
		zap.String("window", caps.TopLevelWindow),
		zap.Bool("root", s.root),
	)
	return s, nil
}

// Get returns a session and refreshes its last-activity time.
func (r *Registry) Get(sid id.SessionID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return nil, sessionNotFound(sid)
	}
	s.Touch()
	return s, nil
}

// Delete removes and closes a session. Close failures are returned after
// the session has been removed and released.
func (r *Registry) Delete(sid id.SessionID) error {
	r.mu.Lock()
	s, ok := r.sessions[sid]
	if ok {
		delete(r.sessions, sid)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return sessionNotFound(sid)
	}

	r.observer.SessionDeleted(false)
	r.observer.SessionsActive(n)
	r.logger.Info("Session deleted", zap.String("session_id", string(sid)))

	if err := s.Close(); err != nil {
		return fmt.Errorf("session %s closed with errors: %w", sid, err)
	}
	return nil
}

// List returns summaries ordered by creation time.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	out := make([]Summary, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Summary())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ReapInactive removes and closes every session idle for longer than
// threshold and returns their ids. A session touched after the scan is
// kept.
func (r *Registry) ReapInactive(threshold time.Duration) []id.SessionID {
	idle := func(s *Session, now time.Time) bool {
		return s.LastActionAt().Add(threshold).Before(now)
	}

	now := r.now()
	r.mu.RLock()
	var candidates []id.SessionID
	for sid, s := range r.sessions {
		if idle(s, now) {
			candidates = append(candidates, sid)
		}
	}
	r.mu.RUnlock()
	if len(candidates) == 0 {
		return nil
	}

	var victims []*Session
	r.mu.Lock()
	for _, sid := range candidates {
		s, ok := r.sessions[sid]
		if !ok || !idle(s, now) {
			continue
		}
		delete(r.sessions, sid)
		victims = append(victims, s)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	r.observer.SessionsActive(n)
	return r.closeAll(victims)
}

// ReapAll removes and closes every session.
func (r *Registry) ReapAll() []id.SessionID {
	r.mu.Lock()
	victims := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		victims = append(victims, s)
	}
	r.sessions = make(map[id.SessionID]*Session)
	r.mu.Unlock()

	r.observer.SessionsActive(0)
	return r.closeAll(victims)
}

func (r *Registry) closeAll(victims []*Session) []id.SessionID {
	var g errgroup.Group
	g.SetLimit(r.config.CloseConcurrency)

	ids := make([]id.SessionID, len(victims))
	for i, s := range victims {
		ids[i] = s.id
		g.Go(func() error {
			r.observer.SessionDeleted(true)
			if err := s.Close(); err != nil {
				r.logger.Warn("Failed to close reaped session",
					zap.String("session_id", string(s.id)), zap.Error(err))
				return err
			}
			r.logger.Info("Session reaped", zap.String("session_id", string(s.id)))
			return nil
		})
	}
	_ = g.Wait()
	return ids
}
