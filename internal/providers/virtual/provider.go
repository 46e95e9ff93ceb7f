package virtual

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
)

const (
	runtimeIDPrefix = 42
	firstHandle     = 0x10000
)

// Provider is an in-memory desktop. It implements automation.Provider and
// records every injected input event.
type Provider struct {
	mu sync.RWMutex

	desktop   *Node
	templates map[string]AppSpec
	procs     []*process
	focused   *Node
	screen    Size

	nextRuntimeID int
	nextHandle    int64

	events   []Event
	settle   time.Duration
	settles  int
	keyboard *keyboard
	mouse    *mouse
	clip     automation.Clipboard
	logger   *zap.Logger
}

var _ automation.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithClipboard replaces the in-memory clipboard.
func WithClipboard(c automation.Clipboard) Option {
	return func(p *Provider) { p.clip = c }
}

// WithLogger sets the provider logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// WithSettleDelay makes WaitUntilInputIsProcessed sleep for d.
func WithSettleDelay(d time.Duration) Option {
	return func(p *Provider) { p.settle = d }
}

// New builds a desktop from a fixture and launches its running
// applications.
func New(f *Fixture, opts ...Option) (*Provider, error) {
	if f == nil {
		f = &Fixture{}
	}
	p := &Provider{
		templates:  make(map[string]AppSpec),
		screen:     f.Screen,
		nextHandle: firstHandle,
		clip:       NewClipboard(),
		logger:     zap.NewNop(),
	}
	if p.screen.Width <= 0 || p.screen.Height <= 0 {
		p.screen = Size{Width: 1920, Height: 1080}
	}
	for _, opt := range opts {
		opt(p)
	}
	p.keyboard = &keyboard{p: p}
	p.mouse = &mouse{p: p}

	p.desktop = &Node{
		p:           p,
		controlType: "Pane",
		className:   "#32769",
		name:        "Desktop 1",
		frameworkID: "Win32",
		runtimeID:   []int{runtimeIDPrefix, 0},
		enabled:     true,
		bounds:      &automation.Rect{Width: p.screen.Width, Height: p.screen.Height},
	}

	for _, spec := range f.Desktop {
		w, err := p.instantiate(spec, p.desktop, nil)
		if err != nil {
			return nil, err
		}
		p.desktop.children = append(p.desktop.children, w)
	}
	for _, app := range f.Applications {
		if app.Path == "" {
			return nil, fmt.Errorf("application without path in fixture")
		}
		p.templates[appKey(app.Path)] = app
	}
	for _, path := range f.Running {
		if _, err := p.Launch(path); err != nil {
			return nil, fmt.Errorf("failed to start %s: %w", path, err)
		}
	}
	return p, nil
}

// appKey matches applications by file name so Windows style paths resolve
// on any host.
func appKey(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	return strings.ToLower(path)
}

// instantiate creates a node tree from spec. Top-level nodes get a native
// handle. Callers hold p.mu or own p exclusively.
func (p *Provider) instantiate(spec NodeSpec, parent *Node, proc *process) (*Node, error) {
	if spec.ControlType != "" && !automation.IsControlType(spec.ControlType) {
		return nil, fmt.Errorf("unknown control type %q", spec.ControlType)
	}

	p.nextRuntimeID++
	n := &Node{
		p:            p,
		parent:       parent,
		proc:         proc,
		controlType:  spec.ControlType,
		automationID: spec.AutomationID,
		className:    spec.ClassName,
		name:         spec.Name,
		frameworkID:  spec.FrameworkID,
		runtimeID:    []int{runtimeIDPrefix, p.nextRuntimeID},
		enabled:      spec.Enabled == nil || *spec.Enabled,
		offscreen:    spec.Offscreen,
		password:     spec.Password,
		dialog:       spec.Dialog,
		props:        spec.Properties,
		text:         spec.Text,
		value:        spec.Value,
		rangeValue:   spec.RangeValue,
		selected:     spec.Selected,
	}
	if n.controlType == "" {
		n.controlType = "Custom"
	}
	if n.frameworkID == "" {
		n.frameworkID = "Win32"
	}
	if spec.Bounds != nil {
		r := automation.Rect(*spec.Bounds)
		n.bounds = &r
	}
	if spec.Toggle != "" {
		state, err := parseToggle(spec.Toggle)
		if err != nil {
			return nil, err
		}
		n.toggle = &state
	}
	if parent == p.desktop {
		if spec.Handle != "" {
			h, err := automation.ParseWindowHandle(spec.Handle)
			if err != nil {
				return nil, err
			}
			n.handle = h
		} else {
			p.nextHandle++
			n.handle = p.nextHandle
		}
	}

	for _, cs := range spec.Children {
		c, err := p.instantiate(cs, n, proc)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, c)
	}
	return n, nil
}

func parseToggle(s string) (automation.ToggleState, error) {
	switch strings.ToLower(s) {
	case "on":
		return automation.ToggleOn, nil
	case "off":
		return automation.ToggleOff, nil
	case "indeterminate":
		return automation.ToggleIndeterminate, nil
	default:
		return automation.ToggleOff, fmt.Errorf("unknown toggle state %q", s)
	}
}

// detach removes a top-level node from the desktop. Callers hold p.mu.
func (p *Provider) detach(n *Node) {
	if n.parent != nil {
		n.parent.children = removeNode(n.parent.children, n)
		n.parent = nil
	}
	if p.focused != nil && !p.focused.attached() {
		p.focused = nil
	}
}

// Launch starts a new instance of the application registered under path.
func (p *Provider) Launch(path string) (automation.Application, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	spec, ok := p.templates[appKey(path)]
	if !ok {
		return nil, fmt.Errorf("application %q not found", path)
	}
	if len(spec.Windows) == 0 {
		return nil, fmt.Errorf("application %q has no windows", path)
	}

	proc := &process{path: spec.Path}
	for _, ws := range spec.Windows {
		w, err := p.instantiate(ws, p.desktop, proc)
		if err != nil {
			return nil, err
		}
		proc.windows = append(proc.windows, w)
		p.desktop.children = append(p.desktop.children, w)
	}
	p.procs = append(p.procs, proc)
	p.record(Event{Kind: EventLaunch, Target: spec.Path})
	p.logger.Debug("Launched virtual application", zap.String("path", spec.Path))
	return &App{p: p, proc: proc}, nil
}

// Attach returns the running application owning the given window handle.
func (p *Provider) Attach(handle int64) (automation.Application, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, proc := range p.procs {
		if proc.exited {
			continue
		}
		for _, w := range proc.windows {
			if w.handle == handle {
				return &App{p: p, proc: proc}, nil
			}
		}
	}
	return nil, fmt.Errorf("no window with handle 0x%X", handle)
}

func (p *Provider) Desktop() (automation.Window, error) {
	return p.desktop, nil
}

func (p *Provider) TopLevelWindows() ([]automation.Window, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]automation.Window, len(p.desktop.children))
	for i, c := range p.desktop.children {
		out[i] = c
	}
	return out, nil
}

func (p *Provider) Keyboard() automation.Keyboard   { return p.keyboard }
func (p *Provider) Mouse() automation.Mouse         { return p.mouse }
func (p *Provider) Clipboard() automation.Clipboard { return p.clip }
func (p *Provider) Screen() automation.Screen       { return screen{p: p} }

func (p *Provider) WaitUntilInputIsProcessed() {
	if p.settle > 0 {
		time.Sleep(p.settle)
	}
	p.mu.Lock()
	p.settles++
	p.record(Event{Kind: EventSettle})
	p.mu.Unlock()
}

// Close exits every running application.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, proc := range p.procs {
		p.terminate(proc)
	}
	return nil
}

// ProcessState describes a launched application.
type ProcessState struct {
	Path    string
	Exited  bool
	Windows int
}

// Processes returns the state of every application launched so far.
func (p *Provider) Processes() []ProcessState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ProcessState, len(p.procs))
	for i, proc := range p.procs {
		out[i] = ProcessState{Path: proc.path, Exited: proc.exited, Windows: len(proc.windows)}
	}
	return out
}

// Focused returns the focused node, if any.
func (p *Provider) Focused() *Node {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.focused
}
