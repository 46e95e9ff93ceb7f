package virtual

import (
	"fmt"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
)

// process is a running virtual application shared by every App handle
// launched or attached to it.
type process struct {
	path    string
	windows []*Node
	exited  bool
}

// terminate closes every window of proc. Callers hold p.mu.
func (p *Provider) terminate(proc *process) {
	if proc.exited {
		return
	}
	for _, w := range proc.windows {
		p.detach(w)
	}
	proc.windows = nil
	proc.exited = true
	p.record(Event{Kind: EventExit, Target: proc.path})
}

// App is an automation handle to a virtual process.
type App struct {
	p        *Provider
	proc     *process
	released bool
}

var _ automation.Application = (*App)(nil)

func (a *App) MainWindow() (automation.Window, error) {
	a.p.mu.RLock()
	defer a.p.mu.RUnlock()
	if a.proc.exited || len(a.proc.windows) == 0 {
		return nil, fmt.Errorf("application %q has no open windows", a.proc.path)
	}
	return a.proc.windows[0], nil
}

func (a *App) TopLevelWindows() ([]automation.Window, error) {
	a.p.mu.RLock()
	defer a.p.mu.RUnlock()
	out := make([]automation.Window, len(a.proc.windows))
	for i, w := range a.proc.windows {
		out[i] = w
	}
	return out, nil
}

func (a *App) HasExited() bool {
	a.p.mu.RLock()
	defer a.p.mu.RUnlock()
	return a.proc.exited
}

func (a *App) Close() error {
	a.p.mu.Lock()
	defer a.p.mu.Unlock()
	if a.proc.exited {
		return fmt.Errorf("application %q has already exited", a.proc.path)
	}
	a.p.terminate(a.proc)
	return nil
}

func (a *App) Release() error {
	a.p.mu.Lock()
	defer a.p.mu.Unlock()
	a.released = true
	return nil
}

// Released reports whether Release has been called on this handle.
func (a *App) Released() bool {
	a.p.mu.RLock()
	defer a.p.mu.RUnlock()
	return a.released
}
