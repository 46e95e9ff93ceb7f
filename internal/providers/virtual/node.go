package virtual

import (
	"fmt"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
)

// Node is one element of the in-memory desktop. It implements
// automation.Window so any node can serve as an active window.
type Node struct {
	p      *Provider
	parent *Node
	proc   *process

	controlType  string
	automationID string
	className    string
	name         string
	frameworkID  string
	runtimeID    []int
	handle       int64

	enabled   bool
	offscreen bool
	password  bool
	dialog    bool
	bounds    *automation.Rect
	props     map[string]string

	text       *string
	value      *string
	rangeValue *float64
	toggle     *automation.ToggleState
	selected   *bool

	children []*Node
}

var (
	_ automation.Window   = (*Node)(nil)
	_ automation.Patterns = (*Node)(nil)
)

func (n *Node) AutomationID() string { return n.automationID }
func (n *Node) ClassName() string    { return n.className }
func (n *Node) ControlType() string  { return n.controlType }
func (n *Node) FrameworkID() string  { return n.frameworkID }
func (n *Node) IsPassword() bool     { return n.password }
func (n *Node) IsDialog() bool       { return n.dialog }

// Handle returns the native window handle, zero for non-windows.
func (n *Node) Handle() int64 { return n.handle }

func (n *Node) Name() string {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	return n.name
}

func (n *Node) RuntimeID() []int {
	out := make([]int, len(n.runtimeID))
	copy(out, n.runtimeID)
	return out
}

func (n *Node) IsEnabled() bool {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	return n.enabled
}

func (n *Node) IsOffscreen() bool {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	return n.offscreen
}

// IsAvailable reports whether the node is still attached to the desktop.
func (n *Node) IsAvailable() bool {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	return n.attached()
}

func (n *Node) attached() bool {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur == n.p.desktop
}

func (n *Node) BoundingRectangle() (automation.Rect, bool) {
	if n.bounds == nil {
		return automation.Rect{}, false
	}
	return *n.bounds, true
}

func (n *Node) Property(name string) (any, bool) {
	v, ok := n.props[name]
	return v, ok
}

func (n *Node) Parent() automation.Element {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() ([]automation.Element, error) {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	out := make([]automation.Element, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}

func (n *Node) WaitUntilClickable() error {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	if !n.enabled || n.offscreen || !n.attached() {
		return fmt.Errorf("element %q is not clickable", n.name)
	}
	return nil
}

// Click toggles toggleable nodes and selects selectable ones, deselecting
// their selectable siblings.
func (n *Node) Click() error {
	n.p.mu.Lock()
	defer n.p.mu.Unlock()

	n.p.record(Event{Kind: EventClick, Target: n.name})
	if n.toggle != nil {
		next := automation.ToggleOn
		if *n.toggle == automation.ToggleOn {
			next = automation.ToggleOff
		}
		n.toggle = &next
	}
	if n.selected != nil {
		if n.parent != nil {
			for _, sib := range n.parent.children {
				if sib.selected != nil {
					off := false
					sib.selected = &off
				}
			}
		}
		on := true
		n.selected = &on
	}
	return nil
}

func (n *Node) Focus() error {
	n.p.mu.Lock()
	defer n.p.mu.Unlock()
	n.p.focused = n
	n.p.record(Event{Kind: EventFocus, Target: n.name})
	return nil
}

func (n *Node) Enter(text string) error {
	n.p.mu.Lock()
	defer n.p.mu.Unlock()
	return n.appendText(text)
}

// appendText adds text to the value or text pattern. Callers hold p.mu.
func (n *Node) appendText(text string) error {
	switch {
	case n.value != nil:
		v := *n.value + text
		n.value = &v
	case n.text != nil:
		v := *n.text + text
		n.text = &v
	default:
		return fmt.Errorf("element %q does not accept text", n.name)
	}
	return nil
}

func (n *Node) SetText(text string) error {
	n.p.mu.Lock()
	defer n.p.mu.Unlock()
	switch {
	case n.value != nil:
		n.value = &text
	case n.text != nil:
		n.text = &text
	default:
		return fmt.Errorf("element %q does not accept text", n.name)
	}
	return nil
}

func (n *Node) Patterns() automation.Patterns { return n }

func (n *Node) SelectionItem() (bool, bool) {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	if n.selected == nil {
		return false, false
	}
	return *n.selected, true
}

func (n *Node) Toggle() (automation.ToggleState, bool) {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	if n.toggle == nil {
		return automation.ToggleOff, false
	}
	return *n.toggle, true
}

func (n *Node) Text() (string, bool) {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	if n.text == nil {
		return "", false
	}
	return *n.text, true
}

func (n *Node) Value() (string, bool) {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	if n.value == nil {
		return "", false
	}
	return *n.value, true
}

func (n *Node) RangeValue() (float64, bool) {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	if n.rangeValue == nil {
		return 0, false
	}
	return *n.rangeValue, true
}

// Title is the window name.
func (n *Node) Title() string {
	return n.Name()
}

// Close detaches the window from the desktop. An application whose last
// window closes is marked exited.
func (n *Node) Close() error {
	n.p.mu.Lock()
	defer n.p.mu.Unlock()

	if n == n.p.desktop {
		return fmt.Errorf("the desktop cannot be closed")
	}
	if !n.attached() {
		return fmt.Errorf("window %q is already closed", n.name)
	}
	n.p.detach(n)
	if n.proc != nil {
		n.proc.windows = removeNode(n.proc.windows, n)
		if len(n.proc.windows) == 0 {
			n.proc.exited = true
		}
	}
	n.p.record(Event{Kind: EventCloseWindow, Target: n.name})
	return nil
}

func removeNode(list []*Node, target *Node) []*Node {
	for i, c := range list {
		if c == target {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
