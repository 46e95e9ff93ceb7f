package virtual

import (
	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
)

// EventKind names a recorded input or lifecycle event.
type EventKind string

const (
	EventKeyDown     EventKind = "key_down"
	EventKeyUp       EventKind = "key_up"
	EventType        EventKind = "type"
	EventMove        EventKind = "move"
	EventButtonDown  EventKind = "button_down"
	EventButtonUp    EventKind = "button_up"
	EventScroll      EventKind = "scroll"
	EventHScroll     EventKind = "hscroll"
	EventSettle      EventKind = "settle"
	EventClick       EventKind = "click"
	EventFocus       EventKind = "focus"
	EventLaunch      EventKind = "launch"
	EventExit        EventKind = "exit"
	EventCloseWindow EventKind = "close_window"
)

// Event is one recorded interaction with the virtual desktop.
type Event struct {
	Kind   EventKind
	Key    automation.Key
	Rune   rune
	X, Y   int
	Button automation.Button
	Delta  int
	Target string
}

// record appends an event. Callers hold p.mu.
func (p *Provider) record(e Event) {
	p.events = append(p.events, e)
}

// Events returns a copy of the recorded events.
func (p *Provider) Events() []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// InputEvents returns recorded events without settles or lifecycle noise.
func (p *Provider) InputEvents() []Event {
	var out []Event
	for _, e := range p.Events() {
		switch e.Kind {
		case EventSettle, EventLaunch, EventExit, EventFocus, EventClick, EventCloseWindow:
			continue
		}
		out = append(out, e)
	}
	return out
}

// ResetEvents clears the event log.
func (p *Provider) ResetEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.settles = 0
}

// Settles returns how many times input was synchronized.
func (p *Provider) Settles() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settles
}

// Pointer returns the last pointer position.
func (p *Provider) Pointer() (x, y int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mouse.x, p.mouse.y
}

type keyboard struct {
	p    *Provider
	fail func(Event) error
}

func (k *keyboard) emit(e Event) error {
	k.p.mu.Lock()
	defer k.p.mu.Unlock()
	if k.fail != nil {
		if err := k.fail(e); err != nil {
			return err
		}
	}
	k.p.record(e)
	return nil
}

func (k *keyboard) Press(key automation.Key) error {
	return k.emit(Event{Kind: EventKeyDown, Key: key})
}

func (k *keyboard) Release(key automation.Key) error {
	return k.emit(Event{Kind: EventKeyUp, Key: key})
}

// Type records the rune and appends it to the focused element's text.
func (k *keyboard) Type(r rune) error {
	if err := k.emit(Event{Kind: EventType, Rune: r}); err != nil {
		return err
	}
	k.p.mu.Lock()
	defer k.p.mu.Unlock()
	if f := k.p.focused; f != nil && (f.value != nil || f.text != nil) {
		_ = f.appendText(string(r))
	}
	return nil
}

// FailKeyboard makes keyboard events fail when fn returns an error. A nil
// fn restores normal behavior.
func (p *Provider) FailKeyboard(fn func(Event) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keyboard.fail = fn
}

type mouse struct {
	p    *Provider
	x, y int
}

func (m *mouse) emit(e Event) error {
	m.p.mu.Lock()
	defer m.p.mu.Unlock()
	if e.Kind == EventMove {
		m.x, m.y = e.X, e.Y
	} else {
		e.X, e.Y = m.x, m.y
	}
	m.p.record(e)
	return nil
}

func (m *mouse) MoveTo(x, y int) error {
	return m.emit(Event{Kind: EventMove, X: x, Y: y})
}

func (m *mouse) Down(b automation.Button) error {
	return m.emit(Event{Kind: EventButtonDown, Button: b})
}

func (m *mouse) Up(b automation.Button) error {
	return m.emit(Event{Kind: EventButtonUp, Button: b})
}

func (m *mouse) Scroll(delta int) error {
	return m.emit(Event{Kind: EventScroll, Delta: delta})
}

func (m *mouse) HorizontalScroll(delta int) error {
	return m.emit(Event{Kind: EventHScroll, Delta: delta})
}
