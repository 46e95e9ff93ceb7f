package automation

// Rect is a screen rectangle in pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ToggleState mirrors the tri-state toggle pattern.
type ToggleState int

const (
	ToggleOff ToggleState = iota
	ToggleOn
	ToggleIndeterminate
)

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
	ButtonXButton1
	ButtonXButton2
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case ButtonXButton1:
		return "back"
	case ButtonXButton2:
		return "forward"
	default:
		return "unknown"
	}
}

// Element is a node of the platform accessibility tree.
type Element interface {
	AutomationID() string
	ClassName() string
	Name() string
	ControlType() string
	FrameworkID() string
	RuntimeID() []int

	IsEnabled() bool
	IsOffscreen() bool
	IsAvailable() bool
	IsPassword() bool
	IsDialog() bool

	// BoundingRectangle reports false when the element exposes no bounds.
	BoundingRectangle() (Rect, bool)

	// Property looks up a raw accessibility property by name.
	Property(name string) (any, bool)

	// Parent returns nil for the desktop root.
	Parent() Element
	Children() ([]Element, error)

	WaitUntilClickable() error
	Click() error
	Focus() error
	// Enter types text into the element without clearing it.
	Enter(text string) error
	SetText(text string) error

	Patterns() Patterns
}

// Patterns exposes the optional control patterns of an element. Each probe
// reports whether the pattern is supported.
type Patterns interface {
	SelectionItem() (selected bool, ok bool)
	Toggle() (state ToggleState, ok bool)
	Text() (text string, ok bool)
	Value() (value string, ok bool)
	RangeValue() (value float64, ok bool)
}

// Window is a top-level element that can be titled and closed.
type Window interface {
	Element
	Title() string
	Close() error
}

// Application is a launched or attached process.
type Application interface {
	MainWindow() (Window, error)
	TopLevelWindows() ([]Window, error)
	HasExited() bool
	// Close terminates the process.
	Close() error
	// Release frees the automation handle without touching the process.
	Release() error
}

// Keyboard injects key events.
type Keyboard interface {
	Press(k Key) error
	Release(k Key) error
	Type(r rune) error
}

// Mouse injects pointer events.
type Mouse interface {
	MoveTo(x, y int) error
	Down(b Button) error
	Up(b Button) error
	Scroll(delta int) error
	HorizontalScroll(delta int) error
}

// Clipboard reads and writes the system clipboard. Text and Image return
// nil when the clipboard holds no content of that kind.
type Clipboard interface {
	SetText(text string) error
	Text() (*string, error)
	SetImage(data []byte) error
	Image() ([]byte, error)
}

// Screen captures the primary display.
type Screen interface {
	CapturePrimary() ([]byte, error)
}

// Provider is the platform automation capability surface.
type Provider interface {
	Launch(path string) (Application, error)
	Attach(windowHandle int64) (Application, error)
	Desktop() (Window, error)
	// TopLevelWindows lists every top-level window on the desktop.
	TopLevelWindows() ([]Window, error)

	Keyboard() Keyboard
	Mouse() Mouse
	Clipboard() Clipboard
	Screen() Screen

	// WaitUntilInputIsProcessed blocks until injected input has settled.
	WaitUntilInputIsProcessed()
	Close() error
}
