package automation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Clipboard content types.
const (
	ContentPlainText = "plaintext"
	ContentImage     = "image"
)

const scriptPrefix = "windows: "

// ClickArgs configures the click gesture.
type ClickArgs struct {
	X                 int    `json:"x"`
	Y                 int    `json:"y"`
	Button            string `json:"button"`
	Times             int    `json:"times"`
	InterClickDelayMs int    `json:"interClickDelayMs"`
}

// MoveArgs configures the hover and clickAndDrag gestures.
type MoveArgs struct {
	StartX int `json:"startX"`
	StartY int `json:"startY"`
	EndX   int `json:"endX"`
	EndY   int `json:"endY"`
}

// ScrollArgs configures the scroll gesture. Exactly one delta is set.
type ScrollArgs struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	DeltaX *int `json:"deltaX"`
	DeltaY *int `json:"deltaY"`
}

// ClipboardArgs configures setClipboard and getClipboard.
type ClipboardArgs struct {
	ContentType   string  `json:"contentType"`
	B64Content    *string `json:"b64Content"`
	Base64Content *string `json:"base64Content"`
}

func (a ClipboardArgs) content() *string {
	if a.B64Content != nil {
		return a.B64Content
	}
	return a.Base64Content
}

var buttons = map[string]Button{
	"left":    ButtonLeft,
	"right":   ButtonRight,
	"middle":  ButtonMiddle,
	"back":    ButtonXButton1,
	"forward": ButtonXButton2,
}

type scriptFunc func(d *Dispatcher, ctx context.Context, raw json.RawMessage) (any, error)

var scriptTable = map[string]scriptFunc{
	"click":        (*Dispatcher).click,
	"clickAndDrag": (*Dispatcher).clickAndDrag,
	"hover":        (*Dispatcher).hover,
	"scroll":       (*Dispatcher).scroll,
	"setClipboard": (*Dispatcher).setClipboard,
	"getClipboard": (*Dispatcher).getClipboard,
	"powerShell":   (*Dispatcher).powerShell,
}

// ScriptNames lists the supported script names in their bare form.
func ScriptNames() []string {
	return []string{"click", "clickAndDrag", "hover", "scroll", "setClipboard", "getClipboard", "powerShell"}
}

// DispatcherConfig controls the shell path of the dispatcher.
type DispatcherConfig struct {
	AllowShell  bool
	ShellBinary string
	// TempDir holds script files; empty means the OS default.
	TempDir string
}

// Dispatcher maps script names to gesture, clipboard and shell handlers.
// It holds no per-session state and is shared by all sessions.
type Dispatcher struct {
	provider Provider
	shell    *shellExecutor
	logger   *zap.Logger
	sleep    func(time.Duration)
}

// NewDispatcher creates a dispatcher over the given provider.
func NewDispatcher(provider Provider, runner ShellRunner, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ShellBinary == "" {
		cfg.ShellBinary = "powershell.exe"
	}
	return &Dispatcher{
		provider: provider,
		shell: &shellExecutor{
			runner:  runner,
			binary:  cfg.ShellBinary,
			enabled: cfg.AllowShell && runner != nil,
			tempDir: cfg.TempDir,
			logger:  logger,
		},
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Execute runs the named script with the first element of args as its
// argument object.
func (d *Dispatcher) Execute(ctx context.Context, name string, args []json.RawMessage) (any, error) {
	fn, ok := scriptTable[strings.TrimPrefix(name, scriptPrefix)]
	if !ok {
		return nil, notSupported("Script '%s' is not supported. Supported scripts: %s",
			name, strings.Join(ScriptNames(), ", "))
	}
	if len(args) == 0 {
		return nil, validation("Gesture request body does not contain any data")
	}
	return fn(d, ctx, args[0])
}

func decodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return validation("Gesture request body does not contain any data")
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		return &Error{Kind: KindValidation, Msg: "malformed script arguments", Err: err}
	}
	return nil
}

func (d *Dispatcher) settle() {
	d.provider.WaitUntilInputIsProcessed()
}

func (d *Dispatcher) moveTo(x, y int) error {
	if err := d.provider.Mouse().MoveTo(x, y); err != nil {
		return err
	}
	d.settle()
	return nil
}

func (d *Dispatcher) click(_ context.Context, raw json.RawMessage) (any, error) {
	args := ClickArgs{Button: "left", Times: 1, InterClickDelayMs: 10}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	button, ok := buttons[strings.ToLower(args.Button)]
	if !ok {
		return nil, validation("mouse button '%s' is not supported", args.Button)
	}
	if args.Times < 0 || args.InterClickDelayMs < 0 {
		return nil, validation("times and interClickDelayMs must not be negative")
	}

	d.logger.Debug("Click gesture",
		zap.Int("x", args.X), zap.Int("y", args.Y),
		zap.Stringer("button", button), zap.Int("times", args.Times))

	if err := d.moveTo(args.X, args.Y); err != nil {
		return nil, err
	}
	mouse := d.provider.Mouse()
	delay := time.Duration(args.InterClickDelayMs) * time.Millisecond
	for i := 0; i < args.Times; i++ {
		if err := mouse.Down(button); err != nil {
			return nil, err
		}
		if err := mouse.Up(button); err != nil {
			return nil, err
		}
		d.settle()
		if i < args.Times-1 && delay > 0 {
			d.sleep(delay)
		}
	}
	return nil, nil
}

func (d *Dispatcher) clickAndDrag(_ context.Context, raw json.RawMessage) (any, error) {
	var args MoveArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	d.logger.Debug("Drag and drop gesture",
		zap.Int("start_x", args.StartX), zap.Int("start_y", args.StartY),
		zap.Int("end_x", args.EndX), zap.Int("end_y", args.EndY))

	mouse := d.provider.Mouse()
	if err := d.moveTo(args.StartX, args.StartY); err != nil {
		return nil, err
	}
	if err := mouse.Down(ButtonLeft); err != nil {
		return nil, err
	}
	d.settle()
	if err := d.moveTo(args.EndX, args.EndY); err != nil {
		_ = mouse.Up(ButtonLeft)
		return nil, err
	}
	if err := mouse.Up(ButtonLeft); err != nil {
		return nil, err
	}
	d.settle()
	return nil, nil
}

func (d *Dispatcher) hover(_ context.Context, raw json.RawMessage) (any, error) {
	var args MoveArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	d.logger.Debug("Hover gesture", zap.Int("x", args.EndX), zap.Int("y", args.EndY))
	return nil, d.moveTo(args.EndX, args.EndY)
}

func (d *Dispatcher) scroll(_ context.Context, raw json.RawMessage) (any, error) {
	var args ScrollArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.DeltaX == nil && args.DeltaY == nil {
		return nil, validation("Body parameter deltaX or deltaY must be specified")
	}
	if args.DeltaX != nil && args.DeltaY != nil {
		return nil, validation("Only one body parameter deltaX or deltaY can be specified")
	}

	if err := d.moveTo(args.X, args.Y); err != nil {
		return nil, err
	}
	mouse := d.provider.Mouse()
	var err error
	if args.DeltaX != nil {
		d.logger.Debug("Horizontal scroll gesture", zap.Int("delta", *args.DeltaX))
		err = mouse.HorizontalScroll(*args.DeltaX)
	} else {
		d.logger.Debug("Vertical scroll gesture", zap.Int("delta", *args.DeltaY))
		err = mouse.Scroll(*args.DeltaY)
	}
	if err != nil {
		return nil, err
	}
	d.settle()
	return nil, nil
}

func (d *Dispatcher) setClipboard(_ context.Context, raw json.RawMessage) (any, error) {
	var args ClipboardArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	clip := d.provider.Clipboard()
	content := args.content()

	switch args.ContentType {
	case ContentPlainText:
		text := ""
		if content != nil {
			text = *content
		}
		return nil, clip.SetText(text)
	case ContentImage:
		if content == nil {
			return nil, validation("Body parameter b64Content is required for image content")
		}
		data, err := base64.StdEncoding.DecodeString(*content)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Msg: "clipboard content is not valid base64", Err: err}
		}
		mt := mimetype.Detect(data)
		if !strings.HasPrefix(mt.String(), "image/") {
			return nil, validation("clipboard content is %s, not an image", mt.String())
		}
		return nil, clip.SetImage(data)
	default:
		return nil, validation("Content type '%s' is not supported; use plaintext or image", args.ContentType)
	}
}

func (d *Dispatcher) getClipboard(_ context.Context, raw json.RawMessage) (any, error) {
	var args ClipboardArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	clip := d.provider.Clipboard()

	switch args.ContentType {
	case ContentPlainText:
		text, err := clip.Text()
		if err != nil || text == nil {
			return nil, err
		}
		return *text, nil
	case ContentImage:
		data, err := clip.Image()
		if err != nil || data == nil {
			return nil, err
		}
		return base64.StdEncoding.EncodeToString(data), nil
	default:
		return nil, validation("Content type '%s' is not supported; use plaintext or image", args.ContentType)
	}
}

func (d *Dispatcher) powerShell(ctx context.Context, raw json.RawMessage) (any, error) {
	if !d.shell.enabled {
		return nil, validation("shell execution is disabled; start the server with ALLOW_SHELL=true")
	}
	var args ShellArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return d.shell.execute(ctx, args)
}
