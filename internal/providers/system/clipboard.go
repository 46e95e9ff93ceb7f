package system

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
)

// ErrImageUnsupported is returned for image content, which the host
// clipboard integration cannot carry.
var ErrImageUnsupported = errors.New("image clipboard content is not supported on this host")

// Clipboard is the host clipboard, text only.
type Clipboard struct{}

var _ automation.Clipboard = Clipboard{}

// NewClipboard returns the host clipboard, or an error when no clipboard
// utility is available.
func NewClipboard() (Clipboard, error) {
	if clipboard.Unsupported {
		return Clipboard{}, errors.New("no clipboard utility available on this host")
	}
	return Clipboard{}, nil
}

func (Clipboard) SetText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Text returns nil when the clipboard is empty.
func (Clipboard) Text() (*string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read clipboard: %w", err)
	}
	if text == "" {
		return nil, nil
	}
	return &text, nil
}

func (Clipboard) SetImage([]byte) error {
	return ErrImageUnsupported
}

func (Clipboard) Image() ([]byte, error) {
	return nil, ErrImageUnsupported
}
