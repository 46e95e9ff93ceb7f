package virtual

import (
	"sync"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
)

// Clipboard is an in-memory clipboard holding either text or an image.
type Clipboard struct {
	mu    sync.Mutex
	text  *string
	image []byte
}

var _ automation.Clipboard = (*Clipboard)(nil)

// NewClipboard returns an empty clipboard.
func NewClipboard() *Clipboard {
	return &Clipboard{}
}

func (c *Clipboard) SetText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = &text
	c.image = nil
	return nil
}

func (c *Clipboard) Text() (*string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.text == nil {
		return nil, nil
	}
	t := *c.text
	return &t, nil
}

func (c *Clipboard) SetImage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.image = append([]byte(nil), data...)
	c.text = nil
	return nil
}

func (c *Clipboard) Image() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.image == nil {
		return nil, nil
	}
	return append([]byte(nil), c.image...), nil
}
