package virtual

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
)

var (
	backgroundColor = color.RGBA{R: 0x1e, G: 0x3a, B: 0x5f, A: 0xff}
	windowColor     = color.RGBA{R: 0xf3, G: 0xf3, B: 0xf3, A: 0xff}
	borderColor     = color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}
)

type screen struct {
	p *Provider
}

// CapturePrimary renders the desktop background and top-level window
// frames as a PNG.
func (s screen) CapturePrimary() ([]byte, error) {
	s.p.mu.RLock()
	size := s.p.screen
	var frames []automation.Rect
	for _, w := range s.p.desktop.children {
		if w.bounds != nil && !w.offscreen {
			frames = append(frames, *w.bounds)
		}
	}
	s.p.mu.RUnlock()

	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: backgroundColor}, image.Point{}, draw.Src)

	for _, r := range frames {
		outer := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Intersect(img.Bounds())
		if outer.Empty() {
			continue
		}
		draw.Draw(img, outer, &image.Uniform{C: borderColor}, image.Point{}, draw.Src)
		inner := outer.Inset(1)
		if !inner.Empty() {
			draw.Draw(img, inner, &image.Uniform{C: windowColor}, image.Point{}, draw.Src)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}
