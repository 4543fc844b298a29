package led

import (
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

// Buffer is an in-memory Strip. The hardware and terminal strips embed it;
// tests use it directly to inspect frames.
//
// The mutex only guards readers on other goroutines (the terminal renderer);
// the control loop is the single writer.
type Buffer struct {
	mu         sync.RWMutex
	pixels     []colorful.Color
	brightness uint8

	// Presents counts calls to Present.
	Presents int
	// Writes counts pixel mutations (SetPixel, SetAll, Clear, SetBrightness).
	Writes int
}

// NewBuffer creates a strip of n black pixels at full brightness.
func NewBuffer(n int) *Buffer {
	if n <= 0 {
		n = DefaultCount
	}
	return &Buffer{
		pixels:     make([]colorful.Color, n),
		brightness: 255,
	}
}

// Len returns the number of pixels.
func (b *Buffer) Len() int {
	return len(b.pixels)
}

// SetPixel sets one pixel; out-of-range indices are ignored.
func (b *Buffer) SetPixel(index int, c colorful.Color) {
	if index < 0 || index >= len(b.pixels) {
		return
	}
	b.mu.Lock()
	b.pixels[index] = c
	b.Writes++
	b.mu.Unlock()
}

// SetAll sets every pixel.
func (b *Buffer) SetAll(c colorful.Color) {
	b.mu.Lock()
	for i := range b.pixels {
		b.pixels[i] = c
	}
	b.Writes++
	b.mu.Unlock()
}

// SetBrightness sets the global brightness.
func (b *Buffer) SetBrightness(level uint8) {
	b.mu.Lock()
	b.brightness = level
	b.Writes++
	b.mu.Unlock()
}

// Clear sets every pixel to black.
func (b *Buffer) Clear() {
	b.SetAll(Black)
}

// Present counts the flush; a Buffer has no hardware.
func (b *Buffer) Present() error {
	b.mu.Lock()
	b.Presents++
	b.mu.Unlock()
	return nil
}

// Pixel returns the unscaled colour of one pixel.
func (b *Buffer) Pixel(index int) colorful.Color {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if index < 0 || index >= len(b.pixels) {
		return Black
	}
	return b.pixels[index]
}

// Brightness returns the global brightness.
func (b *Buffer) Brightness() uint8 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.brightness
}

// Frame returns a copy of the pixels with brightness applied.
func (b *Buffer) Frame() []colorful.Color {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]colorful.Color, len(b.pixels))
	for i, c := range b.pixels {
		out[i] = Scale(c, b.brightness)
	}
	return out
}

// Lit returns the indices of pixels that are not black.
func (b *Buffer) Lit() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var lit []int
	for i, c := range b.pixels {
		if RGB24(c) != 0 {
			lit = append(lit, i)
		}
	}
	return lit
}
