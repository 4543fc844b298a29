// Package led provides the LED strip output collaborator used by the modes.
// Colours are go-colorful values; brightness is applied when a frame is
// presented, the way addressable-strip libraries scale their output.
package led

import (
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultCount is the number of pixels on the stock strip.
const DefaultCount = 6

// Strip is an addressable LED strip. Only the currently active mode may call
// it; the controller never touches it.
type Strip interface {
	// Len returns the number of pixels.
	Len() int

	// SetPixel sets one pixel. Out-of-range indices are ignored.
	SetPixel(index int, c colorful.Color)

	// SetAll sets every pixel.
	SetAll(c colorful.Color)

	// SetBrightness sets the global brightness (0..255) applied at Present.
	SetBrightness(level uint8)

	// Clear sets every pixel to black.
	Clear()

	// Present flushes the buffer to the hardware.
	Present() error
}

var (
	White = colorful.Color{R: 1, G: 1, B: 1}
	Black = colorful.Color{}
)

// Gray returns a neutral colour with every channel at v (0..255).
func Gray(v uint8) colorful.Color {
	f := float64(v) / 255
	return colorful.Color{R: f, G: f, B: f}
}

// FadeToBlackBy dims c by amount/256, matching the familiar strip-library
// helper of the same name.
func FadeToBlackBy(c colorful.Color, amount uint8) colorful.Color {
	return c.BlendRgb(Black, float64(amount)/256).Clamped()
}

// Scale applies a 0..255 brightness to c.
func Scale(c colorful.Color, brightness uint8) colorful.Color {
	f := float64(brightness) / 255
	return colorful.Color{R: c.R * f, G: c.G * f, B: c.B * f}.Clamped()
}

// RGB24 packs c as 0x00RRGGBB.
func RGB24(c colorful.Color) uint32 {
	r, g, b := c.Clamped().RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
