//go:build linux && ws281x

package led

import (
	"fmt"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
)

// WS281x drives a WS2812B strip through the rpi_ws281x library.
// Building it requires cgo, libws2811 and the ws281x build tag.
type WS281x struct {
	*Buffer
	dev *ws2811.WS2811
}

// NewWS281x initialises a strip of count pixels on gpioPin. brightness is the
// hardware ceiling; SetBrightness scales below it.
func NewWS281x(gpioPin, count int, brightness uint8) (*WS281x, error) {
	opt := ws2811.DefaultOptions
	opt.Channels[0].GpioPin = gpioPin
	opt.Channels[0].LedCount = count
	opt.Channels[0].Brightness = int(brightness)

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, fmt.Errorf("ws281x: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("ws281x init: %w", err)
	}

	return &WS281x{Buffer: NewBuffer(count), dev: dev}, nil
}

// Present copies the scaled frame to the device and renders it.
func (s *WS281x) Present() error {
	leds := s.dev.Leds(0)
	for i, c := range s.Buffer.Frame() {
		if i < len(leds) {
			leds[i] = RGB24(c)
		}
	}
	s.Buffer.Present()
	if err := s.dev.Render(); err != nil {
		return fmt.Errorf("ws281x render: %w", err)
	}
	return nil
}

// Close blanks the strip and releases the device.
func (s *WS281x) Close() error {
	s.Buffer.Clear()
	err := s.Present()
	s.dev.Fini()
	return err
}
