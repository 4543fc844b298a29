//go:build !(linux && ws281x)

package led

import "errors"

// ErrNoDriver is returned when the binary was built without the ws281x tag.
var ErrNoDriver = errors.New("led: ws281x driver not built (build with -tags ws281x on linux)")

// WS281x is unavailable in this build.
type WS281x struct {
	*Buffer
}

// NewWS281x returns ErrNoDriver.
func NewWS281x(gpioPin, count int, brightness uint8) (*WS281x, error) {
	return nil, ErrNoDriver
}

// Close is a no-op.
func (s *WS281x) Close() error {
	return nil
}
