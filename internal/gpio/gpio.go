// Package gpio provides digital input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "errors"

// Reader reads a single digital input.
type Reader interface {
	// Read returns the logical level of the input: true means the input is
	// in its active state ("object present" for the donation sensor).
	// Polarity is resolved by the implementation.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults (BCM numbering).
const (
	DefaultChip      = "gpiochip0"
	DefaultSensorPin = 17
)

// ErrNotSupported is returned by the hardware reader on platforms without a
// GPIO character device.
var ErrNotSupported = errors.New("gpio: not supported on this platform (requires Linux)")
