//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads one input line from actual hardware using the Linux GPIO
// character device.
type RealReader struct {
	chip      *gpiocdev.Chip
	line      *gpiocdev.Line
	activeLow bool
}

// NewRealReader requests pin on chip as an input.
// An active-low input is biased with a pull-up so the idle level is high and
// "object present" pulls it low; an active-high input gets a pull-down.
func NewRealReader(chipName string, pin int, activeLow bool) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, bias(activeLow))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pin %d: %w", pin, err)
	}

	return &RealReader{
		chip:      chip,
		line:      line,
		activeLow: activeLow,
	}, nil
}

func bias(activeLow bool) gpiocdev.LineReqOption {
	if activeLow {
		return gpiocdev.WithPullUp
	}
	return gpiocdev.WithPullDown
}

// Read returns the logical level, inverting the raw value for active-low wiring.
func (r *RealReader) Read() (bool, error) {
	raw, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin: %w", err)
	}
	if r.activeLow {
		return raw == 0, nil
	}
	return raw == 1, nil
}

// Close releases GPIO resources.
// The line is reconfigured as a pulled-down input first so external hardware
// does not hold it in an unexpected state during early boot.
func (r *RealReader) Close() error {
	var errs []error

	if r.line != nil {
		if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}
