// Package sensor turns a noisy binary input into single-shot edge reports.
// Time is always injected via time.Time parameters; the package never sleeps.
package sensor

import (
	"fmt"
	"time"

	"github.com/sweeney/donation-box/internal/gpio"
)

// DefaultCooldown is the suppression window armed after every detected edge.
const DefaultCooldown = 300 * time.Millisecond

// EdgeState is the one-shot state of a single edge direction.
type EdgeState int

const (
	// EdgeArmed means no unconsumed edge is pending.
	EdgeArmed EdgeState = iota
	// EdgeReported means an edge was detected on the latest poll and has not
	// been consumed yet.
	EdgeReported
)

func (s EdgeState) String() string {
	if s == EdgeReported {
		return "REPORTED"
	}
	return "ARMED"
}

// Detector samples a gpio.Reader once per tick and reports debounced edges.
//
// A rising edge is the transition into the active ("object present") level;
// a falling edge is the transition back to idle. After either edge is
// detected, further transitions are ignored until the cooldown elapses. The
// cooldown is armed only by a detected edge, so chatter inside the window
// never extends it.
type Detector struct {
	reader   gpio.Reader
	cooldown time.Duration

	current       bool
	previous      bool
	cooldownUntil time.Time

	rising  EdgeState
	falling EdgeState
}

// NewDetector creates a detector reading from reader.
// A non-positive cooldown selects DefaultCooldown.
func NewDetector(reader gpio.Reader, cooldown time.Duration) *Detector {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Detector{
		reader:   reader,
		cooldown: cooldown,
	}
}

// Initialize records the current hardware level as both current and previous
// so a sensor that is already active at boot does not report an edge.
func (d *Detector) Initialize(now time.Time) error {
	level, err := d.reader.Read()
	if err != nil {
		return fmt.Errorf("initial sensor read: %w", err)
	}
	d.current = level
	d.previous = level
	d.rising = EdgeArmed
	d.falling = EdgeArmed
	d.cooldownUntil = now
	return nil
}

// Poll samples the input. It must be called exactly once per tick, before any
// edge queries for that tick. Reports not consumed since the previous poll
// are dropped. On a read error the previous level is kept and no edge is
// reported.
func (d *Detector) Poll(now time.Time) error {
	d.rising = EdgeArmed
	d.falling = EdgeArmed

	level, err := d.reader.Read()
	if err != nil {
		return fmt.Errorf("sensor read: %w", err)
	}
	d.current = level

	if d.current != d.previous && !now.Before(d.cooldownUntil) {
		if d.current {
			d.rising = EdgeReported
		} else {
			d.falling = EdgeReported
		}
		d.cooldownUntil = now.Add(d.cooldown)
	}

	d.previous = d.current
	return nil
}

// ConsumeRisingEdge reports whether the latest poll detected a rising edge.
// Reading it returns the state to armed, so a physical edge is reported once.
func (d *Detector) ConsumeRisingEdge() bool {
	if d.rising != EdgeReported {
		return false
	}
	d.rising = EdgeArmed
	return true
}

// ConsumeFallingEdge is the falling-edge counterpart of ConsumeRisingEdge.
func (d *Detector) ConsumeFallingEdge() bool {
	if d.falling != EdgeReported {
		return false
	}
	d.falling = EdgeArmed
	return true
}

// IsActive returns the level sampled by the latest poll. It ignores the
// cooldown and is not one-shot.
func (d *Detector) IsActive() bool {
	return d.current
}

// RisingState returns the one-shot state of the rising edge.
func (d *Detector) RisingState() EdgeState {
	return d.rising
}

// FallingState returns the one-shot state of the falling edge.
func (d *Detector) FallingState() EdgeState {
	return d.falling
}

// Cooldown returns the configured suppression window.
func (d *Detector) Cooldown() time.Duration {
	return d.cooldown
}

// CooldownRemaining returns how long edges stay suppressed after now.
func (d *Detector) CooldownRemaining(now time.Time) time.Duration {
	if rem := d.cooldownUntil.Sub(now); rem > 0 {
		return rem
	}
	return 0
}
