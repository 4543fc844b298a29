// Package mode defines the lifecycle contract every animation mode obeys.
//
// A mode moves through four states:
//
//	Inactive --Activate--> ActiveNormal --OnTrigger--> ActiveEffect --duration elapsed--> Inactive
//
// There is no edge from ActiveEffect back to ActiveNormal: finishing an effect
// always yields the mode's turn so the controller can rotate to the next one.
// Time is always injected via time.Time parameters.
package mode

import "time"

// DefaultEffectDuration is used when a mode does not configure its own.
const DefaultEffectDuration = 3 * time.Second

// Info is the read-only metadata of a mode. It has no behavioural effect.
type Info struct {
	Name        string
	Description string
	Author      string
	Version     string
}

// Mode is the capability set the controller drives. The controller never
// sees a concrete mode type.
type Mode interface {
	Info() Info

	// Activate resets per-activation state and makes the mode active.
	// It may render an initial frame.
	Activate(now time.Time)

	// Deactivate stops the mode. It is idempotent and also clears any running
	// effect. After it returns the mode must not touch the LED strip.
	Deactivate()

	IsActive() bool

	// OnTrigger starts the timed effect window.
	OnTrigger(now time.Time)

	// Tick ends an expired effect (which deactivates the mode) and renders.
	// Pacing must come from elapsed time, not from counting ticks.
	Tick(now time.Time)
}

// State is the externally observable lifecycle state of a mode.
type State int

const (
	Inactive State = iota
	ActiveNormal
	ActiveEffect
)

func (s State) String() string {
	switch s {
	case ActiveNormal:
		return "ACTIVE_NORMAL"
	case ActiveEffect:
		return "ACTIVE_EFFECT"
	default:
		return "INACTIVE"
	}
}
