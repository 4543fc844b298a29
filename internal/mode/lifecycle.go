package mode

import "time"

// Lifecycle holds the state shared by every mode: whether it is active and
// whether its effect window is running.
//
// Invariants:
//   - effectRunning implies active and a non-zero effectStart.
//   - ending the effect always deactivates.
type Lifecycle struct {
	active         bool
	effectRunning  bool
	effectStart    time.Time
	effectDuration time.Duration
}

// NewLifecycle returns an inactive lifecycle. A non-positive duration selects
// DefaultEffectDuration.
func NewLifecycle(effectDuration time.Duration) Lifecycle {
	if effectDuration <= 0 {
		effectDuration = DefaultEffectDuration
	}
	return Lifecycle{effectDuration: effectDuration}
}

// Begin enters ActiveNormal with no effect running.
func (l *Lifecycle) Begin() {
	l.active = true
	l.effectRunning = false
	l.effectStart = time.Time{}
}

// Deactivate enters Inactive. Calling it while inactive is a no-op.
func (l *Lifecycle) Deactivate() {
	l.active = false
	l.effectRunning = false
	l.effectStart = time.Time{}
}

// IsActive reports whether the mode is selected and running.
func (l *Lifecycle) IsActive() bool {
	return l.active
}

// StartEffect opens the effect window at now. It returns false and does
// nothing when the mode is inactive. Starting again while an effect runs
// restarts the window.
func (l *Lifecycle) StartEffect(now time.Time) bool {
	if !l.active {
		return false
	}
	l.effectRunning = true
	l.effectStart = now
	return true
}

// ExpireEffect ends the effect and deactivates when the window has elapsed
// at now. It reports whether that happened.
func (l *Lifecycle) ExpireEffect(now time.Time) bool {
	if !l.effectRunning || now.Sub(l.effectStart) < l.effectDuration {
		return false
	}
	l.Deactivate()
	return true
}

// EffectRunning reports whether the effect window is open.
func (l *Lifecycle) EffectRunning() bool {
	return l.effectRunning
}

// EffectStart returns when the running effect began, or the zero time.
func (l *Lifecycle) EffectStart() time.Time {
	return l.effectStart
}

// EffectDuration returns the configured window length.
func (l *Lifecycle) EffectDuration() time.Duration {
	return l.effectDuration
}

// SetEffectDuration overrides the window length. Non-positive values are
// ignored.
func (l *Lifecycle) SetEffectDuration(d time.Duration) {
	if d > 0 {
		l.effectDuration = d
	}
}

// State returns the lifecycle state.
func (l *Lifecycle) State() State {
	switch {
	case l.effectRunning:
		return ActiveEffect
	case l.active:
		return ActiveNormal
	default:
		return Inactive
	}
}
