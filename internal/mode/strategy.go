package mode

import "time"

// Animation is the rendering half of a mode. It never manages lifecycle
// state; Strategy does that and only calls into it while active.
type Animation interface {
	// Reset runs once per activation.
	Reset(now time.Time)

	// Trigger runs when an effect window opens, e.g. to speed up or play a sound.
	Trigger(now time.Time)

	// Frame runs once per tick while active. effect is true inside the window.
	Frame(now time.Time, effect bool)

	// EffectEnded runs after the window closed and the mode was deactivated.
	// It must only restore internal state, never render.
	EffectEnded()
}

// Strategy adapts an Animation into a Mode. It performs the expiry check on
// every tick so no animation can forget it, and it never calls into the
// animation while inactive.
type Strategy struct {
	info      Info
	lifecycle Lifecycle
	anim      Animation
}

// NewStrategy wraps anim. A non-positive effectDuration selects
// DefaultEffectDuration.
func NewStrategy(info Info, effectDuration time.Duration, anim Animation) *Strategy {
	return &Strategy{
		info:      info,
		lifecycle: NewLifecycle(effectDuration),
		anim:      anim,
	}
}

// Info returns the mode metadata.
func (s *Strategy) Info() Info {
	return s.info
}

// Activate begins a new activation cycle.
func (s *Strategy) Activate(now time.Time) {
	s.lifecycle.Begin()
	s.anim.Reset(now)
}

// Deactivate stops the mode.
func (s *Strategy) Deactivate() {
	s.lifecycle.Deactivate()
}

// IsActive reports whether the mode is running.
func (s *Strategy) IsActive() bool {
	return s.lifecycle.IsActive()
}

// OnTrigger opens the effect window.
func (s *Strategy) OnTrigger(now time.Time) {
	if s.lifecycle.StartEffect(now) {
		s.anim.Trigger(now)
	}
}

// Tick expires the effect or renders a frame.
func (s *Strategy) Tick(now time.Time) {
	if !s.lifecycle.IsActive() {
		return
	}
	if s.lifecycle.ExpireEffect(now) {
		s.anim.EffectEnded()
		return
	}
	s.anim.Frame(now, s.lifecycle.EffectRunning())
}

// State returns the lifecycle state.
func (s *Strategy) State() State {
	return s.lifecycle.State()
}

// EffectDuration returns the configured effect window.
func (s *Strategy) EffectDuration() time.Duration {
	return s.lifecycle.EffectDuration()
}

// SetEffectDuration overrides the effect window.
func (s *Strategy) SetEffectDuration(d time.Duration) {
	s.lifecycle.SetEffectDuration(d)
}
