// Package controller owns the mode registry and drives one control-loop tick
// at a time: poll the sensor, forward the trigger, tick or rotate modes.
//
// The controller is not safe for concurrent use. It is driven by a single
// loop; other goroutines reach it through that loop.
package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/donation-box/internal/event"
	"github.com/sweeney/donation-box/internal/mode"
)

// MaxModes is the default registry capacity.
const MaxModes = 10

// NoMode is returned by CurrentModeName when nothing is registered.
const NoMode = "none"

var (
	ErrRegistryFull = errors.New("mode registry full")
	ErrNoModes      = errors.New("no modes registered")
	ErrInvalidIndex = errors.New("invalid mode index")
	ErrNilMode      = errors.New("nil mode")
)

// EdgeSource is the part of the sensor detector the controller uses.
type EdgeSource interface {
	Poll(now time.Time) error
	ConsumeRisingEdge() bool
}

// Result describes what happened during one Tick.
type Result struct {
	Triggered  bool              // a rising edge was forwarded this tick
	Donation   *event.Donation   // set when Triggered
	Transition *event.ModeChange // set when the controller rotated
	Heartbeat  *event.Heartbeat  // set when a heartbeat was emitted
}

// Controller rotates through registered modes.
type Controller struct {
	detector EdgeSource
	sink     event.Sink
	log      zerolog.Logger

	modes    []mode.Mode
	capacity int
	current  int
	started  bool

	heartbeat     time.Duration
	startTime     time.Time
	lastHeartbeat time.Time
	counts        event.Counts
}

// Option configures a Controller.
type Option func(*Controller)

// WithTelemetry sets the sink that receives donation, mode-change and
// heartbeat notifications.
func WithTelemetry(sink event.Sink) Option {
	return func(c *Controller) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithHeartbeat sets the liveness interval. Zero disables heartbeats.
func WithHeartbeat(interval time.Duration) Option {
	return func(c *Controller) { c.heartbeat = interval }
}

// WithCapacity overrides MaxModes.
func WithCapacity(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New creates a controller that polls detector once per Tick.
func New(detector EdgeSource, opts ...Option) *Controller {
	c := &Controller{
		detector: detector,
		sink:     event.Discard,
		log:      log.Logger,
		capacity: MaxModes,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "controller").Logger()
	return c
}

// Register appends m to the rotation. Registration order is rotation order.
// A full registry rejects m and leaves the registry unchanged.
func (c *Controller) Register(m mode.Mode) error {
	if m == nil {
		c.log.Error().Err(ErrNilMode).Msg("register rejected")
		return ErrNilMode
	}
	info := m.Info()
	if len(c.modes) >= c.capacity {
		c.log.Error().Err(ErrRegistryFull).Str("mode", info.Name).Int("capacity", c.capacity).Msg("register rejected")
		return fmt.Errorf("register %q: %w", info.Name, ErrRegistryFull)
	}
	c.modes = append(c.modes, m)
	c.log.Debug().Str("mode", info.Name).Int("index", len(c.modes)-1).Msg("mode registered")
	return nil
}

// Start activates the first registered mode. With an empty registry it logs a
// warning, returns ErrNoModes and the controller stays idle; Start may be
// called again after registering.
func (c *Controller) Start(now time.Time) error {
	if len(c.modes) == 0 {
		c.log.Warn().Msg("no modes registered; controller idle")
		return ErrNoModes
	}
	c.startTime = now
	c.lastHeartbeat = now
	c.current = 0
	c.started = true
	c.activate(0, NoMode, event.ReasonStart, now)
	c.log.Info().Int("modes", len(c.modes)).Msg("controller started")
	return nil
}

// Tick runs one control-loop iteration:
//  1. poll the sensor;
//  2. on a rising edge, forward the trigger to the current mode;
//  3. tick the current mode if it is active;
//  4. otherwise rotate to the next mode and activate it.
//
// A trigger that lands on a mode which already yielded is delivered to the
// mode that replaces it, so a donation is never dropped; rotation still
// happens at most once per tick.
func (c *Controller) Tick(now time.Time) Result {
	var res Result
	if !c.started {
		return res
	}

	if err := c.detector.Poll(now); err != nil {
		c.log.Warn().Err(err).Msg("sensor poll failed")
	}

	rotated := false
	if c.detector.ConsumeRisingEdge() {
		if !c.modes[c.current].IsActive() {
			res.Transition = c.advance(now)
			rotated = true
		}
		res.Triggered = true
		res.Donation = c.trigger(now)
	}

	cur := c.modes[c.current]
	if cur.IsActive() {
		cur.Tick(now)
	} else if !rotated {
		res.Transition = c.advance(now)
	}

	res.Heartbeat = c.checkHeartbeat(now)
	return res
}

func (c *Controller) trigger(now time.Time) *event.Donation {
	m := c.modes[c.current]
	name := m.Info().Name
	c.log.Info().Str("mode", name).Msg("donation detected")
	m.OnTrigger(now)
	c.counts.Donations++

	e := event.Donation{Timestamp: now, Mode: name, Amount: 1}
	if err := c.sink.Donation(e); err != nil {
		c.log.Warn().Err(err).Msg("donation publish failed")
	}
	return &e
}

func (c *Controller) advance(now time.Time) *event.ModeChange {
	from := c.CurrentModeName()
	next := (c.current + 1) % len(c.modes)
	return c.switchTo(next, from, event.ReasonRotation, now)
}

// switchTo deactivates the current mode and activates index.
func (c *Controller) switchTo(index int, from string, reason event.Reason, now time.Time) *event.ModeChange {
	c.modes[c.current].Deactivate()
	c.current = index
	return c.activate(index, from, reason, now)
}

func (c *Controller) activate(index int, from string, reason event.Reason, now time.Time) *event.ModeChange {
	m := c.modes[index]
	m.Activate(now)
	info := m.Info()
	c.log.Info().
		Int("index", index).
		Str("mode", info.Name).
		Str("description", info.Description).
		Str("author", info.Author).
		Str("version", info.Version).
		Str("from", from).
		Str("reason", string(reason)).
		Msg("mode activated")

	c.counts.ModeChanges++
	e := event.ModeChange{Timestamp: now, From: from, To: info.Name, Index: index, Reason: reason}
	if err := c.sink.ModeChanged(e); err != nil {
		c.log.Warn().Err(err).Msg("mode change publish failed")
	}
	return &e
}

func (c *Controller) checkHeartbeat(now time.Time) *event.Heartbeat {
	if c.heartbeat <= 0 || now.Sub(c.lastHeartbeat) < c.heartbeat {
		return nil
	}
	c.lastHeartbeat = now
	e := event.Heartbeat{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Mode:      c.CurrentModeName(),
		Counts:    c.counts,
	}
	c.log.Debug().Dur("uptime", e.Uptime).Int("donations", e.Counts.Donations).Msg("heartbeat")
	if err := c.sink.Heartbeat(e); err != nil {
		c.log.Warn().Err(err).Msg("heartbeat publish failed")
	}
	return &e
}

// ForceSwitchTo makes index the current mode using the same
// deactivate/activate sequence as rotation. An out-of-range index is
// rejected with no state change.
func (c *Controller) ForceSwitchTo(index int, now time.Time) error {
	if index < 0 || index >= len(c.modes) {
		c.log.Error().Int("index", index).Int("modes", len(c.modes)).Msg("invalid mode index")
		return fmt.Errorf("switch to %d of %d: %w", index, len(c.modes), ErrInvalidIndex)
	}
	from := c.CurrentModeName()
	if !c.started {
		from = NoMode
		c.startTime = now
		c.lastHeartbeat = now
		c.started = true
	}
	c.switchTo(index, from, event.ReasonManual, now)
	return nil
}

// SwitchToNext rotates to the next mode immediately.
func (c *Controller) SwitchToNext(now time.Time) error {
	if len(c.modes) == 0 {
		c.log.Warn().Msg("switch requested with no modes registered")
		return ErrNoModes
	}
	return c.ForceSwitchTo((c.current+1)%len(c.modes), now)
}

// CurrentModeName returns the display name of the current mode, or NoMode.
func (c *Controller) CurrentModeName() string {
	if len(c.modes) == 0 || c.current >= len(c.modes) {
		return NoMode
	}
	return c.modes[c.current].Info().Name
}

// CurrentState returns the lifecycle state of the current mode when the mode
// exposes one, or "" otherwise.
func (c *Controller) CurrentState() string {
	if len(c.modes) == 0 {
		return ""
	}
	if s, ok := c.modes[c.current].(interface{ State() mode.State }); ok {
		return s.State().String()
	}
	return ""
}

// CurrentIndex returns the index of the current mode.
func (c *Controller) CurrentIndex() int {
	return c.current
}

// ModeCount returns the number of registered modes.
func (c *Controller) ModeCount() int {
	return len(c.modes)
}

// Modes returns the metadata of every registered mode in rotation order.
func (c *Controller) Modes() []mode.Info {
	infos := make([]mode.Info, len(c.modes))
	for i, m := range c.modes {
		infos[i] = m.Info()
	}
	return infos
}

// Counts returns event counts since Start.
func (c *Controller) Counts() event.Counts {
	return c.counts
}

// Started reports whether a mode has been activated.
func (c *Controller) Started() bool {
	return c.started
}
