// Package status provides a thread-safe view of the donation box for the
// HTTP server. The control loop writes it once per tick; handlers read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/donation-box/internal/event"
	"github.com/sweeney/donation-box/internal/mode"
)

// NetworkInfo contains network state as reported by the host helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	CooldownMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	LEDDriver   string
	LEDCount    int
}

// ModeView is one registry entry as shown on the status page.
type ModeView struct {
	mode.Info
	EffectMs int64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type; safe to use after the lock is released.
type Snapshot struct {
	Mode         string
	Index        int
	State        string
	Modes        []ModeView
	Counts       event.Counts
	SensorActive bool
	LastDonation time.Time

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Audio         string
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Mode:      "none",
			StartTime: startTime,
			Audio:     "disabled",
			Config:    cfg,
		},
		now: time.Now,
	}
}

// SetClock replaces the clock used to stamp snapshots.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// SetModes records the registry contents in rotation order.
func (t *Tracker) SetModes(modes []ModeView) {
	t.mu.Lock()
	t.snap.Modes = append([]ModeView(nil), modes...)
	t.mu.Unlock()
}

// Update sets the current mode, lifecycle state, counts and sensor level.
// Called from the control loop on every tick.
func (t *Tracker) Update(name string, index int, state string, counts event.Counts, sensorActive bool) {
	t.mu.Lock()
	t.snap.Mode = name
	t.snap.Index = index
	t.snap.State = state
	t.snap.Counts = counts
	t.snap.SensorActive = sensorActive
	t.mu.Unlock()
}

// RecordDonation notes the time of the latest donation.
func (t *Tracker) RecordDonation(at time.Time) {
	t.mu.Lock()
	t.snap.LastDonation = at
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetAudio sets the audio device state ("ready", "degraded", "unavailable").
func (t *Tracker) SetAudio(state string) {
	t.mu.Lock()
	t.snap.Audio = state
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state with Now set to
// the time of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Modes = append([]ModeView(nil), t.snap.Modes...)
	now := t.now
	t.mu.RUnlock()
	s.Now = now()
	return s
}
