// Package mqtt publishes donation-box telemetry to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/donation-box/internal/event"
)

// DefaultBaseTopic prefixes every topic.
const DefaultBaseTopic = "donation-box"

// System event names.
const (
	EventStartup  = "STARTUP"
	EventShutdown = "SHUTDOWN"
	EventOnline   = "ONLINE"
	EventOffline  = "OFFLINE"
)

// Publisher publishes controller events and system lifecycle events.
type Publisher interface {
	event.Sink

	// PublishSystem sends a lifecycle event to the status topic.
	PublishSystem(e SystemEvent) error

	LogSink

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Topics are the per-device topic names.
type Topics struct {
	Donations string
	Mode      string
	Status    string
	Heartbeat string
	Logs      string
}

// NewTopics builds <base>/<clientID>/{donations,mode,status,heartbeat,logs}.
func NewTopics(base, clientID string) Topics {
	if base == "" {
		base = DefaultBaseTopic
	}
	root := strings.TrimSuffix(base, "/") + "/" + clientID
	return Topics{
		Donations: root + "/donations",
		Mode:      root + "/mode",
		Status:    root + "/status",
		Heartbeat: root + "/heartbeat",
		Logs:      root + "/logs",
	}
}

// SystemEvent is a lifecycle event (startup, shutdown, online).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // signal name on shutdown
	RawPayload []byte // pre-formatted status snapshot; returned as-is by FormatSystemPayload
	Retained   bool
}

// DonationPayload is published on the donations topic.
type DonationPayload struct {
	Timestamp string `json:"timestamp"`
	Mode      string `json:"mode"`
	Amount    int    `json:"amount"`
	Event     string `json:"event"`
}

// ModeChangePayload is published on the mode topic.
type ModeChangePayload struct {
	Timestamp string `json:"timestamp"`
	FromMode  string `json:"from_mode"`
	ToMode    string `json:"to_mode"`
	Index     int    `json:"index"`
	Reason    string `json:"reason"`
	Event     string `json:"event"`
}

// HeartbeatPayload is published on the heartbeat topic.
type HeartbeatPayload struct {
	Timestamp     string `json:"timestamp"`
	Event         string `json:"event"`
	UptimeSeconds int64  `json:"uptime"`
	Mode          string `json:"mode"`
	Donations     int    `json:"donations"`
	ModeChanges   int    `json:"mode_changes"`
}

// SystemPayload is the envelope for simple lifecycle events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatDonation creates the JSON payload for a donation.
func FormatDonation(e event.Donation) ([]byte, error) {
	return json.Marshal(DonationPayload{
		Timestamp: timestamp(e.Timestamp),
		Mode:      e.Mode,
		Amount:    e.Amount,
		Event:     "donation",
	})
}

// FormatModeChange creates the JSON payload for a mode change.
func FormatModeChange(e event.ModeChange) ([]byte, error) {
	return json.Marshal(ModeChangePayload{
		Timestamp: timestamp(e.Timestamp),
		FromMode:  e.From,
		ToMode:    e.To,
		Index:     e.Index,
		Reason:    string(e.Reason),
		Event:     "mode_change",
	})
}

// FormatHeartbeat creates the JSON payload for a heartbeat.
func FormatHeartbeat(e event.Heartbeat) ([]byte, error) {
	return json.Marshal(HeartbeatPayload{
		Timestamp:     timestamp(e.Timestamp),
		Event:         "heartbeat",
		UptimeSeconds: int64(e.Uptime.Truncate(time.Second).Seconds()),
		Mode:          e.Mode,
		Donations:     e.Counts.Donations,
		ModeChanges:   e.Counts.ModeChanges,
	})
}

// FormatSystemPayload creates the JSON payload for a system event.
// If e.RawPayload is set, it is returned directly.
func FormatSystemPayload(e SystemEvent) ([]byte, error) {
	if e.RawPayload != nil {
		return e.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: timestamp(e.Timestamp),
			Event:     e.Event,
			Reason:    e.Reason,
		},
	})
}

// WillPayload is the retained last-will message the broker publishes when
// the connection drops without a clean disconnect.
func WillPayload() []byte {
	data, _ := json.Marshal(SystemPayload{System: SystemPayloadInner{Event: EventOffline, Reason: "MQTT_DISCONNECT"}})
	return data
}

// Disabled is the Publisher used when no broker is configured.
type Disabled struct{}

func (Disabled) Donation(event.Donation) error      { return nil }
func (Disabled) ModeChanged(event.ModeChange) error { return nil }
func (Disabled) Heartbeat(event.Heartbeat) error    { return nil }
func (Disabled) PublishSystem(SystemEvent) error    { return nil }
func (Disabled) PublishLog(LogLine) error           { return nil }
func (Disabled) Close() error                       { return nil }
func (Disabled) IsConnected() bool                  { return false }
