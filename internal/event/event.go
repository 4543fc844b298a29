// Package event defines the telemetry notifications emitted by the mode
// controller and the Sink interface that publishers implement.
// This package has NO external dependencies.
package event

import "time"

// Reason explains why the active mode changed.
type Reason string

const (
	ReasonStart    Reason = "start"
	ReasonRotation Reason = "rotation"
	ReasonManual   Reason = "manual"
)

// Donation is emitted when the sensor reports a rising edge.
type Donation struct {
	Timestamp time.Time
	Mode      string // display name of the mode that received the trigger
	Amount    int
}

// ModeChange is emitted whenever the controller activates a mode.
type ModeChange struct {
	Timestamp time.Time
	From      string
	To        string
	Index     int
	Reason    Reason
}

// Counts tracks the number of each event type since startup.
type Counts struct {
	Donations   int
	ModeChanges int
}

// Heartbeat is the periodic liveness notification.
type Heartbeat struct {
	Timestamp time.Time
	Uptime    time.Duration
	Mode      string
	Counts    Counts
}

// Sink receives controller notifications. Implementations must not block;
// returned errors are logged by the caller and otherwise ignored.
type Sink interface {
	Donation(e Donation) error
	ModeChanged(e ModeChange) error
	Heartbeat(e Heartbeat) error
}
