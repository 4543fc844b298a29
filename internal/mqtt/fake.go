package mqtt

import (
	"github.com/sweeney/donation-box/internal/event"
)

// Message is a publish recorded by FakePublisher.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	Topics Topics

	Donations    []event.Donation
	ModeChanges  []event.ModeChange
	Heartbeats   []event.Heartbeat
	SystemEvents []SystemEvent
	Logs         []LogLine

	// Messages holds every publish in order, formatted as the real publisher would.
	Messages []Message

	// PublishError, if set, is returned by every publish method.
	PublishError error

	Closed    bool
	Connected bool
}

// NewFakePublisher creates a FakePublisher using client id "test".
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Topics: NewTopics(DefaultBaseTopic, "test")}
}

func (f *FakePublisher) record(topic string, payload []byte, retained bool) {
	f.Messages = append(f.Messages, Message{Topic: topic, Payload: payload, Retained: retained})
}

// Donation records a donation.
func (f *FakePublisher) Donation(e event.Donation) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatDonation(e)
	if err != nil {
		return err
	}
	f.Donations = append(f.Donations, e)
	f.record(f.Topics.Donations, payload, false)
	return nil
}

// ModeChanged records a mode change.
func (f *FakePublisher) ModeChanged(e event.ModeChange) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatModeChange(e)
	if err != nil {
		return err
	}
	f.ModeChanges = append(f.ModeChanges, e)
	f.record(f.Topics.Mode, payload, true)
	return nil
}

// Heartbeat records a heartbeat.
func (f *FakePublisher) Heartbeat(e event.Heartbeat) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatHeartbeat(e)
	if err != nil {
		return err
	}
	f.Heartbeats = append(f.Heartbeats, e)
	f.record(f.Topics.Heartbeat, payload, false)
	return nil
}

// PublishSystem records a system event.
func (f *FakePublisher) PublishSystem(e SystemEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatSystemPayload(e)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, e)
	f.record(f.Topics.Status, payload, e.Retained)
	return nil
}

// PublishLog records a log line when Connected, as the real publisher
// drops log lines while offline.
func (f *FakePublisher) PublishLog(l LogLine) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	if !f.Connected {
		return nil
	}
	payload, err := FormatLog(l)
	if err != nil {
		return err
	}
	f.Logs = append(f.Logs, l)
	f.record(f.Topics.Logs, payload, false)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.Donations = nil
	f.ModeChanges = nil
	f.Heartbeats = nil
	f.SystemEvents = nil
	f.Logs = nil
	f.Messages = nil
	f.Closed = false
	f.PublishError = nil
	f.Connected = false
}
