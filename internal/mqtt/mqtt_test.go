package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/donation-box/internal/event"
)

var ts = time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC)

func TestNewTopics(t *testing.T) {
	tp := NewTopics("donation-box/", "abc")
	assert.Equal(t, "donation-box/abc/donations", tp.Donations)
	assert.Equal(t, "donation-box/abc/mode", tp.Mode)
	assert.Equal(t, "donation-box/abc/status", tp.Status)
	assert.Equal(t, "donation-box/abc/heartbeat", tp.Heartbeat)

	assert.Equal(t, "donation-box/x/mode", NewTopics("", "x").Mode)
}

func TestClientID(t *testing.T) {
	assert.Equal(t, "box-1", ClientID("box-1"))
	id := ClientID("")
	assert.True(t, strings.HasPrefix(id, "donation-box-"))
	assert.Len(t, id, len("donation-box-")+8)
	assert.NotEqual(t, id, ClientID(""))
}

func TestFormatDonationExactJSON(t *testing.T) {
	payload, err := FormatDonation(event.Donation{Timestamp: ts, Mode: "Wave Motion", Amount: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"2026-02-02T22:18:12Z","mode":"Wave Motion","amount":1,"event":"donation"}`, string(payload))
}

func TestFormatModeChangeExactJSON(t *testing.T) {
	payload, err := FormatModeChange(event.ModeChange{
		Timestamp: ts, From: "none", To: "Static Breathing", Index: 0, Reason: event.ReasonStart,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"2026-02-02T22:18:12Z","from_mode":"none","to_mode":"Static Breathing","index":0,"reason":"start","event":"mode_change"}`, string(payload))
}

func TestFormatHeartbeat(t *testing.T) {
	payload, err := FormatHeartbeat(event.Heartbeat{
		Timestamp: ts,
		Uptime:    90*time.Second + 400*time.Millisecond,
		Mode:      "Chase Light",
		Counts:    event.Counts{Donations: 4, ModeChanges: 7},
	})
	require.NoError(t, err)

	var got HeartbeatPayload
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, HeartbeatPayload{
		Timestamp: "2026-02-02T22:18:12Z", Event: "heartbeat", UptimeSeconds: 90,
		Mode: "Chase Light", Donations: 4, ModeChanges: 7,
	}, got)
}

func TestFormatTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	payload, err := FormatDonation(event.Donation{Timestamp: time.Date(2026, 2, 2, 23, 0, 0, 0, loc), Mode: "m", Amount: 1})
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"timestamp":"2026-02-02T22:00:00Z"`)
}

func TestFormatSystemPayload(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: ts, Event: EventShutdown, Reason: "SIGTERM"})
	require.NoError(t, err)
	assert.Equal(t, `{"system":{"timestamp":"2026-02-02T22:18:12Z","event":"SHUTDOWN","reason":"SIGTERM"}}`, string(payload))

	payload, err = FormatSystemPayload(SystemEvent{Timestamp: ts, Event: EventOnline})
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "reason")
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: EventStartup, RawPayload: raw})
	require.NoError(t, err)
	assert.Equal(t, raw, payload)
}

func TestWillPayload(t *testing.T) {
	var got SystemPayload
	require.NoError(t, json.Unmarshal(WillPayload(), &got))
	assert.Equal(t, EventOffline, got.System.Event)
	assert.Equal(t, "MQTT_DISCONNECT", got.System.Reason)
}

func TestFakePublisherRecordsInOrder(t *testing.T) {
	f := NewFakePublisher()
	var p Publisher = f

	require.NoError(t, p.ModeChanged(event.ModeChange{Timestamp: ts, From: "none", To: "A"}))
	require.NoError(t, p.Donation(event.Donation{Timestamp: ts, Mode: "A", Amount: 1}))
	require.NoError(t, p.Heartbeat(event.Heartbeat{Timestamp: ts}))
	require.NoError(t, p.PublishSystem(SystemEvent{Timestamp: ts, Event: EventStartup, Retained: true}))

	require.Len(t, f.Messages, 4)
	assert.Equal(t, f.Topics.Mode, f.Messages[0].Topic)
	assert.True(t, f.Messages[0].Retained)
	assert.Equal(t, f.Topics.Donations, f.Messages[1].Topic)
	assert.Equal(t, f.Topics.Heartbeat, f.Messages[2].Topic)
	assert.Equal(t, f.Topics.Status, f.Messages[3].Topic)
	assert.True(t, f.Messages[3].Retained)

	assert.Len(t, f.Donations, 1)
	assert.Len(t, f.ModeChanges, 1)
	assert.Len(t, f.Heartbeats, 1)
	assert.Len(t, f.SystemEvents, 1)
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")

	assert.Error(t, f.Donation(event.Donation{}))
	assert.Error(t, f.ModeChanged(event.ModeChange{}))
	assert.Error(t, f.Heartbeat(event.Heartbeat{}))
	assert.Error(t, f.PublishSystem(SystemEvent{}))
	assert.Empty(t, f.Messages)
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true
	f.Donation(event.Donation{})
	f.Close()
	f.Reset()

	assert.Empty(t, f.Messages)
	assert.Empty(t, f.Donations)
	assert.False(t, f.Closed)
	assert.False(t, f.IsConnected())

	require.NoError(t, f.Donation(event.Donation{}))
	assert.Len(t, f.Donations, 1, "reusable after reset")
}
