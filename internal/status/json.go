package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Mode          string       `json:"mode"`
	Index         int          `json:"index"`
	State         string       `json:"state,omitempty"`
	Modes         []ModeJSON   `json:"modes"`
	SensorActive  bool         `json:"sensor_active"`
	LastDonation  string       `json:"last_donation,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Audio         string       `json:"audio"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ModeJSON describes one registered mode.
type ModeJSON struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Version     string `json:"version"`
	EffectMs    int64  `json:"effect_ms"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Donations   int `json:"donations"`
	ModeChanges int `json:"mode_changes"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	CooldownMs  int64  `json:"cooldown_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	LEDDriver   string `json:"led_driver"`
	LEDCount    int    `json:"led_count"`
}

func buildInner(snap Snapshot) StatusInner {
	modes := make([]ModeJSON, len(snap.Modes))
	for i, m := range snap.Modes {
		modes[i] = ModeJSON{
			Index:       i,
			Name:        m.Name,
			Description: m.Description,
			Author:      m.Author,
			Version:     m.Version,
			EffectMs:    m.EffectMs,
		}
	}

	inner := StatusInner{
		Mode:          snap.Mode,
		Index:         snap.Index,
		State:         snap.State,
		Modes:         modes,
		SensorActive:  snap.SensorActive,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Audio:         snap.Audio,
		Counts: CountsJSON{
			Donations:   snap.Counts.Donations,
			ModeChanges: snap.Counts.ModeChanges,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			CooldownMs:  snap.Config.CooldownMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			LEDDriver:   snap.Config.LEDDriver,
			LEDCount:    snap.Config.LEDCount,
		},
	}
	if !snap.LastDonation.IsZero() {
		inner.LastDonation = snap.LastDonation.UTC().Format(time.RFC3339)
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the indented JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
