// Package config loads the donation box's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultHeartbeat is used when heartbeat is not set.
const DefaultHeartbeat = 30 * time.Second

// Config represents the application configuration.
type Config struct {
	PollInterval Duration     `yaml:"poll_interval"` // control-loop tick
	Heartbeat    *Duration    `yaml:"heartbeat"`     // unset selects 30s; 0 disables
	Sensor       SensorConfig `yaml:"sensor"`
	Button       ButtonConfig `yaml:"button"`
	LED          LEDConfig    `yaml:"led"`
	Audio        AudioConfig  `yaml:"audio"`
	MQTT         MQTTConfig   `yaml:"mqtt"`
	Statsd       StatsdConfig `yaml:"statsd"`
	Ledger       LedgerConfig `yaml:"ledger"`
	HTTP         HTTPConfig   `yaml:"http"`
	Log          LogConfig    `yaml:"log"`
	Modes        ModesConfig  `yaml:"modes"`
}

// SensorConfig selects the donation sensor line.
type SensorConfig struct {
	Chip      string   `yaml:"chip"`
	Pin       int      `yaml:"pin"`
	ActiveLow *bool    `yaml:"active_low"` // default true (TCRT5000 pulls low when blocked)
	Cooldown  Duration `yaml:"cooldown"`
}

// IsActiveLow returns ActiveLow, defaulting to true.
func (s SensorConfig) IsActiveLow() bool {
	return s.ActiveLow == nil || *s.ActiveLow
}

// ButtonConfig selects an optional "next mode" push button. Pin 0 disables it.
type ButtonConfig struct {
	Pin      int      `yaml:"pin"`
	Cooldown Duration `yaml:"cooldown"`
}

// LEDConfig describes the strip.
type LEDConfig struct {
	Driver     string `yaml:"driver"` // "ws281x" or "none"
	Count      int    `yaml:"count"`
	GPIOPin    int    `yaml:"gpio_pin"`
	Brightness int    `yaml:"brightness"` // hardware ceiling; modes scale below it
}

// AudioConfig describes the sound clips.
type AudioConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Dir           string   `yaml:"dir"`
	Volume        int      `yaml:"volume"`
	DonationBase  int      `yaml:"donation_base"`
	DonationCount int      `yaml:"donation_count"`
	StartupTrack  int      `yaml:"startup_track"` // 0 skips the startup sound
	InitAttempts  int      `yaml:"init_attempts"`
	RetryDelay    Duration `yaml:"retry_delay"`
}

// MQTTConfig contains broker settings. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker     string `yaml:"broker"`
	ClientID   string `yaml:"client_id"`
	BaseTopic  string `yaml:"base_topic"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	BufferSize int    `yaml:"buffer_size"`
	LogLevel   string `yaml:"log_level"` // lowest level mirrored to <base>/<id>/logs; "disabled" turns it off
}

// StatsdConfig contains DogStatsD settings. An empty addr disables metrics.
type StatsdConfig struct {
	Addr      string   `yaml:"addr"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

// LedgerConfig contains event ledger settings. An empty path disables it.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig contains status server settings. An empty addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
	File   string `yaml:"file"`
}

// ModesConfig selects the rotation and per-mode effect durations, keyed by
// mode key (breathing, wave, blink, half, center, chase).
type ModesConfig struct {
	Order           []string            `yaml:"order"`
	EffectDurations map[string]Duration `yaml:"effect_durations"`
}

// HeartbeatInterval returns the liveness interval. Zero means disabled.
func (cfg *Config) HeartbeatInterval() time.Duration {
	if cfg.Heartbeat == nil {
		return DefaultHeartbeat
	}
	return cfg.Heartbeat.Duration()
}

// Durations returns EffectDurations as time.Duration values.
func (m ModesConfig) Durations() map[string]time.Duration {
	out := make(map[string]time.Duration, len(m.EffectDurations))
	for k, v := range m.EffectDurations {
		out[k] = v.Duration()
	}
	return out
}

// Duration is a wrapper around time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		PollInterval: Duration(10 * time.Millisecond),
		Sensor: SensorConfig{
			Chip:     "gpiochip0",
			Pin:      17,
			Cooldown: Duration(300 * time.Millisecond),
		},
		Button: ButtonConfig{Cooldown: Duration(300 * time.Millisecond)},
		LED: LEDConfig{
			Driver:     "ws281x",
			Count:      6,
			GPIOPin:    18,
			Brightness: 255,
		},
		Audio: AudioConfig{
			Dir:           "./sounds",
			Volume:        30,
			DonationBase:  1,
			DonationCount: 16,
			StartupTrack:  1,
			InitAttempts:  3,
			RetryDelay:    Duration(500 * time.Millisecond),
		},
		MQTT: MQTTConfig{
			BaseTopic:  "donation-box",
			BufferSize: 100,
			LogLevel:   "warn",
		},
		Statsd: StatsdConfig{Namespace: "donation_box"},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses YAML after expanding ${VAR} and ${VAR:default} references.
// Keys absent from data keep their Default value; keys present always win,
// so an explicit zero (volume 0, brightness 0, GPIO0) is honoured.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.PollInterval.Duration() <= 0 {
		errs = append(errs, errors.New("poll_interval must be positive"))
	}
	if cfg.HeartbeatInterval() < 0 {
		errs = append(errs, errors.New("heartbeat must not be negative"))
	}
	if cfg.Sensor.Chip == "" {
		errs = append(errs, errors.New("sensor.chip must be set"))
	}
	if cfg.Sensor.Pin < 0 || cfg.Button.Pin < 0 || cfg.LED.GPIOPin < 0 {
		errs = append(errs, errors.New("gpio pins must not be negative"))
	}
	if cfg.Button.Pin != 0 && cfg.Button.Pin == cfg.Sensor.Pin {
		errs = append(errs, fmt.Errorf("button pin %d is the sensor pin", cfg.Button.Pin))
	}
	switch cfg.LED.Driver {
	case "ws281x", "none":
	default:
		errs = append(errs, fmt.Errorf("led.driver %q: want ws281x or none", cfg.LED.Driver))
	}
	if cfg.LED.Count < 1 {
		errs = append(errs, errors.New("led.count must be at least 1"))
	}
	if cfg.LED.Brightness < 0 || cfg.LED.Brightness > 255 {
		errs = append(errs, errors.New("led.brightness must be 0..255"))
	}
	if cfg.Audio.Volume < 0 || cfg.Audio.Volume > 30 {
		errs = append(errs, errors.New("audio.volume must be 0..30"))
	}
	if cfg.Audio.DonationCount < 0 {
		errs = append(errs, errors.New("audio.donation_count must not be negative"))
	}
	if cfg.Audio.StartupTrack < 0 {
		errs = append(errs, errors.New("audio.startup_track must not be negative"))
	}
	for k, d := range cfg.Modes.EffectDurations {
		if d.Duration() <= 0 {
			errs = append(errs, fmt.Errorf("modes.effect_durations.%s must be positive", k))
		}
	}
	if _, err := zerolog.ParseLevel(cfg.MQTT.LogLevel); err != nil || cfg.MQTT.LogLevel == "" {
		errs = append(errs, fmt.Errorf("mqtt.log_level %q: want a level name or disabled", cfg.MQTT.LogLevel))
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want console or json", cfg.Log.Format))
	}
	return errors.Join(errs...)
}

var envRef = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars expands ${VAR} and ${VAR:default}.
func expandEnvVars(input string) string {
	return envRef.ReplaceAllStringFunc(input, func(match string) string {
		parts := envRef.FindStringSubmatch(match)
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})
}
