// Package metrics forwards controller events to a DogStatsD agent.
package metrics

import (
	"fmt"
	"strings"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/donation-box/internal/event"
)

// Metric names, relative to the configured namespace.
const (
	MetricDonations      = "donations"
	MetricModeChanges    = "mode_changes"
	MetricUptime         = "uptime_seconds"
	MetricDonationsTotal = "donations_total"
)

// Client is the subset of the DogStatsD client used here.
type Client interface {
	Incr(name string, tags []string, rate float64) error
	Gauge(name string, value float64, tags []string, rate float64) error
	Close() error
}

// Sink is an event.Sink that emits counters and gauges.
type Sink struct {
	client Client
}

// New dials the agent at addr. Namespace gets a trailing dot if missing.
func New(addr, namespace string, tags []string) (*Sink, error) {
	if namespace != "" && !strings.HasSuffix(namespace, ".") {
		namespace += "."
	}
	c, err := statsd.New(addr, statsd.WithNamespace(namespace), statsd.WithTags(tags))
	if err != nil {
		return nil, fmt.Errorf("statsd client: %w", err)
	}
	log.Info().Str("addr", addr).Str("namespace", namespace).Strs("tags", tags).Msg("statsd metrics initialized")
	return &Sink{client: c}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c Client) *Sink {
	return &Sink{client: c}
}

func modeTag(name string) string {
	return "mode:" + strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// Donation increments the donation counter tagged with the mode.
func (s *Sink) Donation(e event.Donation) error {
	return s.client.Incr(MetricDonations, []string{modeTag(e.Mode)}, 1)
}

// ModeChanged increments the mode-change counter tagged with the new mode
// and the reason.
func (s *Sink) ModeChanged(e event.ModeChange) error {
	return s.client.Incr(MetricModeChanges, []string{modeTag(e.To), "reason:" + string(e.Reason)}, 1)
}

// Heartbeat reports uptime and running totals as gauges.
func (s *Sink) Heartbeat(e event.Heartbeat) error {
	if err := s.client.Gauge(MetricUptime, e.Uptime.Seconds(), nil, 1); err != nil {
		return err
	}
	return s.client.Gauge(MetricDonationsTotal, float64(e.Counts.Donations), nil, 1)
}

// Close flushes and closes the client.
func (s *Sink) Close() error {
	return s.client.Close()
}
