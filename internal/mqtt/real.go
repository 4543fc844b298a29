package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/donation-box/internal/event"
)

// DefaultBufferSize is how many messages are held while disconnected.
const DefaultBufferSize = 100

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string // empty generates donation-box-<uuid prefix>
	BaseTopic  string
	Username   string
	Password   string
	BufferSize int
}

// RealPublisher publishes to an MQTT broker. It connects in the background
// and never blocks the caller waiting for the broker: while disconnected
// messages go to a ring buffer that is replayed on (re)connect.
type RealPublisher struct {
	client   paho.Client
	clientID string
	topics   Topics

	mu        sync.Mutex
	connected bool
	buf       *ringBuffer
}

// ClientID returns id, or a fresh donation-box-xxxxxxxx id when it is empty.
func ClientID(id string) string {
	if id != "" {
		return id
	}
	return "donation-box-" + uuid.NewString()[:8]
}

// NewRealPublisher starts connecting to the broker and returns immediately.
func NewRealPublisher(opts Options) *RealPublisher {
	p := &RealPublisher{
		clientID: ClientID(opts.ClientID),
		buf:      newRingBuffer(opts.BufferSize),
	}
	p.topics = NewTopics(opts.BaseTopic, p.clientID)

	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(p.clientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetKeepAlive(60 * time.Second).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(p.topics.Status, WillPayload(), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(co)
	p.client.Connect()
	log.Info().Str("broker", opts.Broker).Str("client_id", p.clientID).Msg("mqtt connecting")
	return p
}

// Topics returns the topic names in use.
func (p *RealPublisher) Topics() Topics {
	return p.topics
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = true

	online, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: EventOnline})
	p.send(bufferedMsg{topic: p.topics.Status, payload: online, qos: 1, retained: true})

	pending := p.buf.drainAll()
	for _, m := range pending {
		p.send(m)
	}
	log.Info().Int("replayed", len(pending)).Msg("mqtt connected")
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.Warn().Err(err).Msg("mqtt connection lost")
}

// send hands the message to paho without waiting for the broker.
func (p *RealPublisher) send(m bufferedMsg) {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			ev := log.Warn()
			if m.topic == p.topics.Logs {
				ev = log.Debug()
			}
			ev.Err(err).Str("topic", m.topic).Msg("mqtt publish failed")
		}
	}()
}

func (p *RealPublisher) publish(m bufferedMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		p.buf.push(m)
		return
	}
	p.send(m)
}

// Donation publishes on the donations topic.
func (p *RealPublisher) Donation(e event.Donation) error {
	payload, err := FormatDonation(e)
	if err != nil {
		return fmt.Errorf("format donation: %w", err)
	}
	p.publish(bufferedMsg{topic: p.topics.Donations, payload: payload, qos: 1})
	return nil
}

// ModeChanged publishes on the mode topic.
func (p *RealPublisher) ModeChanged(e event.ModeChange) error {
	payload, err := FormatModeChange(e)
	if err != nil {
		return fmt.Errorf("format mode change: %w", err)
	}
	p.publish(bufferedMsg{topic: p.topics.Mode, payload: payload, retained: true})
	return nil
}

// Heartbeat publishes on the heartbeat topic.
func (p *RealPublisher) Heartbeat(e event.Heartbeat) error {
	payload, err := FormatHeartbeat(e)
	if err != nil {
		return fmt.Errorf("format heartbeat: %w", err)
	}
	p.publish(bufferedMsg{topic: p.topics.Heartbeat, payload: payload})
	return nil
}

// PublishSystem publishes a lifecycle event on the status topic at QoS 1.
func (p *RealPublisher) PublishSystem(e SystemEvent) error {
	payload, err := FormatSystemPayload(e)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	p.publish(bufferedMsg{topic: p.topics.Status, payload: payload, qos: 1, retained: e.Retained})
	return nil
}

// PublishLog sends a log line on the logs topic at QoS 0. Log lines are
// only sent while connected; they are never buffered for replay.
func (p *RealPublisher) PublishLog(l LogLine) error {
	payload, err := FormatLog(l)
	if err != nil {
		return fmt.Errorf("format log: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		p.send(bufferedMsg{topic: p.topics.Logs, payload: payload})
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects, allowing one second for in-flight messages.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
