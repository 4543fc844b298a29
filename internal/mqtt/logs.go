package mqtt

import (
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLogQueue is how many log lines wait for the forwarder goroutine.
const DefaultLogQueue = 64

// LogLine is one log message mirrored to the logs topic.
type LogLine struct {
	Timestamp time.Time
	Level     zerolog.Level
	Message   string
}

// LogPayload is published on the logs topic.
type LogPayload struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// FormatLog creates the JSON payload for a log line. Levels are upper case,
// with warn spelled WARNING.
func FormatLog(l LogLine) ([]byte, error) {
	level := strings.ToUpper(l.Level.String())
	if l.Level == zerolog.WarnLevel {
		level = "WARNING"
	}
	return json.Marshal(LogPayload{
		Timestamp: timestamp(l.Timestamp),
		Level:     level,
		Message:   l.Message,
	})
}

// LogSink accepts log lines for publishing.
type LogSink interface {
	PublishLog(l LogLine) error
}

// LogForwarder is a zerolog.Hook that mirrors messages at or above a level
// to a LogSink. The hook only does a non-blocking channel send; a separate
// goroutine publishes, so logging never waits on the broker or its locks.
// Lines that arrive while the queue is full are counted and dropped.
type LogForwarder struct {
	min     zerolog.Level
	sink    LogSink
	queue   chan LogLine
	stop    chan struct{}
	done    chan struct{}
	dropped atomic.Int64
	once    sync.Once
	now     func() time.Time
}

// NewLogForwarder starts the publishing goroutine. size <= 0 selects
// DefaultLogQueue.
func NewLogForwarder(sink LogSink, min zerolog.Level, size int) *LogForwarder {
	if size <= 0 {
		size = DefaultLogQueue
	}
	f := &LogForwarder{
		min:   min,
		sink:  sink,
		queue: make(chan LogLine, size),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		now:   time.Now,
	}
	go f.run()
	return f
}

// Run implements zerolog.Hook.
func (f *LogForwarder) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if level < f.min || level >= zerolog.NoLevel || msg == "" {
		return
	}
	select {
	case f.queue <- LogLine{Timestamp: f.now(), Level: level, Message: msg}:
	default:
		f.dropped.Add(1)
	}
}

func (f *LogForwarder) run() {
	defer close(f.done)
	for {
		select {
		case l := <-f.queue:
			// Failures are not logged here; doing so would feed the queue.
			_ = f.sink.PublishLog(l)
		case <-f.stop:
			return
		}
	}
}

// Dropped returns how many lines were discarded because the queue was full.
func (f *LogForwarder) Dropped() int64 {
	return f.dropped.Load()
}

// Close stops the publishing goroutine. Lines still queued are discarded.
// The hook stays safe to call afterwards.
func (f *LogForwarder) Close() error {
	f.once.Do(func() {
		close(f.stop)
		<-f.done
	})
	return nil
}
