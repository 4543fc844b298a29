package mqtt

import "github.com/rs/zerolog/log"

// bufferedMsg is a serialized message held for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO of messages published while
// disconnected. When full the oldest message is dropped.
// Not safe for concurrent use.
type ringBuffer struct {
	buf     []bufferedMsg
	head    int // next write position
	count   int
	dropped int // messages lost since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	n := len(r.buf)
	r.buf[r.head] = msg
	r.head = (r.head + 1) % n
	if r.count < n {
		r.count++
		return
	}
	if r.dropped == 0 {
		log.Warn().Int("capacity", n).Msg("mqtt buffer full, dropping oldest")
	}
	r.dropped++
}

// drainAll returns buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}
	n := len(r.buf)
	out := make([]bufferedMsg, r.count)
	start := (r.head - r.count + n) % n
	for i := range out {
		out[i] = r.buf[(start+i)%n]
	}
	if r.dropped > 0 {
		log.Info().Int("dropped", r.dropped).Int("replayed", r.count).Msg("mqtt buffer drained")
	}
	r.count = 0
	r.head = 0
	r.dropped = 0
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
