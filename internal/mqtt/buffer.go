package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that stores messages while disconnected.
// A retained message replaces any retained message already queued for the
// same topic, since the broker would only keep the last one anyway.
// Not safe for concurrent use; the caller synchronizes.
type ringBuffer struct {
	buf      []bufferedMsg
	capacity int
	head     int // next write position
	count    int
	overflow bool // true if any message was dropped since last drain
	dropped  int  // total messages dropped since creation
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{
		buf:      make([]bufferedMsg, capacity),
		capacity: capacity,
	}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	if msg.retained {
		if i, ok := r.findRetained(msg.topic); ok {
			r.buf[i] = msg
			return
		}
	}
	if r.count == r.capacity {
		if !r.overflow {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", r.capacity)
			r.overflow = true
		}
		r.dropped++
		// head already points at the oldest entry
		r.buf[r.head] = msg
		r.head = (r.head + 1) % r.capacity
		return
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % r.capacity
	r.count++
}

// findRetained returns the slot of the queued retained message for topic.
func (r *ringBuffer) findRetained(topic string) (int, bool) {
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		j := (start + i) % r.capacity
		if r.buf[j].retained && r.buf[j].topic == topic {
			return j, true
		}
	}
	return 0, false
}

// drainAll returns buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}

	result := make([]bufferedMsg, r.count)
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}

	r.count = 0
	r.head = 0
	r.overflow = false
	return result
}

func (r *ringBuffer) len() int {
	return r.count
}
