package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/fairy-lamp/internal/lamp"
)

// DefaultBufferSize is the number of messages held while disconnected.
const DefaultBufferSize = 64

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	Topics     Topics
	BufferSize int
}

// RealPublisher publishes to an actual MQTT broker and receives commands
// from the set topic. Messages published while disconnected are buffered
// and replayed in order after reconnection.
type RealPublisher struct {
	client   paho.Client
	topics   Topics
	commands chan lamp.Command

	mu  sync.Mutex
	buf *ringBuffer
	// replaying is set while one goroutine owns draining buf. New messages
	// queue behind the buffer so the broker sees them in order.
	replaying bool
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is established in the background and retried until it succeeds.
func NewRealPublisher(o Options) *RealPublisher {
	p := newPublisher(o)

	will, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "LWT"})

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(o.Topics.System, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// newPublisher builds a publisher without a client.
func newPublisher(o Options) *RealPublisher {
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	return &RealPublisher{
		topics:   o.Topics,
		commands: make(chan lamp.Command, 8),
		buf:      newRingBuffer(o.BufferSize),
	}
}

// onConnect runs on every (re)connection: subscribe and replay the buffer.
// The client already reports connected when this runs, so the replay is
// claimed before subscribing to hold back publishes made meanwhile.
func (p *RealPublisher) onConnect(c paho.Client) {
	log.Printf("mqtt: connected")
	claimed := p.claimReplay()

	token := c.Subscribe(p.topics.Set, 1, p.onCommand)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("mqtt: subscribe %s: timeout", p.topics.Set)
	} else if err := token.Error(); err != nil {
		log.Printf("mqtt: subscribe %s: %v", p.topics.Set, err)
	}

	if claimed {
		p.replay()
	}
}

// claimReplay makes the caller the only drainer of the buffer.
func (p *RealPublisher) claimReplay() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.replaying {
		return false
	}
	p.replaying = true
	return true
}

// replay publishes buffered messages oldest first until the buffer stays
// empty, then releases the claim.
func (p *RealPublisher) replay() {
	for {
		p.mu.Lock()
		msgs := p.buf.drainAll()
		if len(msgs) == 0 {
			p.replaying = false
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		log.Printf("mqtt: replaying %d buffered messages", len(msgs))
		for _, m := range msgs {
			if err := p.publishNow(m); err != nil {
				log.Printf("mqtt: replay to %s: %v", m.topic, err)
			}
		}
	}
}

func (p *RealPublisher) onCommand(_ paho.Client, msg paho.Message) {
	cmd, err := ParseCommand(msg.Payload())
	if err != nil {
		log.Printf("mqtt: ignoring command on %s: %v", msg.Topic(), err)
		return
	}
	select {
	case p.commands <- cmd:
	default:
		log.Printf("mqtt: command queue full, dropping command")
	}
}

// Commands returns the channel on which gateway commands are delivered.
func (p *RealPublisher) Commands() <-chan lamp.Command {
	return p.commands
}

// Publish sends a lamp event to the state topic, retained so the gateway
// sees the current state on subscribe.
func (p *RealPublisher) Publish(event LampEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(bufferedMsg{topic: p.topics.State, payload: payload, qos: 1, retained: true})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
}

// send publishes m directly only when nothing older is waiting. Otherwise m
// joins the buffer, and if connected with no replay running the caller
// drains it.
func (p *RealPublisher) send(m bufferedMsg) error {
	connected := p.client.IsConnected()

	p.mu.Lock()
	if !connected || p.replaying || p.buf.len() > 0 {
		p.buf.push(m)
		drain := connected && !p.replaying
		if drain {
			p.replaying = true
		}
		p.mu.Unlock()
		if drain {
			p.replay()
		}
		return nil
	}
	p.mu.Unlock()

	if err := p.publishNow(m); err != nil {
		p.mu.Lock()
		p.buf.push(m)
		p.mu.Unlock()
		return err
	}
	return nil
}

func (p *RealPublisher) publishNow(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// IsConnected reports whether the client currently has a broker connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Dropped returns the number of buffered messages lost to overflow.
func (p *RealPublisher) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.dropped
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
