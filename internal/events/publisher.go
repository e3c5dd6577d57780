package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the topic exchange events are published to.
const DefaultExchange = "finscholars.events"

// Publisher sends events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
	Close() error
}

// AMQPPublisher publishes JSON events to a durable topic exchange.
// When created with an empty URL it is disabled and drops events.
type AMQPPublisher struct {
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	enabled  bool
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if url == "" {
		glog.Warning("AMQP URL is empty, event publishing is disabled")
		return &AMQPPublisher{exchange: exchange}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	glog.Infof("event publisher initialized with exchange %s", exchange)
	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		enabled:  true,
	}, nil
}

// Enabled reports whether events reach a broker.
func (p *AMQPPublisher) Enabled() bool {
	return p.enabled
}

func (p *AMQPPublisher) Publish(ctx context.Context, e *Event) error {
	if !p.enabled {
		glog.V(2).Infof("event publishing disabled, skipping %s", e.Type)
		return nil
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange,     // exchange
		string(e.Type), // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID,
			Timestamp:    e.OccurredAt,
			Body:         body,
			Headers: amqp.Table{
				"event_type": string(e.Type),
				"user_id":    e.UserID,
				"module_id":  e.ModuleID,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	glog.V(2).Infof("published %s for user %s", e.Type, e.UserID)
	return nil
}

func (p *AMQPPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			glog.Errorf("close broker channel: %v", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close broker connection: %w", err)
		}
	}
	return nil
}

// MockPublisher records events in memory.
type MockPublisher struct {
	mu     sync.Mutex
	events []Event
	Err    error // returned from Publish when set
}

// NewMockPublisher creates an empty mock.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, *e)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Events returns a copy of the published events.
func (m *MockPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// OfType returns the published events of type t.
func (m *MockPublisher) OfType(t Type) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// publishTimeout bounds a best-effort publish.
const publishTimeout = 5 * time.Second

// PublishAll publishes events in order and returns the first error. It does
// not stop at a failure.
func PublishAll(ctx context.Context, p Publisher, evts ...*Event) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var first error
	for _, e := range evts {
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
