// Package service holds background services wired next to the HTTP server.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/garage-admin/internal/queue"
)

// ErrPublisherBusy is returned by Publish when the outgoing buffer is full.
var ErrPublisherBusy = errors.New("event publisher buffer full")

// EventPublisher sends account events to RabbitMQ from a single background
// goroutine. Publish never blocks a request: events are buffered and dropped
// (with a log line) when the broker is unreachable or the buffer is full.
type EventPublisher struct {
	url    string
	events chan queue.UserEvent
	log    zerolog.Logger

	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewEventPublisher creates a publisher for the broker at url. Call Run to
// start delivering.
func NewEventPublisher(url string, buffer int, log zerolog.Logger) *EventPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &EventPublisher{url: url, events: make(chan queue.UserEvent, buffer), log: log}
}

// Publish enqueues ev for delivery.
func (p *EventPublisher) Publish(_ context.Context, ev queue.UserEvent) error {
	select {
	case p.events <- ev:
		return nil
	default:
		return ErrPublisherBusy
	}
}

// Run delivers queued events until ctx is cancelled.
func (p *EventPublisher) Run(ctx context.Context) {
	defer p.close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			if err := p.send(ctx, ev); err != nil {
				p.log.Warn().Err(err).Str("type", ev.Type).Uint64("user_id", ev.UserID).Msg("rabbitmq: event dropped")
				p.close()
			}
		}
	}
}

func (p *EventPublisher) send(ctx context.Context, ev queue.UserEvent) error {
	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return err
		}
	}
	pub, err := buildPublishing(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.ch.PublishWithContext(ctx,
		"",                    // default exchange
		queue.UserEventsQueue, // routing key = queue name
		false,                 // mandatory
		false,                 // immediate
		pub,
	)
}

func (p *EventPublisher) connect() error {
	p.close()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel open: %w", err)
	}
	if err := queue.DeclareUserEvents(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *EventPublisher) close() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// buildPublishing renders ev as a persistent JSON message.
func buildPublishing(ev queue.UserEvent) (amqp.Publishing, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Type,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	}, nil
}
