// Package queue defines account event payloads exchanged over RabbitMQ and
// the consumer that records them.
package queue

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// UserEventsQueue is the durable queue carrying UserEvent messages.
const UserEventsQueue = "user.events"

// Event types.
const (
	UserRegistered = "user.registered"
	UserUpdated    = "user.updated"
	UserDeleted    = "user.deleted"
)

// UserEvent is published whenever an account is created, edited or removed.
// ActorID is the authenticated user who made the change, zero for sign-up.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     uint64    `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	ActorID    uint64    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DeclareUserEvents declares the durable user events queue (idempotent).
func DeclareUserEvents(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		UserEventsQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	return err
}
