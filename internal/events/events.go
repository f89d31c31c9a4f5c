// Package events publishes domain events for the excluded notification
// and admin surfaces. Publishing is best effort: a failed publish is
// logged by the caller and never rolls back a committed transition.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/corridorworks/corridor-be/shared/rabbitmq"
)

// Event types emitted by the core
const (
	JobCreated      = "job.created"
	JobAssigned     = "job.assigned"
	JobCompleted    = "job.completed"
	JobCancelled    = "job.cancelled"
	JobExpired      = "job.expired"
	JobRated        = "job.rated"
	PaymentCreated  = "payment.created"
	PaymentProofed  = "payment.proof_uploaded"
	PaymentVerified = "payment.verified"
	PaymentDisputed = "payment.disputed"
	PaymentPenalty  = "payment.penalty_applied"
	DisputeRaised   = "dispute.raised"
	DisputeResolved = "dispute.resolved"
	DisputeRejected = "dispute.rejected"
)

// Event is the wire envelope for a domain event
type Event struct {
	Type       string      `json:"type"`
	EntityID   string      `json:"entity_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

// Publisher delivers domain events to interested consumers
type Publisher interface {
	Publish(ctx context.Context, eventType, entityID string, payload interface{}) error
}

// AMQPPublisher publishes events to RabbitMQ with the event type as the
// routing key.
type AMQPPublisher struct {
	client *rabbitmq.Client
}

// NewAMQPPublisher wraps an established RabbitMQ client.
func NewAMQPPublisher(client *rabbitmq.Client) *AMQPPublisher {
	return &AMQPPublisher{client: client}
}

func (p *AMQPPublisher) Publish(ctx context.Context, eventType, entityID string, payload interface{}) error {
	body, err := json.Marshal(Event{
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: time.Now(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.PublishWithRetry(ctx, eventType, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}

// NoopPublisher discards events. Used in tests and when the broker is
// not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, eventType, entityID string, payload interface{}) error {
	return nil
}
