package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DispatchEvent mirrors a committed assignment onto the broker so external
// systems (billing, CRM, reporting) can react to dispatches. It is published
// only after the database commit, never before.
type DispatchEvent struct {
	AssignmentID string    `json:"assignment_id"`
	LeadID       string    `json:"lead_id"`
	WorkerID     string    `json:"worker_id"`
	Service      string    `json:"service"`
	City         string    `json:"city"`
	DistanceKM   float64   `json:"distance_km"`
	AssignedAt   time.Time `json:"assigned_at"`
}

type DispatchEventPublisher interface {
	PublishDispatch(ctx context.Context, event DispatchEvent) error
}

type RabbitMQPublisher struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewPublisher(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *RabbitMQPublisher) PublishDispatch(ctx context.Context, event DispatchEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch event: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // survives broker restarts
		},
	)

	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}

	return nil
}
