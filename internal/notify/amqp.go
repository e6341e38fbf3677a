// Package notify delivers user-facing output through the platform gateway:
// direct messages and view publishes go out as JSON messages on RabbitMQ
// queues the gateway consumes.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	dmQueue   = "SlackDirectMessages"
	viewQueue = "SlackViewUpdates"
)

// directMessage is the payload the gateway turns into conversations.open +
// chat.postMessage.
type directMessage struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// viewUpdate is the payload the gateway turns into views.open /
// views.update / views.publish.
type viewUpdate struct {
	Kind      string         `json:"kind"` // open | update | publish
	TriggerID string         `json:"trigger_id,omitempty"`
	ViewID    string         `json:"view_id,omitempty"`
	Hash      string         `json:"hash,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	View      map[string]any `json:"view"`
}

// AmqpGateway publishes outbound platform traffic to RabbitMQ.
type AmqpGateway struct {
	channel *amqp.Channel
}

// NewAmqpGateway connects to RabbitMQ and declares the outbound queues.
func NewAmqpGateway(amqpURL string) (*AmqpGateway, func(), error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	for _, queue := range []string{dmQueue, viewQueue} {
		if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			channel.Close()
			conn.Close()
			return nil, nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
	}

	cleanup := func() {
		channel.Close()
		conn.Close()
	}
	return &AmqpGateway{channel: channel}, cleanup, nil
}

func (g *AmqpGateway) publish(ctx context.Context, queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return g.channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// SendDM queues a direct message for delivery to the given user.
func (g *AmqpGateway) SendDM(ctx context.Context, userID, text string) error {
	return g.publish(ctx, dmQueue, directMessage{UserID: userID, Text: text})
}

// OpenModal queues a modal open against the given interactivity trigger.
func (g *AmqpGateway) OpenModal(ctx context.Context, triggerID string, view map[string]any) error {
	return g.publish(ctx, viewQueue, viewUpdate{Kind: "open", TriggerID: triggerID, View: view})
}

// UpdateModal queues an in-place modal update.
func (g *AmqpGateway) UpdateModal(ctx context.Context, viewID, hash string, view map[string]any) error {
	return g.publish(ctx, viewQueue, viewUpdate{Kind: "update", ViewID: viewID, Hash: hash, View: view})
}

// PublishHome queues an App Home publish for the given user.
func (g *AmqpGateway) PublishHome(ctx context.Context, userID string, view map[string]any) error {
	return g.publish(ctx, viewQueue, viewUpdate{Kind: "publish", UserID: userID, View: view})
}
