package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeStageCompleted  MessageType = "stage.completed"
	MessageTypeRolloutFinished MessageType = "rollout.finished"
	MessageTypeRolloutAborted  MessageType = "rollout.aborted"
)

// Publisher публикует события rollout в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// StageCompletedPayload — payload события о завершённой стадии.
// Секреты и содержимое ресурсов в события не попадают.
type StageCompletedPayload struct {
	RolloutID uuid.UUID `json:"rollout_id"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	Attempt   int       `json:"attempt"`
}

// RolloutFinishedPayload — payload события о завершённом rollout.
type RolloutFinishedPayload struct {
	RolloutID   uuid.UUID `json:"rollout_id"`
	Environment string    `json:"environment"`
	Status      string    `json:"status"` // COMPLETE или ABORTED
	Error       string    `json:"error,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishStageCompleted публикует событие о завершённой стадии.
func (p *Publisher) PublishStageCompleted(ctx context.Context, payload StageCompletedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeStageCompleted,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeRollouts, RoutingKeyStageCompleted, msg)
}

// PublishRolloutFinished публикует терминальное событие rollout.
// Routing key зависит от результата: rollout.finished или rollout.aborted.
func (p *Publisher) PublishRolloutFinished(ctx context.Context, payload RolloutFinishedPayload) error {
	msgType := MessageTypeRolloutFinished
	routingKey := RoutingKeyRolloutFinished
	if payload.Status == "ABORTED" {
		msgType = MessageTypeRolloutAborted
		routingKey = RoutingKeyRolloutAborted
	}

	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeRollouts, routingKey, msg)
}
