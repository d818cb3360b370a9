package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeRollouts Exchange = "mastokube.rollouts"
)

// Queues — имена очередей.
const (
	// QueueRolloutAudit собирает все события rollout для внешних
	// потребителей (алерты, дашборды). Сам оркестратор её не читает.
	QueueRolloutAudit Queue = "rollouts.audit"
)

// Routing keys.
const (
	RoutingKeyStageCompleted  RoutingKey = "stage.completed"
	RoutingKeyRolloutFinished RoutingKey = "rollout.finished"
	RoutingKeyRolloutAborted  RoutingKey = "rollout.aborted"
)

func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeRollouts), // name
			"topic",                  // type
			true,                     // durable
			false,                    // auto-deleted
			false,                    // internal
			false,                    // no-wait
			nil,                      // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeRollouts, err)
		}

		_, err = ch.QueueDeclare(
			string(QueueRolloutAudit), // name
			true,                      // durable
			false,                     // delete when unused
			false,                     // exclusive
			false,                     // no-wait
			nil,                       // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueRolloutAudit, err)
		}

		err = ch.QueueBind(
			string(QueueRolloutAudit),
			"#", // все события rollout
			string(ExchangeRollouts),
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("bind queue %s: %w", QueueRolloutAudit, err)
		}

		return nil
	})
}
