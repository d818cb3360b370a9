// Package mq публикует события rollout в RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange, queue, binding
//   - publisher.go  — публикация событий
//
// Типы сообщений:
//   - stage.completed  — стадия достигла COMPLETE
//   - rollout.finished — rollout завершился успешно
//   - rollout.aborted  — rollout прерван
//
// Exchange mastokube.rollouts (topic); очередь rollouts.audit
// собирает все события для внешних потребителей. Канал событий
// опциональный: без RabbitMQ оркестратор работает как обычно.
package mq
