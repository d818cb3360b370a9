// Package telemetry содержит настройку структурированного логирования
// и Prometheus-метрики оркестратора.
package telemetry
