package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики оркестратора. Экспортируются на /metrics в режиме watch.
var (
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mastokube_stage_duration_seconds",
		Help:    "Duration of stage execution attempts by result.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"stage", "result"})

	stageRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mastokube_stage_retries_total",
		Help: "Number of stage retry attempts.",
	}, []string{"stage"})

	rollouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mastokube_rollouts_total",
		Help: "Number of finished rollouts by result.",
	}, []string{"result"})
)

// ObserveStage фиксирует длительность выполнения стадии.
func ObserveStage(stage, result string, d time.Duration) {
	stageDuration.WithLabelValues(stage, result).Observe(d.Seconds())
}

// IncStageRetry увеличивает счётчик retry стадии.
func IncStageRetry(stage string) {
	stageRetries.WithLabelValues(stage).Inc()
}

// IncRollout увеличивает счётчик завершённых rollouts.
func IncRollout(result string) {
	rollouts.WithLabelValues(result).Inc()
}
