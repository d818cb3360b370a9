package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Mastokube/internal/cluster"
	"github.com/shaiso/Mastokube/internal/domain"
	"github.com/shaiso/Mastokube/internal/engine"
	"github.com/shaiso/Mastokube/internal/mq"
	"github.com/shaiso/Mastokube/internal/repo"
	"github.com/shaiso/Mastokube/internal/telemetry"
)

// Default configuration values.
const (
	defaultMaxAttempts     = 3
	defaultRetryDelay      = 5 * time.Second
	defaultRetryMaxDelay   = 60 * time.Second
	defaultPollInterval    = 2 * time.Second
	defaultMaxPollInterval = 30 * time.Second
	defaultStageTimeout    = 10 * time.Minute
)

// Orchestrator выполняет план развёртывания против API кластера.
//
// Orchestrator — единственный поток управления:
//   - обходит граф стадий в топологическом порядке
//   - применяет ресурсы каждой стадии идемпотентно
//   - ждёт readiness кооперативным polling'ом с backoff
//   - извлекает SecretMaterial из вывода Job'а генерации секретов
//   - повторяет транзиентные сбои с экспоненциальной задержкой
//   - при прерывании отдаёт полный ledger прогресса стадий
type Orchestrator struct {
	cluster cluster.API
	plan    *domain.Plan

	// История (опционально)
	rollouts *repo.RolloutRepo
	events   *repo.StageEventRepo

	// События (опционально)
	publisher *mq.Publisher

	// Retry / polling
	maxAttempts     int
	retryDelay      time.Duration
	retryMaxDelay   time.Duration
	pollInterval    time.Duration
	maxPollInterval time.Duration
	stageTimeout    time.Duration

	logger *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Cluster — API кластера (обязательно).
	Cluster cluster.API

	// Plan — план развёртывания (обязательно).
	Plan *domain.Plan

	// Rollouts, Events — хранилище истории (опционально).
	Rollouts *repo.RolloutRepo
	Events   *repo.StageEventRepo

	// Publisher — издатель событий rollout (опционально).
	Publisher *mq.Publisher

	// Retry / polling
	MaxAttempts     int           // попыток на стадию (default: 3)
	RetryDelay      time.Duration // начальная задержка retry (default: 5s)
	RetryMaxDelay   time.Duration // максимальная задержка retry (default: 60s)
	PollInterval    time.Duration // начальный интервал polling (default: 2s)
	MaxPollInterval time.Duration // максимальный интервал polling (default: 30s)
	StageTimeout    time.Duration // таймаут readiness стадии (default: 10m)

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	retryMaxDelay := cfg.RetryMaxDelay
	if retryMaxDelay <= 0 {
		retryMaxDelay = defaultRetryMaxDelay
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	maxPollInterval := cfg.MaxPollInterval
	if maxPollInterval <= 0 {
		maxPollInterval = defaultMaxPollInterval
	}
	stageTimeout := cfg.StageTimeout
	if stageTimeout <= 0 {
		stageTimeout = defaultStageTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		cluster:         cfg.Cluster,
		plan:            cfg.Plan,
		rollouts:        cfg.Rollouts,
		events:          cfg.Events,
		publisher:       cfg.Publisher,
		maxAttempts:     maxAttempts,
		retryDelay:      retryDelay,
		retryMaxDelay:   retryMaxDelay,
		pollInterval:    pollInterval,
		maxPollInterval: maxPollInterval,
		stageTimeout:    stageTimeout,
		logger:          logger,
	}
}

// Plan возвращает план оркестратора.
func (o *Orchestrator) Plan() *domain.Plan {
	return o.plan
}

// Execute выполняет план целиком: топологический обход графа стадий,
// каждая стадия — apply → await-ready → (опционально) extract → COMPLETE.
//
// Повторный запуск безопасен: уже удовлетворённые ресурсы применяются
// как no-op. При прерывании возвращается ошибка с именем упавшей
// стадии, ledger пишется в лог.
func (o *Orchestrator) Execute(ctx context.Context) error {
	// Каждый запуск — свежая сверка: статусы стадий в памяти
	// сбрасываются, истина о состоянии живёт в самом кластере.
	// Удалённый вручную ресурс пересоздаётся, совпадающий — no-op.
	for _, stage := range o.plan.Stages {
		stage.Reset()
	}

	rollout := domain.NewRollout(o.plan.Environment, o.plan.Namespace)
	rollout.MarkRunning()
	o.recordRollout(ctx, rollout)

	o.logger.Info("rollout started",
		"rollout_id", rollout.ID,
		"environment", rollout.Environment,
		"namespace", rollout.Namespace,
		"stages", len(o.plan.Stages),
	)

	if err := o.cluster.EnsureNamespace(ctx, o.plan.Namespace); err != nil {
		return o.abort(ctx, rollout, fmt.Errorf("ensure namespace: %w", err))
	}

	dag, err := engine.BuildDAG(o.plan.Stages)
	if err != nil {
		return o.abort(ctx, rollout, err)
	}

	completed := make(map[domain.StageName]bool)
	for !dag.IsComplete(completed) {
		ready := dag.ReadyNodes(completed, nil)
		if len(ready) == 0 {
			return o.abort(ctx, rollout, engine.ErrCyclicDependency)
		}

		for _, node := range ready {
			if err := o.runStage(ctx, rollout, node.Stage); err != nil {
				return o.abort(ctx, rollout, err)
			}
			completed[node.ID] = true
		}
	}

	rollout.MarkComplete()
	o.finishRollout(ctx, rollout)
	o.publishRolloutFinished(ctx, rollout)
	telemetry.IncRollout("complete")

	o.logger.Info("rollout complete",
		"rollout_id", rollout.ID,
		"duration", rollout.Duration(),
	)
	return nil
}

// abort финализирует rollout после сбоя стадии и отдаёт ledger.
func (o *Orchestrator) abort(ctx context.Context, rollout *domain.Rollout, cause error) error {
	rollout.MarkAborted(cause.Error())
	o.finishRollout(ctx, rollout)
	o.publishRolloutFinished(ctx, rollout)
	telemetry.IncRollout("aborted")

	// Полный ledger: оператор видит, докуда дошёл rollout до сбоя.
	for _, record := range o.plan.Ledger() {
		o.logger.Info("ledger",
			"stage", record.Name,
			"status", record.Status,
			"attempt", record.Attempt,
			"error", record.Error,
		)
	}

	o.logger.Error("rollout aborted", "rollout_id", rollout.ID, "error", cause)
	return cause
}

// runStage выполняет одну стадию с retry транзиентных сбоев.
func (o *Orchestrator) runStage(ctx context.Context, rollout *domain.Rollout, stage *domain.Stage) error {
	logger := telemetry.WithStage(o.logger, string(stage.Name))
	delay := o.retryDelay

	for {
		started := time.Now()

		stage.MarkApplying()
		o.recordStageEvent(ctx, rollout, stage)

		err := o.applyStage(ctx, stage)
		if err == nil {
			stage.MarkAwaitingReady()
			o.recordStageEvent(ctx, rollout, stage)
			err = o.awaitReady(ctx, stage, o.stageTimeout)
		}
		if err == nil && stage.ExtractsSecrets {
			err = o.extractSecrets(ctx, stage)
		}

		if err == nil {
			stage.MarkReady()
			stage.MarkComplete()
			o.recordStageEvent(ctx, rollout, stage)
			o.publishStageCompleted(ctx, rollout, stage)
			telemetry.ObserveStage(string(stage.Name), "complete", time.Since(started))

			logger.Info("stage complete", "attempt", stage.Attempt)
			return nil
		}

		stage.MarkFailed(err.Error())
		o.recordStageEvent(ctx, rollout, stage)
		logger.Warn("stage failed", "attempt", stage.Attempt, "error", err)

		// Отмена: стадия остаётся в FAILED для возможного повторного
		// запуска, никогда не зависает в APPLYING.
		if ctx.Err() != nil {
			return fmt.Errorf("stage %s: %w", stage.Name, ctx.Err())
		}

		if !retryable(err) || !stage.CanRetry(o.maxAttempts) {
			stage.MarkAborted()
			o.recordStageEvent(ctx, rollout, stage)
			telemetry.ObserveStage(string(stage.Name), "aborted", time.Since(started))
			return fmt.Errorf("stage %s: %w", stage.Name, err)
		}

		telemetry.IncStageRetry(string(stage.Name))
		logger.Info("retrying stage", "delay", delay, "next_attempt", stage.Attempt+1)

		select {
		case <-ctx.Done():
			return fmt.Errorf("stage %s: %w", stage.Name, ctx.Err())
		case <-time.After(delay):
		}
		delay = min(delay*2, o.retryMaxDelay)
	}
}

// --- История и события (best-effort, nil-безопасно) ---

func (o *Orchestrator) recordRollout(ctx context.Context, rollout *domain.Rollout) {
	if o.rollouts == nil {
		return
	}
	if err := o.rollouts.Create(ctx, rollout); err != nil {
		o.logger.Warn("failed to record rollout", "rollout_id", rollout.ID, "error", err)
	}
}

func (o *Orchestrator) finishRollout(ctx context.Context, rollout *domain.Rollout) {
	if o.rollouts == nil {
		return
	}
	if err := o.rollouts.Finish(ctx, rollout); err != nil {
		o.logger.Warn("failed to finish rollout record", "rollout_id", rollout.ID, "error", err)
	}
}

func (o *Orchestrator) recordStageEvent(ctx context.Context, rollout *domain.Rollout, stage *domain.Stage) {
	if o.events == nil {
		return
	}
	event := domain.NewStageEvent(rollout.ID, stage)
	if err := o.events.Insert(ctx, event); err != nil {
		o.logger.Warn("failed to record stage event", "stage", stage.Name, "error", err)
	}
}

func (o *Orchestrator) publishStageCompleted(ctx context.Context, rollout *domain.Rollout, stage *domain.Stage) {
	if o.publisher == nil {
		return
	}
	payload := mq.StageCompletedPayload{
		RolloutID: rollout.ID,
		Stage:     string(stage.Name),
		Status:    string(stage.Status),
		Attempt:   stage.Attempt,
	}
	if err := o.publisher.PublishStageCompleted(ctx, payload); err != nil {
		// Не фатально: события — вспомогательный канал.
		o.logger.Warn("failed to publish stage.completed", "stage", stage.Name, "error", err)
	}
}

func (o *Orchestrator) publishRolloutFinished(ctx context.Context, rollout *domain.Rollout) {
	if o.publisher == nil {
		return
	}
	payload := mq.RolloutFinishedPayload{
		RolloutID:   rollout.ID,
		Environment: rollout.Environment,
		Status:      string(rollout.Status),
		Error:       rollout.Error,
	}
	if err := o.publisher.PublishRolloutFinished(ctx, payload); err != nil {
		o.logger.Warn("failed to publish rollout event", "rollout_id", rollout.ID, "error", err)
	}
}
