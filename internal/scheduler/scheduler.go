package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер выражений расписания.
// Поддерживает стандартный cron и дескрипторы вида "@every 5m".
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Reconciler периодически выполняет сверку кластера с планом.
//
// Тик, пришедший во время выполняющейся сверки, пропускается:
// два параллельных rollout против одного namespace недопустимы.
type Reconciler struct {
	schedule string
	run      func(ctx context.Context) error
	logger   *slog.Logger

	cron    *cron.Cron
	running atomic.Bool
}

// Config — конфигурация Reconciler.
type Config struct {
	// Schedule — cron-выражение или дескриптор ("@every 5m").
	Schedule string

	// Run — функция сверки (обязательно).
	Run func(ctx context.Context) error

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Reconciler.
func New(cfg Config) (*Reconciler, error) {
	if _, err := cronParser.Parse(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		schedule: cfg.Schedule,
		run:      cfg.Run,
		logger:   logger,
		cron:     cron.New(cron.WithParser(cronParser)),
	}, nil
}

// Start запускает расписание и блокируется до отмены ctx.
// Первая сверка выполняется сразу, не дожидаясь первого тика.
func (r *Reconciler) Start(ctx context.Context) error {
	r.tick(ctx)

	_, err := r.cron.AddFunc(r.schedule, func() { r.tick(ctx) })
	if err != nil {
		return fmt.Errorf("schedule reconcile: %w", err)
	}

	r.cron.Start()
	r.logger.Info("reconciler started", "schedule", r.schedule)

	<-ctx.Done()

	// Дожидаемся завершения запущенных тиков.
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()

	r.logger.Info("reconciler stopped")
	return ctx.Err()
}

// tick выполняет одну сверку, если предыдущая уже завершилась.
func (r *Reconciler) tick(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Warn("previous reconcile still in progress, skipping tick")
		return
	}
	defer r.running.Store(false)

	if err := r.run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		// Не фатально: следующий тик попробует снова.
		r.logger.Error("reconcile failed", "error", err)
		return
	}

	r.logger.Info("reconcile complete")
}
