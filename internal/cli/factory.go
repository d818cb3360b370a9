package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shaiso/Mastokube/internal/cluster"
	"github.com/shaiso/Mastokube/internal/config"
	"github.com/shaiso/Mastokube/internal/domain"
	"github.com/shaiso/Mastokube/internal/engine"
	"github.com/shaiso/Mastokube/internal/mq"
	"github.com/shaiso/Mastokube/internal/orchestrator"
	"github.com/shaiso/Mastokube/internal/repo"
)

// Переменные окружения для опциональных подсистем.
const (
	// EnvDBURL — DSN PostgreSQL для истории rollouts.
	EnvDBURL = "MASTOKUBE_DB_URL"

	// EnvAMQPURL — URL RabbitMQ для публикации событий.
	EnvAMQPURL = "MASTOKUBE_AMQP_URL"
)

// Factory собирает оркестратор из конфигурации и флагов.
//
// История (PostgreSQL) и события (RabbitMQ) включаются переменными
// окружения: без них оркестратор работает полностью автономно.
type Factory struct {
	// ConfigPath — путь к YAML-файлу окружения.
	ConfigPath string

	// Kubeconfig — путь к kubeconfig (пусто: in-cluster, затем ~/.kube/config).
	Kubeconfig string

	// JSON — вывод данных команд в JSON.
	JSON bool

	Logger *slog.Logger
}

// Environment загружает и валидирует конфигурацию окружения.
func (f *Factory) Environment() (*config.Environment, error) {
	return config.Load(f.ConfigPath)
}

// Output создаёт Output в выбранном режиме.
func (f *Factory) Output() *Output {
	return NewOutput(f.JSON)
}

// Plan строит план развёртывания без подключения к кластеру.
func (f *Factory) Plan() (*config.Environment, *domain.Plan, error) {
	env, err := f.Environment()
	if err != nil {
		return nil, nil, err
	}
	plan, err := engine.BuildPlan(env)
	if err != nil {
		return nil, nil, err
	}
	return env, plan, nil
}

// History подключает хранилище истории rollouts.
// Возвращаемая функция закрывает пул соединений.
func (f *Factory) History(ctx context.Context) (*repo.RolloutRepo, *repo.StageEventRepo, func(), error) {
	dsn := os.Getenv(EnvDBURL)
	if dsn == "" {
		return nil, nil, nil, fmt.Errorf("history requires %s to be set", EnvDBURL)
	}
	pool, err := repo.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to history db: %w", err)
	}
	return repo.NewRolloutRepo(pool), repo.NewStageEventRepo(pool), pool.Close, nil
}

// Orchestrator собирает оркестратор с подключением к кластеру.
// Возвращаемая функция закрывает опциональные соединения.
func (f *Factory) Orchestrator(ctx context.Context) (*orchestrator.Orchestrator, func(), error) {
	env, plan, err := f.Plan()
	if err != nil {
		return nil, nil, err
	}

	kube, err := cluster.NewKube(f.Kubeconfig, f.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to cluster: %w", err)
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	cfg := orchestrator.Config{
		Cluster:       kube,
		Plan:          plan,
		MaxAttempts:   env.Retry.MaxAttempts,
		RetryDelay:    env.RetryInitialDelay(),
		RetryMaxDelay: env.RetryMaxDelay(),
		PollInterval:  env.PollInterval(),
		StageTimeout:  env.StageTimeout(),
		Logger:        f.Logger,
	}

	// История rollouts — опционально.
	if dsn := os.Getenv(EnvDBURL); dsn != "" {
		pool, err := repo.NewPool(ctx, dsn)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to history db: %w", err)
		}
		closers = append(closers, pool.Close)
		cfg.Rollouts = repo.NewRolloutRepo(pool)
		cfg.Events = repo.NewStageEventRepo(pool)
	} else {
		f.Logger.Debug("history db not configured, rollouts will not be recorded")
	}

	// События rollout — опционально.
	if url := os.Getenv(EnvAMQPURL); url != "" {
		conn, err := mq.NewConnection(url, f.Logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to amqp: %w", err)
		}
		closers = append(closers, func() { conn.Close() })

		if err := mq.SetupTopology(ctx, conn); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("setup amqp topology: %w", err)
		}
		cfg.Publisher = mq.NewPublisher(conn, f.Logger)
	} else {
		f.Logger.Debug("amqp not configured, rollout events will not be published")
	}

	return orchestrator.New(cfg), cleanup, nil
}
