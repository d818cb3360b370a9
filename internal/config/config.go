package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
	"k8s.io/apimachinery/pkg/api/resource"
)

// ErrValidation — конфигурация окружения не прошла валидацию.
// Возвращается на этапе построения плана, до любых обращений к кластеру.
var ErrValidation = errors.New("invalid environment configuration")

// Значения по умолчанию.
const (
	defaultNamespace      = "mastodon"
	defaultMastodonImage  = "ghcr.io/mastodon/mastodon:v4.3.2"
	defaultPostgresImage  = "postgres:15-alpine"
	defaultRedisImage     = "redis:7-alpine"
	defaultIngressClass   = "nginx"
	defaultMaxAttempts    = 3
	defaultRetryDelaySec  = 5
	defaultRetryMaxSec    = 60
	defaultStageTimeout   = 10 * time.Minute
	defaultPollInterval   = 2 * time.Second
	defaultWatchSchedule  = "@every 5m"
	defaultPostgresSize   = "10Gi"
	defaultRedisSize      = "1Gi"
	defaultSystemSize     = "20Gi"
)

// Environment — конфигурация целевого окружения.
//
// Загружается из YAML-файла в strict-режиме: неизвестные поля
// отклоняются при построении плана, а не при apply.
type Environment struct {
	// Domain — домен инстанса (LOCAL_DOMAIN).
	Domain string `yaml:"domain"`

	// Namespace — namespace кластера для всех ресурсов.
	Namespace string `yaml:"namespace"`

	// NFS — параметры NFS-хранилища.
	NFS NFS `yaml:"nfs"`

	// Images — образы контейнеров.
	Images Images `yaml:"images"`

	// Replicas — количество реплик компонентов приложения.
	Replicas Replicas `yaml:"replicas"`

	// Storage — размеры томов.
	Storage Storage `yaml:"storage"`

	// SMTP — параметры исходящей почты.
	SMTP SMTP `yaml:"smtp"`

	// ForceSSL — принудительный редирект на HTTPS в Ingress.
	ForceSSL bool `yaml:"force_ssl"`

	// IngressClass — имя ingress class.
	IngressClass string `yaml:"ingress_class"`

	// Retry — настройки повторных попыток стадий.
	Retry Retry `yaml:"retry"`

	// Timeouts — таймауты readiness и polling.
	Timeouts Timeouts `yaml:"timeouts"`

	// Watch — расписание периодического reconcile (режим watch).
	Watch Watch `yaml:"watch"`
}

// NFS — параметры NFS-сервера и экспортируемых путей.
type NFS struct {
	// Server — адрес NFS-сервера.
	Server string `yaml:"server"`

	// PostgresPath — путь экспорта для данных PostgreSQL.
	PostgresPath string `yaml:"postgres_path"`

	// RedisPath — путь экспорта для данных Redis.
	RedisPath string `yaml:"redis_path"`

	// SystemPath — путь экспорта для public/system (медиа и ассеты).
	SystemPath string `yaml:"system_path"`
}

// Images — ссылки на образы контейнеров с версиями.
type Images struct {
	Mastodon string `yaml:"mastodon"`
	Postgres string `yaml:"postgres"`
	Redis    string `yaml:"redis"`
}

// Replicas — количество реплик компонентов приложения.
type Replicas struct {
	Web       int32 `yaml:"web"`
	Streaming int32 `yaml:"streaming"`
	Sidekiq   int32 `yaml:"sidekiq"`
}

// Storage — размеры томов (в формате Kubernetes quantity).
type Storage struct {
	Postgres string `yaml:"postgres"`
	Redis    string `yaml:"redis"`
	System   string `yaml:"system"`
}

// SMTP — параметры исходящей почты инстанса.
type SMTP struct {
	Server string `yaml:"server"`
	Port   int    `yaml:"port"`
	From   string `yaml:"from"`
}

// Retry — настройки retry стадий с экспоненциальной задержкой.
type Retry struct {
	// MaxAttempts — максимум попыток на стадию (включая первую).
	MaxAttempts int `yaml:"max_attempts"`

	// InitialDelaySec — начальная задержка между попытками.
	InitialDelaySec int `yaml:"initial_delay_sec"`

	// MaxDelaySec — максимальная задержка между попытками.
	MaxDelaySec int `yaml:"max_delay_sec"`
}

// Timeouts — таймауты ожидания readiness.
type Timeouts struct {
	// StageSec — таймаут readiness одной стадии.
	StageSec int `yaml:"stage_sec"`

	// PollIntervalSec — начальный интервал polling readiness probe.
	PollIntervalSec int `yaml:"poll_interval_sec"`
}

// Watch — расписание периодического reconcile.
type Watch struct {
	// Schedule — cron-выражение (поддерживается формат robfig/cron,
	// включая "@every 5m").
	Schedule string `yaml:"schedule"`
}

// Load читает конфигурацию окружения из YAML-файла.
//
// Декодирование strict: неизвестное поле — ошибка ErrValidation.
// После декодирования применяются значения по умолчанию и валидация.
func Load(path string) (*Environment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse декодирует и валидирует конфигурацию из байтов YAML.
func Parse(raw []byte) (*Environment, error) {
	var env Environment
	if err := yaml.UnmarshalStrict(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	env.applyDefaults()

	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

// applyDefaults заполняет незаданные поля значениями по умолчанию.
func (e *Environment) applyDefaults() {
	if e.Namespace == "" {
		e.Namespace = defaultNamespace
	}
	if e.Images.Mastodon == "" {
		e.Images.Mastodon = defaultMastodonImage
	}
	if e.Images.Postgres == "" {
		e.Images.Postgres = defaultPostgresImage
	}
	if e.Images.Redis == "" {
		e.Images.Redis = defaultRedisImage
	}
	if e.Replicas.Web <= 0 {
		e.Replicas.Web = 1
	}
	if e.Replicas.Streaming <= 0 {
		e.Replicas.Streaming = 1
	}
	if e.Replicas.Sidekiq <= 0 {
		e.Replicas.Sidekiq = 1
	}
	if e.Storage.Postgres == "" {
		e.Storage.Postgres = defaultPostgresSize
	}
	if e.Storage.Redis == "" {
		e.Storage.Redis = defaultRedisSize
	}
	if e.Storage.System == "" {
		e.Storage.System = defaultSystemSize
	}
	if e.IngressClass == "" {
		e.IngressClass = defaultIngressClass
	}
	if e.Retry.MaxAttempts <= 0 {
		e.Retry.MaxAttempts = defaultMaxAttempts
	}
	if e.Retry.InitialDelaySec <= 0 {
		e.Retry.InitialDelaySec = defaultRetryDelaySec
	}
	if e.Retry.MaxDelaySec <= 0 {
		e.Retry.MaxDelaySec = defaultRetryMaxSec
	}
	if e.Timeouts.StageSec <= 0 {
		e.Timeouts.StageSec = int(defaultStageTimeout / time.Second)
	}
	if e.Timeouts.PollIntervalSec <= 0 {
		e.Timeouts.PollIntervalSec = int(defaultPollInterval / time.Second)
	}
	if e.Watch.Schedule == "" {
		e.Watch.Schedule = defaultWatchSchedule
	}
}

// Validate проверяет обязательные поля и форматы значений.
func (e *Environment) Validate() error {
	if e.Domain == "" {
		return fmt.Errorf("%w: domain is required", ErrValidation)
	}
	if e.NFS.Server == "" {
		return fmt.Errorf("%w: nfs.server is required", ErrValidation)
	}
	if e.NFS.PostgresPath == "" || e.NFS.RedisPath == "" || e.NFS.SystemPath == "" {
		return fmt.Errorf("%w: nfs export paths are required", ErrValidation)
	}
	for _, size := range []struct {
		field string
		value string
	}{
		{"storage.postgres", e.Storage.Postgres},
		{"storage.redis", e.Storage.Redis},
		{"storage.system", e.Storage.System},
	} {
		if _, err := resource.ParseQuantity(size.value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrValidation, size.field, err)
		}
	}
	return nil
}

// StageTimeout возвращает таймаут readiness одной стадии.
func (e *Environment) StageTimeout() time.Duration {
	return time.Duration(e.Timeouts.StageSec) * time.Second
}

// PollInterval возвращает начальный интервал polling.
func (e *Environment) PollInterval() time.Duration {
	return time.Duration(e.Timeouts.PollIntervalSec) * time.Second
}

// RetryInitialDelay возвращает начальную задержку retry.
func (e *Environment) RetryInitialDelay() time.Duration {
	return time.Duration(e.Retry.InitialDelaySec) * time.Second
}

// RetryMaxDelay возвращает максимальную задержку retry.
func (e *Environment) RetryMaxDelay() time.Duration {
	return time.Duration(e.Retry.MaxDelaySec) * time.Second
}
