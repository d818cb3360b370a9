package config

import (
	"errors"
	"testing"
	"time"
)

const validYAML = `
domain: social.example.org
nfs:
  server: 192.168.1.10
  postgres_path: /export/pg
  redis_path: /export/redis
  system_path: /export/system
`

func TestParse_Defaults(t *testing.T) {
	env, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if env.Namespace != "mastodon" {
		t.Errorf("expected default namespace, got %q", env.Namespace)
	}
	if env.Images.Postgres != "postgres:15-alpine" {
		t.Errorf("unexpected postgres image: %q", env.Images.Postgres)
	}
	if env.Replicas.Web != 1 || env.Replicas.Streaming != 1 || env.Replicas.Sidekiq != 1 {
		t.Errorf("expected single replicas by default, got %+v", env.Replicas)
	}
	if env.Storage.Postgres != "10Gi" {
		t.Errorf("unexpected postgres size: %q", env.Storage.Postgres)
	}
	if env.Retry.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", env.Retry.MaxAttempts)
	}
	if env.StageTimeout() != 10*time.Minute {
		t.Errorf("unexpected stage timeout: %s", env.StageTimeout())
	}
	if env.PollInterval() != 2*time.Second {
		t.Errorf("unexpected poll interval: %s", env.PollInterval())
	}
	if env.Watch.Schedule != "@every 5m" {
		t.Errorf("unexpected watch schedule: %q", env.Watch.Schedule)
	}
}

func TestParse_UnknownField(t *testing.T) {
	// Strict-режим: опечатка в имени поля — ошибка валидации.
	_, err := Parse([]byte(validYAML + "domian_typo: oops\n"))
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestParse_MissingRequired(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no domain", `
nfs:
  server: 192.168.1.10
  postgres_path: /export/pg
  redis_path: /export/redis
  system_path: /export/system
`},
		{"no nfs server", `
domain: social.example.org
nfs:
  postgres_path: /export/pg
  redis_path: /export/redis
  system_path: /export/system
`},
		{"no export paths", `
domain: social.example.org
nfs:
  server: 192.168.1.10
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestParse_InvalidQuantity(t *testing.T) {
	_, err := Parse([]byte(validYAML + `
storage:
  postgres: ten-gigabytes
`))
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestParse_Overrides(t *testing.T) {
	env, err := Parse([]byte(validYAML + `
namespace: fediverse
replicas:
  web: 3
retry:
  max_attempts: 5
timeouts:
  stage_sec: 120
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if env.Namespace != "fediverse" {
		t.Errorf("expected namespace override, got %q", env.Namespace)
	}
	if env.Replicas.Web != 3 {
		t.Errorf("expected 3 web replicas, got %d", env.Replicas.Web)
	}
	if env.Retry.MaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", env.Retry.MaxAttempts)
	}
	if env.StageTimeout() != 2*time.Minute {
		t.Errorf("unexpected stage timeout: %s", env.StageTimeout())
	}
	// Незаданные поля по-прежнему получают defaults.
	if env.Replicas.Sidekiq != 1 {
		t.Errorf("expected default sidekiq replicas, got %d", env.Replicas.Sidekiq)
	}
}
