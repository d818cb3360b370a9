package cluster

import (
	"context"
	"errors"
	"io"

	"github.com/shaiso/Mastokube/internal/domain"
)

// Ошибки слоя кластера.
var (
	// ErrUnsupportedKind — оркестратор не умеет применять такой вид ресурса.
	ErrUnsupportedKind = errors.New("unsupported resource kind")

	// ErrResourceBroken — ресурс перешёл в наблюдаемо сломанное состояние
	// (например, claim в фазе Lost) и readiness уже не наступит.
	ErrResourceBroken = errors.New("resource entered broken state")

	// ErrNoJobPods — у Job нет подов, логи недоступны.
	ErrNoJobPods = errors.New("job has no pods")
)

// Outcome — результат идемпотентного apply одного ресурса.
type Outcome string

const (
	// OutcomeCreated — ресурс создан.
	OutcomeCreated Outcome = "created"

	// OutcomeConfigured — ресурс существовал и был обновлён на месте.
	OutcomeConfigured Outcome = "configured"

	// OutcomeUnchanged — желаемое состояние уже в кластере, мутаций не было.
	OutcomeUnchanged Outcome = "unchanged"
)

// JobPhase — фаза выполнения Job.
type JobPhase string

const (
	JobPending   JobPhase = "pending"
	JobActive    JobPhase = "active"
	JobSucceeded JobPhase = "succeeded"
	JobFailed    JobPhase = "failed"
)

// JobState — наблюдаемое состояние Job.
type JobState struct {
	Phase JobPhase

	// Reason — сообщение условия Failed (пусто для остальных фаз).
	Reason string
}

// API — единственная внешняя зависимость оркестратора: операции над
// типизированными объектами кластера плюс стриминг логов подов Job'ов.
//
// Namespace передаётся явно в каждый вызов. Реализации обязаны читать
// актуальное состояние кластера, а не кэш: оркестратор — единственный
// писатель своих ресурсов, но должен переживать параллельные правки
// оператора.
type API interface {
	// EnsureNamespace создаёт namespace, если его ещё нет.
	EnsureNamespace(ctx context.Context, namespace string) error

	// Apply идемпотентно применяет ресурс: создаёт отсутствующий,
	// обновляет изменённый, не трогает совпадающий.
	Apply(ctx context.Context, namespace string, res *domain.Resource) (Outcome, error)

	// Exists проверяет существование ресурса.
	Exists(ctx context.Context, namespace string, ref domain.Reference) (bool, error)

	// Delete удаляет ресурс. Отсутствие ресурса — не ошибка.
	Delete(ctx context.Context, namespace string, ref domain.Reference) error

	// ClaimBound проверяет, что claim в фазе Bound.
	// Для фазы Lost возвращает ошибку ErrResourceBroken.
	ClaimBound(ctx context.Context, namespace, name string) (bool, error)

	// EndpointsReady проверяет, что у Service есть готовые endpoints.
	EndpointsReady(ctx context.Context, namespace, service string) (bool, error)

	// CheckJob возвращает наблюдаемое состояние Job.
	CheckJob(ctx context.Context, namespace, name string) (JobState, error)

	// JobLogs открывает стрим логов пода Job'а.
	JobLogs(ctx context.Context, namespace, jobName string) (io.ReadCloser, error)
}
