package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rollout — запись об одном выполнении плана.
//
// Rollout создаётся при каждом запуске Execute и сохраняется в
// истории (если настроено хранилище), чтобы оператор мог видеть,
// когда и с каким результатом выполнялись развёртывания.
type Rollout struct {
	// ID — уникальный идентификатор rollout.
	ID uuid.UUID `json:"id"`

	// Environment — домен инстанса.
	Environment string `json:"environment"`

	// Namespace — namespace кластера.
	Namespace string `json:"namespace"`

	// Status — текущий статус.
	Status RolloutStatus `json:"status"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки при ABORTED (с именем упавшей стадии).
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// NewRollout создаёт Rollout в статусе PENDING.
func NewRollout(environment, namespace string) *Rollout {
	return &Rollout{
		ID:          uuid.New(),
		Environment: environment,
		Namespace:   namespace,
		Status:      RolloutPending,
		CreatedAt:   time.Now(),
	}
}

// MarkRunning переводит rollout в RUNNING.
func (r *Rollout) MarkRunning() {
	now := time.Now()
	r.Status = RolloutRunning
	r.StartedAt = &now
}

// MarkComplete переводит rollout в COMPLETE.
func (r *Rollout) MarkComplete() {
	now := time.Now()
	r.Status = RolloutComplete
	r.FinishedAt = &now
}

// MarkAborted переводит rollout в ABORTED с ошибкой.
func (r *Rollout) MarkAborted(err string) {
	now := time.Now()
	r.Status = RolloutAborted
	r.FinishedAt = &now
	r.Error = err
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если rollout ещё не завершён.
func (r *Rollout) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// StageEvent — событие перехода стадии (строка истории).
type StageEvent struct {
	ID        uuid.UUID   `json:"id"`
	RolloutID uuid.UUID   `json:"rollout_id"`
	Stage     StageName   `json:"stage"`
	Status    StageStatus `json:"status"`
	Attempt   int         `json:"attempt"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewStageEvent создаёт событие для текущего состояния стадии.
func NewStageEvent(rolloutID uuid.UUID, st *Stage) *StageEvent {
	return &StageEvent{
		ID:        uuid.New(),
		RolloutID: rolloutID,
		Stage:     st.Name,
		Status:    st.Status,
		Attempt:   st.Attempt,
		Error:     st.Error,
		CreatedAt: time.Now(),
	}
}
