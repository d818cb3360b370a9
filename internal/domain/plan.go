package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan — план развёртывания для одного целевого окружения.
//
// Plan создаётся один раз из конфигурации окружения, выполняется
// до завершения или сбоя и допускает повторный запуск: уже
// удовлетворённые стадии повторно применяются как no-op.
type Plan struct {
	// ID — уникальный идентификатор плана.
	ID uuid.UUID `json:"id"`

	// Environment — домен инстанса (идентификатор окружения).
	Environment string `json:"environment"`

	// Namespace — namespace кластера, в котором живут все ресурсы.
	// Передаётся явно в каждый вызов API, без ambient-контекста.
	Namespace string `json:"namespace"`

	// Stages — стадии в объявленном порядке.
	Stages []*Stage `json:"stages"`

	// Material — извлечённый SecretMaterial. Заполняется стадией
	// secret-generation, потребляется config-materialization.
	// Никогда не сериализуется и не логируется.
	Material *SecretMaterial `json:"-"`

	// CreatedAt — время построения плана.
	CreatedAt time.Time `json:"created_at"`
}

// Stage возвращает стадию по имени или nil.
func (p *Plan) Stage(name StageName) *Stage {
	for _, st := range p.Stages {
		if st.Name == name {
			return st
		}
	}
	return nil
}

// Status возвращает статус плана, производный от статусов стадий.
func (p *Plan) Status() RolloutStatus {
	started := false
	for _, st := range p.Stages {
		switch st.Status {
		case StageAborted:
			return RolloutAborted
		case StagePending:
			continue
		default:
			started = true
		}
	}
	if !started {
		return RolloutPending
	}
	for _, st := range p.Stages {
		if st.Status != StageComplete {
			return RolloutRunning
		}
	}
	return RolloutComplete
}

// StageRecord — строка ledger'а выполнения.
type StageRecord struct {
	Name       StageName   `json:"name"`
	Status     StageStatus `json:"status"`
	Attempt    int         `json:"attempt"`
	StartedAt  *time.Time  `json:"started_at,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Ledger возвращает снимок прогресса всех стадий в объявленном порядке.
// По нему оператор видит, насколько далеко продвинулся rollout до сбоя.
func (p *Plan) Ledger() []StageRecord {
	records := make([]StageRecord, 0, len(p.Stages))
	for _, st := range p.Stages {
		records = append(records, StageRecord{
			Name:       st.Name,
			Status:     st.Status,
			Attempt:    st.Attempt,
			StartedAt:  st.StartedAt,
			FinishedAt: st.FinishedAt,
			Error:      st.Error,
		})
	}
	return records
}
