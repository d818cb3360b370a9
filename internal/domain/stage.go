package domain

import "time"

// StageName — имя стадии плана развёртывания.
type StageName string

// Стадии развёртывания Mastodon.
const (
	// StageStorage — NFS PersistentVolumes и Claims.
	StageStorage StageName = "storage"

	// StageCoreServices — PostgreSQL и Redis.
	StageCoreServices StageName = "core-services"

	// StageSecretGeneration — Job, генерирующий ключи приложения.
	StageSecretGeneration StageName = "secret-generation"

	// StageConfigMaterialization — Secret и ConfigMap с конфигурацией приложения.
	StageConfigMaterialization StageName = "config-materialization"

	// StageApplicationServices — web, streaming и sidekiq.
	StageApplicationServices StageName = "application-services"

	// StageMigration — Job db:migrate.
	StageMigration StageName = "migration"

	// StageExposure — Ingress, публикующий инстанс наружу.
	StageExposure StageName = "exposure"
)

// ProbeKind — вид readiness probe стадии.
type ProbeKind string

const (
	// ProbeNone — стадия готова сразу после успешного apply.
	ProbeNone ProbeKind = "none"

	// ProbeClaimsBound — все PersistentVolumeClaims стадии в фазе Bound.
	ProbeClaimsBound ProbeKind = "claims-bound"

	// ProbeEndpoints — все Services стадии имеют готовые endpoints.
	ProbeEndpoints ProbeKind = "endpoints-ready"

	// ProbeJobComplete — Job стадии достиг терминального успеха.
	ProbeJobComplete ProbeKind = "job-complete"
)

// Stage — именованная единица плана развёртывания.
//
// Стадия объявляет свои зависимости (DependsOn) и начинает выполняться
// только когда все они достигли COMPLETE. Ресурсы внутри стадии
// применяются идемпотентно, порядок их применения не специфицирован.
type Stage struct {
	// Name — имя стадии.
	Name StageName `json:"name"`

	// DependsOn — стадии, которые должны завершиться до этой.
	DependsOn []StageName `json:"depends_on,omitempty"`

	// Resources — декларации ресурсов кластера.
	Resources []Resource `json:"-"`

	// Probe — вид readiness probe.
	Probe ProbeKind `json:"probe"`

	// ExtractsSecrets — true, если после readiness нужно извлечь
	// SecretMaterial из вывода Job стадии.
	ExtractsSecrets bool `json:"extracts_secrets,omitempty"`

	// NeedsMaterial — true, если apply стадии требует SecretMaterial
	// (стадия материализации конфигурации).
	NeedsMaterial bool `json:"needs_material,omitempty"`

	// Status — текущий статус стадии.
	Status StageStatus `json:"status"`

	// Attempt — номер попытки (начиная с 1, увеличивается при retry).
	Attempt int `json:"attempt"`

	// StartedAt — время первого перехода в APPLYING.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время перехода в терминальный статус.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст последней ошибки.
	Error string `json:"error,omitempty"`
}

// MarkApplying переводит стадию в APPLYING и увеличивает счётчик попыток.
func (s *Stage) MarkApplying() {
	now := time.Now()
	s.Status = StageApplying
	s.Attempt++
	if s.StartedAt == nil {
		s.StartedAt = &now
	}
}

// MarkAwaitingReady переводит стадию в AWAITING_READY.
func (s *Stage) MarkAwaitingReady() {
	s.Status = StageAwaitingReady
}

// MarkReady переводит стадию в READY.
func (s *Stage) MarkReady() {
	s.Status = StageReady
}

// MarkComplete переводит стадию в COMPLETE.
func (s *Stage) MarkComplete() {
	now := time.Now()
	s.Status = StageComplete
	s.FinishedAt = &now
	s.Error = ""
}

// MarkFailed переводит стадию в FAILED с текстом ошибки.
// Из FAILED возможен retry (MarkApplying) или MarkAborted.
func (s *Stage) MarkFailed(err string) {
	s.Status = StageFailed
	s.Error = err
}

// MarkAborted переводит стадию в ABORTED после исчерпания попыток.
func (s *Stage) MarkAborted() {
	now := time.Now()
	s.Status = StageAborted
	s.FinishedAt = &now
}

// Reset возвращает стадию в исходное состояние (после отката).
func (s *Stage) Reset() {
	s.Status = StagePending
	s.Attempt = 0
	s.StartedAt = nil
	s.FinishedAt = nil
	s.Error = ""
}

// IsFinished возвращает true, если стадия в терминальном статусе.
func (s *Stage) IsFinished() bool {
	return s.Status.IsTerminal()
}

// CanRetry проверяет, можно ли сделать ещё одну попытку.
func (s *Stage) CanRetry(maxAttempts int) bool {
	return s.Attempt < maxAttempts
}

// RollbackSafe возвращает true, если ресурсы стадии можно безопасно
// удалить при откате. Начиная со стадии миграции удаление рискует
// потерей данных — такие сбои требуют ручного вмешательства.
func (s *Stage) RollbackSafe() bool {
	switch s.Name {
	case StageMigration, StageExposure:
		return false
	default:
		return true
	}
}

// Claims возвращает PersistentVolumeClaims стадии.
func (s *Stage) Claims() []Resource {
	return s.byKind(KindPersistentVolumeClaim)
}

// Services возвращает Services стадии.
func (s *Stage) Services() []Resource {
	return s.byKind(KindService)
}

// Jobs возвращает Jobs стадии.
func (s *Stage) Jobs() []Resource {
	return s.byKind(KindJob)
}

func (s *Stage) byKind(kind Kind) []Resource {
	out := make([]Resource, 0, len(s.Resources))
	for _, res := range s.Resources {
		if res.Kind == kind {
			out = append(out, res)
		}
	}
	return out
}
