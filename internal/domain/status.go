package domain

// StageStatus — статус выполнения стадии.
//
// Жизненный цикл:
//
//	PENDING → APPLYING → AWAITING_READY → READY → COMPLETE
//	                                    ↘ FAILED → APPLYING (retry)
//	                                             ↘ ABORTED (попытки исчерпаны)
type StageStatus string

const (
	// StagePending — стадия создана, но ещё не начала выполняться.
	StagePending StageStatus = "PENDING"

	// StageApplying — ресурсы стадии отправляются в кластер.
	StageApplying StageStatus = "APPLYING"

	// StageAwaitingReady — ресурсы применены, ожидается readiness probe.
	StageAwaitingReady StageStatus = "AWAITING_READY"

	// StageReady — readiness probe прошла, стадия пригодна для зависимых.
	StageReady StageStatus = "READY"

	// StageFailed — apply или readiness завершились ошибкой (возможен retry).
	StageFailed StageStatus = "FAILED"

	// StageComplete — стадия полностью завершена. Финальный статус.
	StageComplete StageStatus = "COMPLETE"

	// StageAborted — попытки retry исчерпаны, план прерван.
	StageAborted StageStatus = "ABORTED"
)

// IsTerminal возвращает true, если статус финальный.
func (s StageStatus) IsTerminal() bool {
	switch s {
	case StageComplete, StageAborted:
		return true
	default:
		return false
	}
}

// RolloutStatus — статус выполнения rollout (всего плана).
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETE
//	                  ↘ ABORTED
type RolloutStatus string

const (
	// RolloutPending — rollout создан, выполнение не началось.
	RolloutPending RolloutStatus = "PENDING"

	// RolloutRunning — план выполняется.
	RolloutRunning RolloutStatus = "RUNNING"

	// RolloutComplete — все стадии достигли COMPLETE.
	RolloutComplete RolloutStatus = "COMPLETE"

	// RolloutAborted — выполнение прервано на одной из стадий.
	RolloutAborted RolloutStatus = "ABORTED"
)

// IsTerminal возвращает true, если статус финальный.
func (s RolloutStatus) IsTerminal() bool {
	switch s {
	case RolloutComplete, RolloutAborted:
		return true
	default:
		return false
	}
}
