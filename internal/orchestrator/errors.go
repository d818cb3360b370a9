package orchestrator

import "errors"

// Ошибки оркестратора.
//
// Транзиентные виды (ErrTimeout, ErrApplyFailed) повторяются на уровне
// стадии с экспоненциальной задержкой; остальные прерывают план сразу
// и всплывают как есть вместе с именем упавшей стадии.
var (
	// ErrStageNotFound — стадия с таким именем отсутствует в плане.
	ErrStageNotFound = errors.New("stage not found in plan")

	// ErrUnsatisfiedDependency — ресурс-предшественник отсутствует в кластере.
	ErrUnsatisfiedDependency = errors.New("unsatisfied dependency")

	// ErrApplyFailed — API кластера отклонил ресурс.
	ErrApplyFailed = errors.New("apply failed")

	// ErrTimeout — readiness не достигнута за отведённое время.
	ErrTimeout = errors.New("readiness timeout")

	// ErrProbeFailed — ресурс перешёл в наблюдаемо сломанное состояние
	// до достижения readiness.
	ErrProbeFailed = errors.New("readiness probe failed")

	// ErrExtractionIncomplete — в выводе Job'а генерации секретов
	// отсутствуют требуемые ключи.
	ErrExtractionIncomplete = errors.New("secret extraction incomplete")

	// ErrRollbackUnsafe — откат стадии рискует потерей данных,
	// требуется ручное вмешательство.
	ErrRollbackUnsafe = errors.New("rollback unsafe for stage")
)

// retryable возвращает true для транзиентных ошибок.
func retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrApplyFailed)
}
