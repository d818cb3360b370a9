package orchestrator

import (
	"context"
	"fmt"

	"github.com/shaiso/Mastokube/internal/domain"
)

// Rollback удаляет ресурсы стадии, не прошедшей readiness, чтобы
// частично инициализированное состояние не блокировало повторный запуск.
//
// Для стадии миграции и последующих откат запрещён: удаление рискует
// потерей данных, такие сбои разбираются вручную.
func (o *Orchestrator) Rollback(ctx context.Context, name domain.StageName) error {
	stage := o.plan.Stage(name)
	if stage == nil {
		return fmt.Errorf("%w: %s", ErrStageNotFound, name)
	}
	if !stage.RollbackSafe() {
		return fmt.Errorf("%w: %s", ErrRollbackUnsafe, name)
	}

	if err := o.deleteStageResources(ctx, stage); err != nil {
		return err
	}

	stage.Reset()
	o.logger.Info("stage rolled back", "stage", stage.Name)
	return nil
}

// Destroy удаляет все ресурсы плана в обратном топологическом порядке.
// Namespace и данные на NFS (политика Retain) остаются.
func (o *Orchestrator) Destroy(ctx context.Context) error {
	for i := len(o.plan.Stages) - 1; i >= 0; i-- {
		stage := o.plan.Stages[i]
		if err := o.deleteStageResources(ctx, stage); err != nil {
			return err
		}
		stage.Reset()
	}
	o.logger.Info("all plan resources deleted", "namespace", o.plan.Namespace)
	return nil
}

// deleteStageResources удаляет ресурсы стадии в обратном порядке
// объявления. Отсутствующие ресурсы пропускаются.
func (o *Orchestrator) deleteStageResources(ctx context.Context, stage *domain.Stage) error {
	for i := len(stage.Resources) - 1; i >= 0; i-- {
		res := &stage.Resources[i]
		if err := o.cluster.Delete(ctx, o.plan.Namespace, res.Ref()); err != nil {
			return fmt.Errorf("delete %s %s: %w", res.Kind, res.Name, err)
		}
		o.logger.Debug("resource deleted", "stage", stage.Name, "kind", res.Kind, "name", res.Name)
	}
	return nil
}
