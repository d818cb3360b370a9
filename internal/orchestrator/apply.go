package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/Mastokube/internal/cluster"
	"github.com/shaiso/Mastokube/internal/domain"
	"github.com/shaiso/Mastokube/internal/manifests"
)

// EnsureNamespace создаёт namespace плана, если он отсутствует.
func (o *Orchestrator) EnsureNamespace(ctx context.Context) error {
	return o.cluster.EnsureNamespace(ctx, o.plan.Namespace)
}

// Apply применяет ресурсы одной стадии по имени.
//
// Re-entrant: повторное применение уже совпадающего ресурса — no-op.
// Отсутствующая зависимость (например, ещё не созданный Secret) —
// ошибка ErrUnsatisfiedDependency, а не молчаливое создание битого
// объекта.
func (o *Orchestrator) Apply(ctx context.Context, name domain.StageName) error {
	stage := o.plan.Stage(name)
	if stage == nil {
		return fmt.Errorf("%w: %s", ErrStageNotFound, name)
	}
	return o.applyStage(ctx, stage)
}

// applyStage применяет все ресурсы стадии.
func (o *Orchestrator) applyStage(ctx context.Context, stage *domain.Stage) error {
	if stage.NeedsMaterial {
		if o.plan.Material == nil {
			// Материал живёт только в памяти процесса: отдельный запуск
			// apply восстанавливает его из уже завершившегося Job'а.
			if err := o.recoverMaterial(ctx, stage); err != nil {
				return err
			}
		}
		for i := range stage.Resources {
			res := &stage.Resources[i]
			if res.Kind != domain.KindSecret {
				continue
			}
			if err := manifests.FillEnvSecret(res, o.plan.Material); err != nil {
				return fmt.Errorf("fill env secret: %w", err)
			}
		}
	}

	for i := range stage.Resources {
		res := &stage.Resources[i]

		for _, ref := range res.Requires {
			exists, err := o.cluster.Exists(ctx, o.plan.Namespace, ref)
			if err != nil {
				return fmt.Errorf("%w: check %s %s: %v", ErrApplyFailed, ref.Kind, ref.Name, err)
			}
			if !exists {
				return fmt.Errorf("%w: %s %s does not exist (required by %s %s)",
					ErrUnsatisfiedDependency, ref.Kind, ref.Name, res.Kind, res.Name)
			}
		}

		outcome, err := o.cluster.Apply(ctx, o.plan.Namespace, res)
		if err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrApplyFailed, res.Kind, res.Name, err)
		}

		o.logger.Debug("resource applied",
			"stage", stage.Name,
			"kind", res.Kind,
			"name", res.Name,
			"outcome", outcome,
		)
	}
	return nil
}

// recoverMaterial восстанавливает SecretMaterial из вывода Job'а
// генерации секретов, уже завершившегося в кластере.
//
// Пока Job не применён или не достиг терминального успеха,
// стадия остаётся неудовлетворённой — материала взять неоткуда.
func (o *Orchestrator) recoverMaterial(ctx context.Context, stage *domain.Stage) error {
	gen := o.plan.Stage(domain.StageSecretGeneration)
	if gen == nil {
		return fmt.Errorf("%w: stage %s requires extracted secret material",
			ErrUnsatisfiedDependency, stage.Name)
	}

	for _, job := range gen.Jobs() {
		exists, err := o.cluster.Exists(ctx, o.plan.Namespace, job.Ref())
		if err != nil {
			return fmt.Errorf("%w: check job %s: %v", ErrApplyFailed, job.Name, err)
		}
		if !exists {
			return fmt.Errorf("%w: stage %s requires secret material, job %s not applied",
				ErrUnsatisfiedDependency, stage.Name, job.Name)
		}

		state, err := o.cluster.CheckJob(ctx, o.plan.Namespace, job.Name)
		if err != nil {
			return fmt.Errorf("%w: check job %s: %v", ErrApplyFailed, job.Name, err)
		}
		if state.Phase != cluster.JobSucceeded {
			return fmt.Errorf("%w: stage %s requires secret material, job %s is %s",
				ErrUnsatisfiedDependency, stage.Name, job.Name, state.Phase)
		}
	}

	return o.extractSecrets(ctx, gen)
}

// AwaitReady блокируется, пока readiness probe стадии не пройдёт
// или не истечёт timeout.
//
// Polling кооперативный (poll-sleep-poll) с удвоением интервала.
// При отмене контекста polling останавливается сразу.
func (o *Orchestrator) AwaitReady(ctx context.Context, name domain.StageName, timeout time.Duration) error {
	stage := o.plan.Stage(name)
	if stage == nil {
		return fmt.Errorf("%w: %s", ErrStageNotFound, name)
	}
	return o.awaitReady(ctx, stage, timeout)
}

func (o *Orchestrator) awaitReady(ctx context.Context, stage *domain.Stage, timeout time.Duration) error {
	if stage.Probe == domain.ProbeNone {
		return nil
	}

	deadline := time.Now().Add(timeout)
	interval := o.pollInterval

	for {
		ready, err := o.probeStage(ctx, stage)
		if err != nil {
			if errors.Is(err, ErrProbeFailed) {
				return err
			}
			// Транзиентная ошибка опроса: продолжаем до дедлайна.
			o.logger.Warn("readiness probe error", "stage", stage.Name, "error", err)
		}
		if ready {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: stage %s not ready after %s", ErrTimeout, stage.Name, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		interval = min(interval*2, o.maxPollInterval)
	}
}

// probeStage выполняет readiness probe стадии по живому состоянию кластера.
func (o *Orchestrator) probeStage(ctx context.Context, stage *domain.Stage) (bool, error) {
	switch stage.Probe {
	case domain.ProbeNone:
		return true, nil

	case domain.ProbeClaimsBound:
		for _, claim := range stage.Claims() {
			bound, err := o.cluster.ClaimBound(ctx, o.plan.Namespace, claim.Name)
			if err != nil {
				if errors.Is(err, cluster.ErrResourceBroken) {
					return false, fmt.Errorf("%w: %v", ErrProbeFailed, err)
				}
				return false, err
			}
			if !bound {
				return false, nil
			}
		}
		return true, nil

	case domain.ProbeEndpoints:
		for _, svc := range stage.Services() {
			ready, err := o.cluster.EndpointsReady(ctx, o.plan.Namespace, svc.Name)
			if err != nil {
				return false, err
			}
			if !ready {
				return false, nil
			}
		}
		return true, nil

	case domain.ProbeJobComplete:
		for _, job := range stage.Jobs() {
			state, err := o.cluster.CheckJob(ctx, o.plan.Namespace, job.Name)
			if err != nil {
				return false, err
			}
			switch state.Phase {
			case cluster.JobSucceeded:
				continue
			case cluster.JobFailed:
				return false, fmt.Errorf("%w: job %s failed: %s", ErrProbeFailed, job.Name, state.Reason)
			default:
				return false, nil
			}
		}
		return true, nil

	default:
		return false, fmt.Errorf("unknown probe kind: %s", stage.Probe)
	}
}
