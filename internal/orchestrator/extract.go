package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/Mastokube/internal/domain"
	"github.com/shaiso/Mastokube/internal/secrets"
)

// ExtractSecrets извлекает SecretMaterial из вывода Job'а стадии.
//
// Job уже должен достичь терминального успеха (awaitReady вызывается
// до извлечения). Отсутствие любого требуемого ключа — ошибка
// ErrExtractionIncomplete; частичный материал наружу не отдаётся.
func (o *Orchestrator) ExtractSecrets(ctx context.Context, name domain.StageName) (*domain.SecretMaterial, error) {
	stage := o.plan.Stage(name)
	if stage == nil {
		return nil, fmt.Errorf("%w: %s", ErrStageNotFound, name)
	}
	if err := o.extractSecrets(ctx, stage); err != nil {
		return nil, err
	}
	return o.plan.Material, nil
}

func (o *Orchestrator) extractSecrets(ctx context.Context, stage *domain.Stage) error {
	jobs := stage.Jobs()
	if len(jobs) == 0 {
		return fmt.Errorf("%w: stage %s declares no job", ErrExtractionIncomplete, stage.Name)
	}
	job := jobs[0]

	stream, err := o.cluster.JobLogs(ctx, o.plan.Namespace, job.Name)
	if err != nil {
		// Стрим логов может отвалиться транзиентно — стадия повторит цикл.
		return fmt.Errorf("%w: job %s logs: %v", ErrApplyFailed, job.Name, err)
	}
	defer stream.Close()

	material, err := secrets.Parse(stream, domain.RequiredSecretKeys)
	if err != nil {
		if errors.Is(err, secrets.ErrIncomplete) {
			return fmt.Errorf("%w: %v", ErrExtractionIncomplete, err)
		}
		return err
	}

	o.plan.Material = material
	o.logger.Info("secret material extracted", "stage", stage.Name, "keys", material.Len())
	return nil
}
