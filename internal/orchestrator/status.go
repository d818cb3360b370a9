package orchestrator

import (
	"context"

	"github.com/shaiso/Mastokube/internal/domain"
)

// StageReport — наблюдаемое состояние стадии в кластере.
type StageReport struct {
	Stage domain.StageName `json:"stage"`

	// Present — сколько ресурсов стадии существует в кластере.
	Present int `json:"present"`

	// Total — сколько ресурсов объявлено.
	Total int `json:"total"`

	// Ready — прошла ли readiness probe стадии.
	Ready bool `json:"ready"`
}

// Status опрашивает живое состояние кластера по каждой стадии.
//
// Состояние читается заново при каждом вызове: решение о том, что
// стадия удовлетворена, никогда не принимается по кэшу.
func (o *Orchestrator) Status(ctx context.Context) ([]StageReport, error) {
	reports := make([]StageReport, 0, len(o.plan.Stages))

	for _, stage := range o.plan.Stages {
		report := StageReport{
			Stage: stage.Name,
			Total: len(stage.Resources),
		}

		for i := range stage.Resources {
			exists, err := o.cluster.Exists(ctx, o.plan.Namespace, stage.Resources[i].Ref())
			if err != nil {
				return nil, err
			}
			if exists {
				report.Present++
			}
		}

		if report.Present == report.Total {
			// Ошибка probe здесь означает "не готова", а не сбой status.
			ready, _ := o.probeStage(ctx, stage)
			report.Ready = ready
		}

		reports = append(reports, report)
	}
	return reports, nil
}
