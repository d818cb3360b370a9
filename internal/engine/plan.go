package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Mastokube/internal/config"
	"github.com/shaiso/Mastokube/internal/domain"
	"github.com/shaiso/Mastokube/internal/manifests"
)

// BuildPlan строит план развёртывания из конфигурации окружения.
//
// Порядок стадий закреплён зависимостями, а не позицией в списке:
//   - storage предшествует всем стадиям, монтирующим тома;
//   - secret-generation предшествует config-materialization;
//   - config-materialization предшествует application-services;
//   - application-services предшествует migration;
//   - migration предшествует exposure.
//
// Конфигурация валидируется здесь же, до любых обращений к кластеру.
func BuildPlan(env *config.Environment) (*domain.Plan, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	coreResources := append(manifests.Database(env), manifests.Cache(env)...)

	appResources := append(manifests.Web(env), manifests.Streaming(env)...)
	appResources = append(appResources, manifests.Sidekiq(env)...)

	stages := []*domain.Stage{
		{
			Name:      domain.StageStorage,
			Resources: manifests.Storage(env),
			Probe:     domain.ProbeClaimsBound,
			Status:    domain.StagePending,
		},
		{
			Name:      domain.StageCoreServices,
			DependsOn: []domain.StageName{domain.StageStorage},
			Resources: coreResources,
			Probe:     domain.ProbeEndpoints,
			Status:    domain.StagePending,
		},
		{
			Name:            domain.StageSecretGeneration,
			DependsOn:       []domain.StageName{domain.StageCoreServices},
			Resources:       []domain.Resource{manifests.SecretGenJob(env)},
			Probe:           domain.ProbeJobComplete,
			ExtractsSecrets: true,
			Status:          domain.StagePending,
		},
		{
			Name:          domain.StageConfigMaterialization,
			DependsOn:     []domain.StageName{domain.StageSecretGeneration},
			Resources:     []domain.Resource{manifests.AppConfig(env), manifests.EnvSecret()},
			Probe:         domain.ProbeNone,
			NeedsMaterial: true,
			Status:        domain.StagePending,
		},
		{
			Name: domain.StageApplicationServices,
			DependsOn: []domain.StageName{
				domain.StageConfigMaterialization,
				domain.StageStorage,
			},
			Resources: appResources,
			Probe:     domain.ProbeEndpoints,
			Status:    domain.StagePending,
		},
		{
			Name:      domain.StageMigration,
			DependsOn: []domain.StageName{domain.StageApplicationServices},
			Resources: []domain.Resource{manifests.MigrateJob(env)},
			Probe:     domain.ProbeJobComplete,
			Status:    domain.StagePending,
		},
		{
			Name:      domain.StageExposure,
			DependsOn: []domain.StageName{domain.StageMigration},
			Resources: []domain.Resource{manifests.Ingress(env)},
			Probe:     domain.ProbeNone,
			Status:    domain.StagePending,
		},
	}

	// Проверяем граф сразу: битый план не должен дожить до apply.
	if _, err := BuildDAG(stages); err != nil {
		return nil, err
	}

	return &domain.Plan{
		ID:          uuid.New(),
		Environment: env.Domain,
		Namespace:   env.Namespace,
		Stages:      stages,
		CreatedAt:   time.Now(),
	}, nil
}
