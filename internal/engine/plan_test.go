package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/Mastokube/internal/config"
	"github.com/shaiso/Mastokube/internal/domain"
)

func testEnv() *config.Environment {
	env, err := config.Parse([]byte(`
domain: social.example.org
nfs:
  server: 192.168.1.10
  postgres_path: /export/pg
  redis_path: /export/redis
  system_path: /export/system
`))
	if err != nil {
		panic(err)
	}
	return env
}

func TestBuildPlan_Stages(t *testing.T) {
	plan, err := BuildPlan(testEnv())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Stages) != 7 {
		t.Fatalf("expected 7 stages, got %d", len(plan.Stages))
	}
	if plan.Namespace != "mastodon" {
		t.Errorf("expected default namespace, got %s", plan.Namespace)
	}
	if plan.Environment != "social.example.org" {
		t.Errorf("expected environment from domain, got %s", plan.Environment)
	}

	for _, stage := range plan.Stages {
		if stage.Status != domain.StagePending {
			t.Errorf("stage %s: expected PENDING, got %s", stage.Name, stage.Status)
		}
		if len(stage.Resources) == 0 {
			t.Errorf("stage %s: no resources", stage.Name)
		}
	}
}

func TestBuildPlan_OrderingConstraints(t *testing.T) {
	plan, err := BuildPlan(testEnv())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dag, err := BuildDAG(plan.Stages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[domain.StageName]int)
	for i, node := range dag.Order {
		pos[node.ID] = i
	}

	before := []struct {
		earlier, later domain.StageName
	}{
		{domain.StageStorage, domain.StageCoreServices},
		{domain.StageStorage, domain.StageApplicationServices},
		{domain.StageCoreServices, domain.StageSecretGeneration},
		{domain.StageSecretGeneration, domain.StageConfigMaterialization},
		{domain.StageConfigMaterialization, domain.StageApplicationServices},
		{domain.StageApplicationServices, domain.StageMigration},
		{domain.StageMigration, domain.StageExposure},
	}
	for _, c := range before {
		if pos[c.earlier] >= pos[c.later] {
			t.Errorf("%s must precede %s", c.earlier, c.later)
		}
	}
}

func TestBuildPlan_StageFlags(t *testing.T) {
	plan, err := BuildPlan(testEnv())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	secretGen := plan.Stage(domain.StageSecretGeneration)
	if !secretGen.ExtractsSecrets {
		t.Error("secret-generation must extract secrets")
	}
	if secretGen.Probe != domain.ProbeJobComplete {
		t.Errorf("secret-generation: expected job probe, got %s", secretGen.Probe)
	}

	materialization := plan.Stage(domain.StageConfigMaterialization)
	if !materialization.NeedsMaterial {
		t.Error("config-materialization must require secret material")
	}

	if plan.Stage(domain.StageMigration).RollbackSafe() {
		t.Error("migration must not be rollback safe")
	}
	if !plan.Stage(domain.StageStorage).RollbackSafe() {
		t.Error("storage must be rollback safe")
	}
}

func TestBuildPlan_InvalidConfig(t *testing.T) {
	env := testEnv()
	env.Domain = ""

	_, err := BuildPlan(env)
	if !errors.Is(err, config.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
