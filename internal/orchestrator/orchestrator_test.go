package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Mastokube/internal/cluster"
	"github.com/shaiso/Mastokube/internal/config"
	"github.com/shaiso/Mastokube/internal/domain"
	"github.com/shaiso/Mastokube/internal/engine"
	"github.com/shaiso/Mastokube/internal/manifests"
)

// fakeCluster — in-memory реализация cluster.API для тестов.
//
// По умолчанию кластер "здоров": claims связаны, endpoints готовы,
// jobs завершаются успешно, логи содержат полный набор ключей.
type fakeCluster struct {
	mu sync.Mutex

	objects    map[domain.Reference]bool
	applyCount map[domain.Reference]int

	applyErr   func(res *domain.Resource) error
	claims     map[string]bool           // nil запись → bound
	endpoints  map[string]bool           // nil запись → ready
	jobs       map[string]cluster.JobState
	jobLogs    map[string]string
	namespaces map[string]bool
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{
		objects:    make(map[domain.Reference]bool),
		applyCount: make(map[domain.Reference]int),
		claims:     make(map[string]bool),
		endpoints:  make(map[string]bool),
		jobs:       make(map[string]cluster.JobState),
		jobLogs:    make(map[string]string),
		namespaces: make(map[string]bool),
	}
}

func (f *fakeCluster) EnsureNamespace(ctx context.Context, namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.namespaces[namespace] = true
	return nil
}

func (f *fakeCluster) Apply(ctx context.Context, namespace string, res *domain.Resource) (cluster.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.applyErr != nil {
		if err := f.applyErr(res); err != nil {
			return "", err
		}
	}

	ref := res.Ref()
	f.applyCount[ref]++
	if f.objects[ref] {
		return cluster.OutcomeUnchanged, nil
	}
	f.objects[ref] = true
	return cluster.OutcomeCreated, nil
}

func (f *fakeCluster) Exists(ctx context.Context, namespace string, ref domain.Reference) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[ref], nil
}

func (f *fakeCluster) Delete(ctx context.Context, namespace string, ref domain.Reference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, ref)
	return nil
}

func (f *fakeCluster) ClaimBound(ctx context.Context, namespace, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bound, ok := f.claims[name]
	if !ok {
		return true, nil
	}
	return bound, nil
}

func (f *fakeCluster) EndpointsReady(ctx context.Context, namespace, service string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ready, ok := f.endpoints[service]
	if !ok {
		return true, nil
	}
	return ready, nil
}

func (f *fakeCluster) CheckJob(ctx context.Context, namespace, name string) (cluster.JobState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.jobs[name]
	if !ok {
		return cluster.JobState{Phase: cluster.JobSucceeded}, nil
	}
	return state, nil
}

func (f *fakeCluster) JobLogs(ctx context.Context, namespace, jobName string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	logs, ok := f.jobLogs[jobName]
	if !ok {
		logs = fullSecretOutput
	}
	return io.NopCloser(strings.NewReader(logs)), nil
}

func (f *fakeCluster) applied(ref domain.Reference) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applyCount[ref]
}

const fullSecretOutput = `SECRET_KEY_BASE=skb
OTP_SECRET=otp
VAPID_PRIVATE_KEY=vpriv
VAPID_PUBLIC_KEY=vpub
ACTIVE_RECORD_ENCRYPTION_DETERMINISTIC_KEY=det
ACTIVE_RECORD_ENCRYPTION_KEY_DERIVATION_SALT=salt
ACTIVE_RECORD_ENCRYPTION_PRIMARY_KEY=primary
`

func testPlan(t *testing.T) *domain.Plan {
	t.Helper()

	env, err := config.Parse([]byte(`
domain: social.example.org
nfs:
  server: 192.168.1.10
  postgres_path: /export/pg
  redis_path: /export/redis
  system_path: /export/system
`))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	plan, err := engine.BuildPlan(env)
	if err != nil {
		t.Fatalf("build plan: %v", err)
	}
	return plan
}

func testOrchestrator(t *testing.T, fake *fakeCluster, plan *domain.Plan) *Orchestrator {
	t.Helper()

	return New(Config{
		Cluster:       fake,
		Plan:          plan,
		MaxAttempts:   3,
		RetryDelay:    time.Millisecond,
		RetryMaxDelay: 2 * time.Millisecond,
		PollInterval:  time.Millisecond,
		StageTimeout:  50 * time.Millisecond,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestExecute_FullPlan(t *testing.T) {
	fake := newFakeCluster()
	plan := testPlan(t)
	orch := testOrchestrator(t, fake, plan)

	if err := orch.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, stage := range plan.Stages {
		if stage.Status != domain.StageComplete {
			t.Errorf("stage %s: expected COMPLETE, got %s", stage.Name, stage.Status)
		}
		if stage.Attempt != 1 {
			t.Errorf("stage %s: expected 1 attempt, got %d", stage.Name, stage.Attempt)
		}
	}

	if plan.Material == nil || plan.Material.Len() != len(domain.RequiredSecretKeys) {
		t.Fatalf("secret material not extracted: %v", plan.Material)
	}
	if !fake.namespaces[plan.Namespace] {
		t.Error("namespace not ensured")
	}

	envSecret := domain.Reference{Kind: domain.KindSecret, Name: manifests.EnvSecretName}
	if fake.applied(envSecret) != 1 {
		t.Errorf("env secret applied %d times", fake.applied(envSecret))
	}
	ingress := domain.Reference{Kind: domain.KindIngress, Name: manifests.IngressName}
	if fake.applied(ingress) != 1 {
		t.Errorf("ingress applied %d times", fake.applied(ingress))
	}
}

func TestExecute_Rerun(t *testing.T) {
	fake := newFakeCluster()

	// Первый запуск создаёт всё с нуля.
	if err := testOrchestrator(t, fake, testPlan(t)).Execute(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Повторный запуск нового процесса против того же кластера
	// проходит целиком как no-op.
	plan := testPlan(t)
	if err := testOrchestrator(t, fake, plan).Execute(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	for _, stage := range plan.Stages {
		if stage.Status != domain.StageComplete {
			t.Errorf("stage %s: expected COMPLETE on rerun, got %s", stage.Name, stage.Status)
		}
	}
}

func TestExecute_RecreatesDeletedResources(t *testing.T) {
	fake := newFakeCluster()
	plan := testPlan(t)
	orch := testOrchestrator(t, fake, plan)

	if err := orch.Execute(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Между сверками кто-то удалил deployment вручную.
	web := domain.Reference{Kind: domain.KindDeployment, Name: manifests.WebDeploymentName}
	if err := fake.Delete(context.Background(), plan.Namespace, web); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Следующая сверка тем же оркестратором (режим watch)
	// пересоздаёт удалённый ресурс.
	if err := orch.Execute(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if exists, _ := fake.Exists(context.Background(), plan.Namespace, web); !exists {
		t.Error("deleted deployment must be recreated on the next pass")
	}
	if got := fake.applied(web); got != 2 {
		t.Errorf("expected 2 applies of the web deployment, got %d", got)
	}
}

func TestExecute_CoreFailureStopsPlan(t *testing.T) {
	fake := newFakeCluster()
	// PostgreSQL так и не поднимается.
	fake.endpoints[manifests.PostgresServiceName] = false

	plan := testPlan(t)
	orch := testOrchestrator(t, fake, plan)

	err := orch.Execute(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	core := plan.Stage(domain.StageCoreServices)
	if core.Status != domain.StageAborted {
		t.Errorf("core-services: expected ABORTED, got %s", core.Status)
	}
	if core.Attempt != 3 {
		t.Errorf("core-services: expected 3 attempts, got %d", core.Attempt)
	}

	// Зависимые стадии не стартовали: Job генерации секретов не применялся.
	secretsJob := domain.Reference{Kind: domain.KindJob, Name: manifests.SecretsJobName}
	if fake.applied(secretsJob) != 0 {
		t.Errorf("secret job must not be applied, applied %d times", fake.applied(secretsJob))
	}
	if plan.Stage(domain.StageSecretGeneration).Status != domain.StagePending {
		t.Errorf("secret-generation: expected PENDING, got %s",
			plan.Stage(domain.StageSecretGeneration).Status)
	}
}

func TestExecute_ExtractionIncomplete(t *testing.T) {
	fake := newFakeCluster()
	// Rake-таска отработала, но один ключ в выводе отсутствует.
	fake.jobLogs[manifests.SecretsJobName] = strings.Replace(
		fullSecretOutput, "OTP_SECRET=otp\n", "", 1)

	plan := testPlan(t)
	orch := testOrchestrator(t, fake, plan)

	err := orch.Execute(context.Background())
	if !errors.Is(err, ErrExtractionIncomplete) {
		t.Fatalf("expected ErrExtractionIncomplete, got %v", err)
	}

	// Неполный вывод не лечится повтором: abort с первой попытки.
	stage := plan.Stage(domain.StageSecretGeneration)
	if stage.Status != domain.StageAborted {
		t.Errorf("expected ABORTED, got %s", stage.Status)
	}
	if stage.Attempt != 1 {
		t.Errorf("expected 1 attempt, got %d", stage.Attempt)
	}
	if plan.Material != nil {
		t.Error("partial material must not be retained")
	}
}

func TestExecute_JobFailed(t *testing.T) {
	fake := newFakeCluster()
	fake.jobs[manifests.SecretsJobName] = cluster.JobState{
		Phase:  cluster.JobFailed,
		Reason: "BackoffLimitExceeded",
	}

	plan := testPlan(t)
	err := testOrchestrator(t, fake, plan).Execute(context.Background())
	if !errors.Is(err, ErrProbeFailed) {
		t.Fatalf("expected ErrProbeFailed, got %v", err)
	}
	if plan.Stage(domain.StageSecretGeneration).Attempt != 1 {
		t.Error("terminal job failure must not be retried")
	}
}

func TestApply_ConfigBeforeSecretGeneration(t *testing.T) {
	fake := newFakeCluster()
	plan := testPlan(t)
	orch := testOrchestrator(t, fake, plan)

	// Материализация без извлечённого материала невозможна.
	err := orch.Apply(context.Background(), domain.StageConfigMaterialization)
	if !errors.Is(err, ErrUnsatisfiedDependency) {
		t.Fatalf("expected ErrUnsatisfiedDependency, got %v", err)
	}

	cm := domain.Reference{Kind: domain.KindConfigMap, Name: manifests.ConfigName}
	if fake.applied(cm) != 0 {
		t.Error("no resource of the stage may be applied")
	}
}

func TestApply_ConfigInFreshProcess(t *testing.T) {
	fake := newFakeCluster()

	// Первый процесс довёл кластер до завершившегося Job'а генерации.
	first := testOrchestrator(t, fake, testPlan(t))
	for _, name := range []domain.StageName{
		domain.StageStorage,
		domain.StageCoreServices,
		domain.StageSecretGeneration,
	} {
		if err := first.Apply(context.Background(), name); err != nil {
			t.Fatalf("apply %s: %v", name, err)
		}
	}

	// Второй процесс: материала в памяти нет, он восстанавливается
	// из вывода уже завершившегося Job'а.
	plan := testPlan(t)
	orch := testOrchestrator(t, fake, plan)
	if err := orch.Apply(context.Background(), domain.StageConfigMaterialization); err != nil {
		t.Fatalf("apply config-materialization: %v", err)
	}

	if plan.Material == nil || plan.Material.Len() != len(domain.RequiredSecretKeys) {
		t.Fatalf("material must be recovered from the completed job: %v", plan.Material)
	}
	envSecret := domain.Reference{Kind: domain.KindSecret, Name: manifests.EnvSecretName}
	if fake.applied(envSecret) != 1 {
		t.Errorf("env secret applied %d times", fake.applied(envSecret))
	}
}

func TestApply_UnknownStage(t *testing.T) {
	orch := testOrchestrator(t, newFakeCluster(), testPlan(t))

	err := orch.Apply(context.Background(), "no-such-stage")
	if !errors.Is(err, ErrStageNotFound) {
		t.Errorf("expected ErrStageNotFound, got %v", err)
	}
}

func TestAwaitReady_Timeout(t *testing.T) {
	fake := newFakeCluster()
	fake.claims[manifests.PostgresClaimName] = false

	plan := testPlan(t)
	orch := testOrchestrator(t, fake, plan)

	if err := orch.Apply(context.Background(), domain.StageStorage); err != nil {
		t.Fatalf("apply: %v", err)
	}
	err := orch.AwaitReady(context.Background(), domain.StageStorage, 20*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestAwaitReady_Cancel(t *testing.T) {
	fake := newFakeCluster()
	fake.endpoints[manifests.RedisServiceName] = false

	orch := testOrchestrator(t, fake, testPlan(t))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := orch.AwaitReady(ctx, domain.StageCoreServices, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRollback(t *testing.T) {
	fake := newFakeCluster()
	plan := testPlan(t)
	orch := testOrchestrator(t, fake, plan)

	if err := orch.Apply(context.Background(), domain.StageStorage); err != nil {
		t.Fatalf("apply: %v", err)
	}
	claim := domain.Reference{Kind: domain.KindPersistentVolumeClaim, Name: manifests.PostgresClaimName}
	if exists, _ := fake.Exists(context.Background(), plan.Namespace, claim); !exists {
		t.Fatal("claim must exist after apply")
	}

	if err := orch.Rollback(context.Background(), domain.StageStorage); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if exists, _ := fake.Exists(context.Background(), plan.Namespace, claim); exists {
		t.Error("claim must be deleted after rollback")
	}
	if plan.Stage(domain.StageStorage).Status != domain.StagePending {
		t.Error("stage must be reset after rollback")
	}
}

func TestRollback_UnsafeStages(t *testing.T) {
	orch := testOrchestrator(t, newFakeCluster(), testPlan(t))

	for _, name := range []domain.StageName{domain.StageMigration, domain.StageExposure} {
		err := orch.Rollback(context.Background(), name)
		if !errors.Is(err, ErrRollbackUnsafe) {
			t.Errorf("%s: expected ErrRollbackUnsafe, got %v", name, err)
		}
	}
}

func TestDestroy(t *testing.T) {
	fake := newFakeCluster()
	plan := testPlan(t)
	orch := testOrchestrator(t, fake, plan)

	if err := orch.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := orch.Destroy(context.Background()); err != nil {
		t.Fatalf("destroy: %v", err)
	}

	fake.mu.Lock()
	remaining := len(fake.objects)
	fake.mu.Unlock()
	if remaining != 0 {
		t.Errorf("expected empty cluster, %d objects remain", remaining)
	}
	for _, stage := range plan.Stages {
		if stage.Status != domain.StagePending {
			t.Errorf("stage %s: expected PENDING after destroy, got %s", stage.Name, stage.Status)
		}
	}
}

func TestStatus_LiveRead(t *testing.T) {
	fake := newFakeCluster()
	plan := testPlan(t)
	orch := testOrchestrator(t, fake, plan)

	reports, err := orch.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, r := range reports {
		if r.Present != 0 || r.Ready {
			t.Errorf("stage %s: expected empty cluster, got %+v", r.Stage, r)
		}
	}

	if err := orch.Apply(context.Background(), domain.StageStorage); err != nil {
		t.Fatalf("apply: %v", err)
	}
	reports, err = orch.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if reports[0].Stage != domain.StageStorage {
		t.Fatalf("unexpected first report: %+v", reports[0])
	}
	if reports[0].Present != reports[0].Total || !reports[0].Ready {
		t.Errorf("storage must be present and ready: %+v", reports[0])
	}
}
