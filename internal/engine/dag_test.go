package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/Mastokube/internal/domain"
)

func stage(name domain.StageName, deps ...domain.StageName) *domain.Stage {
	return &domain.Stage{
		Name:      name,
		DependsOn: deps,
		Status:    domain.StagePending,
	}
}

func TestBuildDAG_EmptyPlan(t *testing.T) {
	_, err := BuildDAG(nil)
	if !errors.Is(err, ErrEmptyPlan) {
		t.Errorf("expected ErrEmptyPlan, got %v", err)
	}
}

func TestBuildDAG_DuplicateStage(t *testing.T) {
	_, err := BuildDAG([]*domain.Stage{stage("a"), stage("a")})
	if !errors.Is(err, ErrDuplicateStage) {
		t.Errorf("expected ErrDuplicateStage, got %v", err)
	}
}

func TestBuildDAG_MissingDependency(t *testing.T) {
	_, err := BuildDAG([]*domain.Stage{stage("a", "ghost")})
	if !errors.Is(err, ErrMissingDependency) {
		t.Errorf("expected ErrMissingDependency, got %v", err)
	}
}

func TestBuildDAG_Cycle(t *testing.T) {
	_, err := BuildDAG([]*domain.Stage{
		stage("a", "c"),
		stage("b", "a"),
		stage("c", "b"),
	})
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestBuildDAG_TopologicalOrder(t *testing.T) {
	dag, err := BuildDAG([]*domain.Stage{
		stage("c", "b"),
		stage("a"),
		stage("b", "a"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dag.Size() != 3 {
		t.Errorf("expected 3 nodes, got %d", dag.Size())
	}
	if len(dag.RootNodes) != 1 || dag.RootNodes[0].ID != "a" {
		t.Errorf("expected single root a, got %v", dag.RootNodes)
	}

	pos := make(map[domain.StageName]int)
	for i, node := range dag.Order {
		pos[node.ID] = i
	}
	if pos["a"] > pos["b"] || pos["b"] > pos["c"] {
		t.Errorf("order violates dependencies: %v", pos)
	}
}

func TestBuildDAG_DuplicateEdge(t *testing.T) {
	// Повторное ребро не должно задвоить InDegree.
	dag, err := BuildDAG([]*domain.Stage{
		stage("a"),
		stage("b", "a", "a"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dag.GetNode("b").InDegree != 1 {
		t.Errorf("expected InDegree 1, got %d", dag.GetNode("b").InDegree)
	}
}

func TestReadyNodes(t *testing.T) {
	dag, err := BuildDAG([]*domain.Stage{
		stage("a"),
		stage("b", "a"),
		stage("c", "a"),
		stage("d", "b", "c"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ready := dag.ReadyNodes(nil, nil)
	if len(ready) != 1 || ready[0].ID != "a" {
		t.Fatalf("expected only a ready, got %v", ready)
	}

	completed := map[domain.StageName]bool{"a": true}
	ready = dag.ReadyNodes(completed, nil)
	if len(ready) != 2 {
		t.Fatalf("expected b and c ready, got %d nodes", len(ready))
	}

	// Выполняющийся узел не предлагается повторно.
	running := map[domain.StageName]bool{"b": true}
	ready = dag.ReadyNodes(completed, running)
	if len(ready) != 1 || ready[0].ID != "c" {
		t.Errorf("expected only c ready, got %v", ready)
	}

	completed["b"] = true
	completed["c"] = true
	ready = dag.ReadyNodes(completed, nil)
	if len(ready) != 1 || ready[0].ID != "d" {
		t.Errorf("expected only d ready, got %v", ready)
	}

	completed["d"] = true
	if !dag.IsComplete(completed) {
		t.Error("expected dag complete")
	}
}
