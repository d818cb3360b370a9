package engine

import (
	"fmt"

	"github.com/shaiso/Mastokube/internal/domain"
)

// Node — узел в графе зависимостей стадий.
type Node struct {
	// Stage — стадия плана.
	Stage *domain.Stage

	// ID — имя стадии.
	ID domain.StageName

	// InDegree — количество входящих рёбер (зависимостей).
	InDegree int

	// DependsOn — узлы, от которых зависит этот узел.
	DependsOn []*Node

	// Dependents — узлы, которые зависят от этого узла.
	Dependents []*Node
}

// DAG — направленный ациклический граф стадий плана.
//
// Сейчас граф стадий Mastodon — полный порядок, но исполнитель
// обязан оставаться корректным для произвольного DAG: независимые
// стадии могут выполняться в любом допустимом порядке.
type DAG struct {
	// Nodes — все узлы графа (имя стадии → Node).
	Nodes map[domain.StageName]*Node

	// RootNodes — узлы без зависимостей (точки входа).
	RootNodes []*Node

	// Order — топологически отсортированный список узлов.
	Order []*Node
}

// BuildDAG строит граф зависимостей из списка стадий.
func BuildDAG(stages []*domain.Stage) (*DAG, error) {
	if len(stages) == 0 {
		return nil, ErrEmptyPlan
	}

	dag := &DAG{
		Nodes:     make(map[domain.StageName]*Node),
		RootNodes: make([]*Node, 0),
	}

	// Первый проход: создаём все узлы
	for _, stage := range stages {
		if _, exists := dag.Nodes[stage.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStage, stage.Name)
		}
		dag.Nodes[stage.Name] = &Node{
			Stage:      stage,
			ID:         stage.Name,
			DependsOn:  make([]*Node, 0),
			Dependents: make([]*Node, 0),
		}
	}

	// Второй проход: связываем узлы по зависимостям
	for _, stage := range stages {
		node := dag.Nodes[stage.Name]
		for _, depName := range stage.DependsOn {
			depNode, exists := dag.Nodes[depName]
			if !exists {
				return nil, fmt.Errorf("%w: %s depends on unknown stage %s",
					ErrMissingDependency, stage.Name, depName)
			}
			dag.addEdge(depNode, node)
		}
	}

	dag.findRootNodes()

	order, err := dag.topologicalSort()
	if err != nil {
		return nil, err
	}
	dag.Order = order

	return dag, nil
}

// addEdge добавляет ребро между узлами.
// Дубликаты игнорируются, чтобы не задвоить InDegree.
func (d *DAG) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.ID == from.ID {
			return
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// findRootNodes находит узлы без входящих рёбер.
func (d *DAG) findRootNodes() {
	d.RootNodes = make([]*Node, 0)
	for _, node := range d.Nodes {
		if node.InDegree == 0 {
			d.RootNodes = append(d.RootNodes, node)
		}
	}
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Возвращает ошибку, если обнаружен цикл.
func (d *DAG) topologicalSort() ([]*Node, error) {
	inDegree := make(map[domain.StageName]int)
	for id, node := range d.Nodes {
		inDegree[id] = node.InDegree
	}

	queue := make([]*Node, len(d.RootNodes))
	copy(queue, d.RootNodes)

	order := make([]*Node, 0, len(d.Nodes))

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, dependent := range node.Dependents {
			inDegree[dependent.ID]--
			if inDegree[dependent.ID] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(d.Nodes) {
		return nil, ErrCyclicDependency
	}

	return order, nil
}

// ReadyNodes возвращает узлы, готовые к выполнению.
//
// Узел готов, если все его зависимости завершены, а сам он ещё
// не завершён и не выполняется.
func (d *DAG) ReadyNodes(completed, running map[domain.StageName]bool) []*Node {
	if completed == nil {
		completed = make(map[domain.StageName]bool)
	}
	if running == nil {
		running = make(map[domain.StageName]bool)
	}

	ready := make([]*Node, 0)

	// Обход в топологическом порядке даёт стабильный порядок результата.
	for _, node := range d.Order {
		if completed[node.ID] || running[node.ID] {
			continue
		}

		allDepsCompleted := true
		for _, dep := range node.DependsOn {
			if !completed[dep.ID] {
				allDepsCompleted = false
				break
			}
		}

		if allDepsCompleted {
			ready = append(ready, node)
		}
	}

	return ready
}

// GetNode возвращает узел по имени стадии.
func (d *DAG) GetNode(name domain.StageName) *Node {
	return d.Nodes[name]
}

// Size возвращает количество узлов в графе.
func (d *DAG) Size() int {
	return len(d.Nodes)
}

// IsComplete проверяет, все ли узлы завершены.
func (d *DAG) IsComplete(completed map[domain.StageName]bool) bool {
	for _, node := range d.Nodes {
		if !completed[node.ID] {
			return false
		}
	}
	return true
}
