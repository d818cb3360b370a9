package domain

import "k8s.io/apimachinery/pkg/runtime"

// Kind — вид ресурса кластера, с которым умеет работать оркестратор.
type Kind string

// Поддерживаемые виды ресурсов.
const (
	KindPersistentVolume      Kind = "PersistentVolume"
	KindPersistentVolumeClaim Kind = "PersistentVolumeClaim"
	KindDeployment            Kind = "Deployment"
	KindService               Kind = "Service"
	KindSecret                Kind = "Secret"
	KindConfigMap             Kind = "ConfigMap"
	KindJob                   Kind = "Job"
	KindIngress               Kind = "Ingress"
)

// Reference — ссылка на ресурс кластера (для проверки зависимостей).
type Reference struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
}

// Resource — декларативное описание одного ресурса кластера.
//
// Семантика apply идемпотентна: повторное применение идентичного
// желаемого состояния — no-op, изменённое содержимое обновляет
// ресурс на месте.
type Resource struct {
	// Kind — вид ресурса.
	Kind Kind `json:"kind"`

	// Name — имя ресурса.
	Name string `json:"name"`

	// Object — желаемое состояние (типизированный объект Kubernetes).
	Object runtime.Object `json:"-"`

	// Requires — ресурсы, которые должны существовать в кластере
	// до применения этого. Отсутствие любого из них — ошибка
	// UnsatisfiedDependency, а не молчаливое создание битого объекта.
	Requires []Reference `json:"requires,omitempty"`
}

// Ref возвращает ссылку на сам ресурс.
func (r *Resource) Ref() Reference {
	return Reference{Kind: r.Kind, Name: r.Name}
}
