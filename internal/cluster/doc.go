// Package cluster инкапсулирует работу с API Kubernetes.
//
// Включает:
//   - api.go — интерфейс API, через который оркестратор видит кластер
//   - kube.go — реализация поверх client-go с идемпотентным apply
//   - probes.go — readiness-проверки (claim, endpoints, job) и логи Job
//
// Идемпотентность apply основана на аннотации с хэшем желаемого
// состояния: совпадение хэша означает отсутствие мутаций кластера.
package cluster
