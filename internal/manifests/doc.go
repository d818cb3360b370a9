// Package manifests строит желаемое состояние ресурсов кластера
// для всех стадий развёртывания Mastodon.
//
// Билдеры возвращают типизированные объекты Kubernetes, завёрнутые
// в domain.Resource вместе с зависимостями (Requires) — ресурсами,
// которые обязаны существовать до apply.
package manifests
