// Package engine строит план развёртывания и граф зависимостей стадий.
//
// Включает:
//   - plan.go — построение семи стадий из конфигурации окружения
//   - dag.go — граф зависимостей и топологическая сортировка (Кан)
//
// Порядок выполнения стадий — всегда валидная топологическая
// сортировка объявленного графа.
package engine
