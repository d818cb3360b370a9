// Package cli содержит команды mastokube и сборку оркестратора
// из конфигурации, флагов и переменных окружения.
//
// Команды:
//   - plan     — валидация конфигурации и вывод плана
//   - apply    — выполнение плана целиком или одной стадии
//   - status   — живое состояние кластера по стадиям
//   - rollback — удаление ресурсов упавшей стадии
//   - destroy  — удаление всех ресурсов плана
//   - watch    — периодическая сверка по расписанию
//   - history  — прошлые rollouts из хранилища истории
package cli
