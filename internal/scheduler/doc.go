// Package scheduler реализует периодическую сверку для режима watch.
//
// Reconciler по расписанию выполняет план целиком: благодаря
// идемпотентности apply сверка на здоровом кластере — это цепочка
// no-op'ов, а удалённые вручную ресурсы пересоздаются.
//
// Использование:
//
//	rec, err := scheduler.New(scheduler.Config{
//	    Schedule: "@every 5m",
//	    Run:      orch.Execute,
//	    Logger:   logger,
//	})
//	if err != nil { ... }
//	err = rec.Start(ctx) // блокируется до отмены ctx
package scheduler
