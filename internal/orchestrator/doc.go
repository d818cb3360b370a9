// Package orchestrator выполняет план развёртывания против API кластера.
//
// Машина состояний стадии:
//
//	PENDING → APPLYING → AWAITING_READY → READY → COMPLETE
//	                                    ↘ FAILED → APPLYING (retry)
//	                                             ↘ ABORTED
//
// Транзиентные сбои (таймаут readiness, мгновенная ошибка API)
// повторяются с экспоненциальной задержкой до лимита попыток;
// остальные прерывают план сразу. Ни одна стадия не применяется,
// пока все её предшественники не достигли COMPLETE.
package orchestrator
