// Package secrets извлекает сгенерированные credentials из вывода
// Job'а генерации секретов.
//
// Контракт вывода: по одной строке KEY=value на каждый требуемый ключ.
// Значения живут только в памяти и в Secret-хранилище кластера;
// пакет никогда не включает их в ошибки и логи.
package secrets
