package domain

import (
	"fmt"
	"log/slog"
	"sort"
)

// RequiredSecretKeys — фиксированный набор ключей, которые стадия
// secret-generation обязана выдать в формате KEY=value.
var RequiredSecretKeys = []string{
	"SECRET_KEY_BASE",
	"OTP_SECRET",
	"VAPID_PRIVATE_KEY",
	"VAPID_PUBLIC_KEY",
	"ACTIVE_RECORD_ENCRYPTION_DETERMINISTIC_KEY",
	"ACTIVE_RECORD_ENCRYPTION_KEY_DERIVATION_SALT",
	"ACTIVE_RECORD_ENCRYPTION_PRIMARY_KEY",
}

// SecretMaterial — сгенерированные credentials в памяти.
//
// Значения живут только в памяти процесса и в Secret-хранилище кластера.
// String и LogValue намеренно не раскрывают значения, чтобы plaintext
// не попадал в логи и сообщения об ошибках.
type SecretMaterial struct {
	values map[string]string
}

// NewSecretMaterial создаёт SecretMaterial из карты ключ → значение.
func NewSecretMaterial(values map[string]string) *SecretMaterial {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &SecretMaterial{values: copied}
}

// Get возвращает значение ключа.
func (m *SecretMaterial) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len возвращает количество ключей.
func (m *SecretMaterial) Len() int {
	return len(m.values)
}

// Keys возвращает отсортированный список ключей (без значений).
func (m *SecretMaterial) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MissingKeys возвращает ключи из required, отсутствующие в материале.
func (m *SecretMaterial) MissingKeys(required []string) []string {
	missing := make([]string, 0)
	for _, k := range required {
		if _, ok := m.values[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Values возвращает копию всех пар ключ → значение.
// Единственный путь к plaintext-значениям; используется только
// при записи в Secret кластера.
func (m *SecretMaterial) Values() map[string]string {
	copied := make(map[string]string, len(m.values))
	for k, v := range m.values {
		copied[k] = v
	}
	return copied
}

// String возвращает редактированное представление без значений.
func (m *SecretMaterial) String() string {
	return fmt.Sprintf("SecretMaterial(%d keys)", len(m.values))
}

// LogValue реализует slog.LogValuer: в логи попадают только имена ключей.
func (m *SecretMaterial) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("keys", len(m.values)),
	)
}
