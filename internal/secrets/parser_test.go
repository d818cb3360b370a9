package secrets

import (
	"errors"
	"strings"
	"testing"

	"github.com/shaiso/Mastokube/internal/domain"
)

const fullOutput = `
Generating secrets...
SECRET_KEY_BASE=0123456789abcdef
OTP_SECRET=fedcba9876543210
Generating VAPID key pair...
VAPID_PRIVATE_KEY=priv-key-value
VAPID_PUBLIC_KEY=pub-key-value
Initializing encryption...
ACTIVE_RECORD_ENCRYPTION_DETERMINISTIC_KEY=det-key
ACTIVE_RECORD_ENCRYPTION_KEY_DERIVATION_SALT=salt-value
ACTIVE_RECORD_ENCRYPTION_PRIMARY_KEY=primary-key
Done.
`

func TestParse_Complete(t *testing.T) {
	material, err := Parse(strings.NewReader(fullOutput), domain.RequiredSecretKeys)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if material.Len() != len(domain.RequiredSecretKeys) {
		t.Errorf("expected %d keys, got %d", len(domain.RequiredSecretKeys), material.Len())
	}
	if v, ok := material.Get("SECRET_KEY_BASE"); !ok || v != "0123456789abcdef" {
		t.Errorf("unexpected SECRET_KEY_BASE: %q", v)
	}
	if v, ok := material.Get("VAPID_PUBLIC_KEY"); !ok || v != "pub-key-value" {
		t.Errorf("unexpected VAPID_PUBLIC_KEY: %q", v)
	}
}

func TestParse_MissingKey(t *testing.T) {
	partial := strings.Replace(fullOutput, "OTP_SECRET=fedcba9876543210\n", "", 1)

	_, err := Parse(strings.NewReader(partial), domain.RequiredSecretKeys)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}

	// Ошибка называет отсутствующий ключ, но не значения остальных.
	if !strings.Contains(err.Error(), "OTP_SECRET") {
		t.Errorf("error should name the missing key: %v", err)
	}
	if strings.Contains(err.Error(), "0123456789abcdef") {
		t.Errorf("error must not leak secret values: %v", err)
	}
}

func TestParse_NoiseAndFormatting(t *testing.T) {
	// Строки с отступами принимаются, прочий шум игнорируется.
	output := `
  SECRET_KEY_BASE=indented-value
lowercase_key=ignored
WARN something KEY=VALUE like but not at line start
`
	material, err := Parse(strings.NewReader(output), []string{"SECRET_KEY_BASE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := material.Get("SECRET_KEY_BASE"); v != "indented-value" {
		t.Errorf("unexpected value: %q", v)
	}
	if _, ok := material.Get("lowercase_key"); ok {
		t.Error("lowercase keys must be ignored")
	}
}

func TestParse_LastValueWins(t *testing.T) {
	output := "OTP_SECRET=first\nOTP_SECRET=second\n"

	material, err := Parse(strings.NewReader(output), []string{"OTP_SECRET"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := material.Get("OTP_SECRET"); v != "second" {
		t.Errorf("expected last value, got %q", v)
	}
}

func TestParse_EmptyStream(t *testing.T) {
	_, err := Parse(strings.NewReader(""), domain.RequiredSecretKeys)
	if !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected ErrIncomplete, got %v", err)
	}
}
