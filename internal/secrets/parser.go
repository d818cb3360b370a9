package secrets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/shaiso/Mastokube/internal/domain"
)

// ErrIncomplete — в выводе Job'а отсутствует хотя бы один требуемый ключ.
// Частично заполненный материал наружу не отдаётся.
var ErrIncomplete = errors.New("secret output incomplete")

// keyValueLine распознаёт контрактные строки KEY=value.
// rake-таски печатают ключи с отступом — ведущие пробелы допустимы.
var keyValueLine = regexp.MustCompile(`^\s*([A-Z][A-Z0-9_]*)=(.+)$`)

// Parse разбирает поток вывода Job'а генерации секретов.
//
// Из потока собираются все строки KEY=value; при повторе ключа
// последнее значение выигрывает. Если после конца потока отсутствует
// любой из required — возвращается ErrIncomplete с именами ключей
// (но никогда со значениями).
func Parse(r io.Reader, required []string) (*domain.SecretMaterial, error) {
	values := make(map[string]string)

	scanner := bufio.NewScanner(r)
	// Ключи шифрования длинные, стандартного буфера может не хватить.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		match := keyValueLine.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		values[match[1]] = strings.TrimSpace(match[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read secret output: %w", err)
	}

	material := domain.NewSecretMaterial(values)
	if missing := material.MissingKeys(required); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing keys %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return material, nil
}
