package literal

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseInt decodes a Sona integer literal, stripping the digit-separator
// underscores spec.md §4.1 allows ("1_000_000") before delegating to
// strconv, so hex/octal/binary prefixes and overflow detection stay
// exactly what the standard library already does correctly.
func ParseInt(raw string) (int64, error) {
	clean := strings.ReplaceAll(raw, "_", "")
	v, err := strconv.ParseInt(clean, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("literal.ParseInt: %q: %w", raw, err)
	}
	return v, nil
}

// ParseFloat decodes a Sona float literal, stripping digit-separator
// underscores first.
func ParseFloat(raw string) (float64, error) {
	clean := strings.ReplaceAll(raw, "_", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("literal.ParseFloat: %q: %w", raw, err)
	}
	return v, nil
}
