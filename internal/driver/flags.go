package driver

import (
	"fmt"

	"github.com/natc-lang/natc/internal/config"
)

// ValidDefineName reports whether name (the part of a `-D`/`-P` flag
// before any `=`) is a legal identifier. spec.md §6: `-D1` fails with
// "failed parsing parameter '1'" since `1` can't parse as an
// identifier a pp fragment could later reference by name.
func ValidDefineName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ValidateParam checks a raw `-D`/`-P` flag argument and returns
// spec.md §6's exact error text ("failed parsing parameter '1'") when
// its name half isn't a legal identifier.
func ValidateParam(raw string) error {
	name, _ := config.SplitNameValue(raw)
	if !ValidDefineName(name) {
		return fmt.Errorf("failed parsing parameter '%s'", name)
	}
	return nil
}
