package stubgen

import (
	"strings"
	"unicode"
)

// exportName converts a simple type or method name to an exported Go
// identifier. Handles dollar, hyphen and underscore separated names.
// e.g., "greet" → "Greet", "Base$placeholder" → "BasePlaceholder"
func exportName(s string) string {
	if len(s) == 0 {
		return s
	}

	var b strings.Builder
	nextUpper := true
	for _, r := range s {
		if r == '$' || r == '-' || r == '_' {
			nextUpper = true
			continue
		}
		if nextUpper {
			b.WriteRune(unicode.ToUpper(r))
			nextUpper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
