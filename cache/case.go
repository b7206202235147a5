package cache

import (
	"strings"
	"unicode"
)

// toSnake converts a method name such as "LiveGoldPrice" into the key
// namespace "live_gold_price". Runs of punctuation or spaces collapse into a
// single underscore so namespaces never contain the key separator.
func toSnake(s string) string {
	runes := []rune(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(runes) + 4)

	pendingSep := false
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingSep = b.Len() > 0
			continue
		}

		if unicode.IsUpper(r) && i > 0 && b.Len() > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				pendingSep = true
			}
		}

		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
