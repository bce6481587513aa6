package scene

import "strings"

// NormalizeName folds an identifier for tolerant lookup: lowercase,
// editor-instance suffixes stripped ("_UAID_...", trailing "_C"), and
// separators ('_', '-', ' ') removed.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if i := strings.Index(n, "_uaid_"); i >= 0 {
		n = n[:i]
	}
	n = strings.TrimSuffix(n, "_c")
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, n)
}
