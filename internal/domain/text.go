package domain

// TruncateRunes keeps at most max runes of s and appends marker when it cuts.
// A non-positive max leaves s unchanged.
func TruncateRunes(s string, max int, marker string) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + marker
}
