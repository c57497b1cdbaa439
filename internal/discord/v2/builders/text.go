package builders

// Truncate shortens s to at most max characters, ending it with "…" when
// anything was cut. Discord counts limits in characters, not bytes.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max < 1 {
		return ""
	}
	return string(runes[:max-1]) + "…"
}

// Clamp cuts s to at most max characters without marking the cut, for
// values a user edits before they are saved again
func Clamp(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max < 0 {
		max = 0
	}
	return string(runes[:max])
}
