package utils

// TruncateString shortens s to at most max bytes.
func TruncateString(s string, max int) string {
	if max >= 0 && len(s) > max {
		return s[:max]
	}
	return s
}
