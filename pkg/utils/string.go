package utils

// Truncate cuts s down to maxLen bytes and appends an ellipsis when
// anything was dropped.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
