// Package utils holds small helpers shared across packages: logger
// construction, vector math, and string truncation.
package utils

// Truncate shortens s to at most maxLen bytes and marks the cut with "...".
// A non-positive maxLen disables truncation.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
