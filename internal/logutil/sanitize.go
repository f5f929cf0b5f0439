// Package logutil contains helpers for safely logging user-controlled
// strings.
package logutil

import "strings"

// SanitizeForLog strips control characters from user-provided strings so
// a crafted command name or session payload cannot inject fake log lines
// or terminal escape sequences into the daemon's log output.
func SanitizeForLog(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case r < 32:
			// drop other control characters
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
