package utils

import (
	"net/mail"
	"strings"
)

// IsValidEmail reports whether s looks like a deliverable email address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// NormalizeEmail lowercases and trims an email address for use as a unique
// key.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
