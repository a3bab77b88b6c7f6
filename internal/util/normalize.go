package util

import (
	"net/mail"
	"strings"
)

// SenderTerm turns a configured sender into the operand of a Gmail from:
// search term.
// - "Name <User+Tag@Example.COM>" -> "user+tag@example.com"
// - bare addresses, domains and local parts are lowercased as-is
// The local part is kept intact, so +tag addresses only match that tag.
// Returns empty string for blank input or input that would split the search
// into several terms.
func SenderTerm(sender string) string {
	s := strings.TrimSpace(sender)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<\"") {
		addr, err := mail.ParseAddress(s)
		if err != nil || addr == nil {
			return ""
		}
		s = addr.Address
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.ContainsAny(s, " \t,()") {
		return ""
	}
	return s
}
