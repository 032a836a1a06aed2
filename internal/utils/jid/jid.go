// Package jid provides small helpers for working with WhatsApp JIDs.
package jid

import (
	"regexp"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// FromPhone creates a user JID from a phone number, stripping any non-digits.
func FromPhone(phone string) types.JID {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	return types.JID{
		User:   cleaned,
		Server: types.DefaultUserServer,
	}
}

// Number returns the phone-number part of a user JID.
func Number(j types.JID) string {
	return j.User
}

// IsGroup returns true if the JID is a group.
func IsGroup(j types.JID) bool {
	return j.Server == types.GroupServer
}

// IsPhoneNumber reports whether s looks like a bare phone number
// (digits only, at least ten of them).
func IsPhoneNumber(s string) bool {
	return len(s) >= 10 && digitsOnly.MatchString(s)
}

// Same reports whether two JIDs refer to the same user, ignoring device
// and agent suffixes.
func Same(a, b types.JID) bool {
	return a.User == b.User && a.Server == b.Server
}
