// Package identity maps user-supplied login identifiers onto the
// platform's two account namespaces.
//
// An identifier containing "@" is a global email address; anything else
// is a username local to the current event and is rewritten into a
// synthetic identifier that embeds the event's ID. The two namespaces
// can never collide: event IDs contain characters that are invalid in
// registrable mail domains, and the ".event.boxoffice" suffix is
// reserved by the platform.
package identity

import "strings"

// PlatformSuffix terminates every synthesized event-local identifier.
const PlatformSuffix = ".event.boxoffice"

// Resolve turns a raw identifier typed into a login form into the
// canonical identifier used for credential lookup.
//
// Email addresses are lowercased verbatim. Local usernames are passed
// through untouched, with no trimming or case folding, because stored
// usernames are matched case-sensitively.
func Resolve(raw, eventID string) string {
	if strings.Contains(raw, "@") {
		return strings.ToLower(raw)
	}
	return Local(raw, eventID)
}

// Local builds the synthetic identifier for an event-local username.
func Local(username, eventID string) string {
	return username + "@" + eventID + PlatformSuffix
}

// Global canonicalizes an email address into a global identifier.
func Global(email string) string {
	return strings.ToLower(email)
}

// IsGlobal reports whether a raw identifier addresses the global email
// namespace rather than an event's local username namespace.
func IsGlobal(raw string) bool {
	return strings.Contains(raw, "@")
}
