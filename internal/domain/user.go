package domain

import "time"

// User is an account in one of two disjoint namespaces.
//
// Global users registered with an email address; their Identifier is the
// lowercased email and EventID is empty. Event-local users registered
// with a username on one event's login page; their Identifier is the
// synthesized form "{username}@{event-id}.event.boxoffice" and EventID
// records the event they belong to. Identifier is unique across the
// whole platform, which makes usernames unique per event for free.
type User struct {
	Meta
	Identifier   string    `json:"identifier"`
	Username     string    `json:"username,omitempty"`
	Email        string    `json:"email,omitempty"`
	EventID      string    `json:"event_id,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Active       bool      `json:"active"`
	LastLoginAt  time.Time `json:"last_login_at,omitzero"`
}

// IsGlobal reports whether the user belongs to the platform-wide email
// namespace rather than a single event's local namespace.
func (u *User) IsGlobal() bool {
	return u.EventID == ""
}

// Name returns the best display name for the user.
func (u *User) Name() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Session is an established presale session. The refresh token is
// stored hashed; the access token is a stateless PASETO.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash,omitempty"` // Stored hashed, filter from API responses
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
	ClientName       string    `json:"client_name,omitempty"`
}

// Touch updates the session's last seen timestamp.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}

// IsExpired checks if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
