package auth

import (
	"time"
)

// AccessClaims represents the claims stored in a PASETO access token.
// These are encrypted in v4.local tokens, so they're not readable without the key.
type AccessClaims struct {
	UserID     string `json:"user_id"`
	Identifier string `json:"identifier"`
	EventID    string `json:"event_id,omitempty"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// IsGlobal reports whether the token belongs to a platform-wide account
// rather than one scoped to a single event.
func (c *AccessClaims) IsGlobal() bool {
	return c.EventID == ""
}

// ClientInfo carries what the client tells us about itself at login.
// Stored on the session for display in the active-sessions list.
type ClientInfo struct {
	ClientName    string `json:"client_name"`    // BoxOffice Web, BoxOffice Kiosk
	ClientVersion string `json:"client_version"` // 1.0.0
	IPAddress     string `json:"ip_address"`
}
