package domain

import "time"

// Meta provides the common identity and timestamp fields shared by all
// stored domain entities.
type Meta struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
}

// Touch updates the UpdatedAt timestamp to the current time.
// Call this whenever the underlying entity changes.
func (m *Meta) Touch() {
	m.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (m *Meta) InitTimestamps() {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
}
