package domain

// Organizer is the account that owns one or more events.
// Organizer-side management tooling lives outside this server; we only
// need the slug for building presale URLs.
type Organizer struct {
	Meta
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// EventSettings holds the per-event knobs the presale layer reads.
// The organizer backend persists these alongside the event; this server
// never mutates them.
type EventSettings struct {
	// MaxItemsPerOrder caps the quantity of any single item or variation
	// a visitor can put into one order. Applied after quota resolution,
	// never before.
	MaxItemsPerOrder int64 `json:"max_items_per_order"`

	// UserMailRequired makes the email field mandatory on the local
	// registration form for this event.
	UserMailRequired bool `json:"user_mail_required"`
}

// DefaultEventSettings returns the settings applied to events that have
// not been configured yet.
func DefaultEventSettings() EventSettings {
	return EventSettings{
		MaxItemsPerOrder: 10,
	}
}

// Event is the tenant boundary of the platform. Items, categories,
// quotas, and event-local user accounts all hang off one event.
type Event struct {
	Meta
	OrganizerID string        `json:"organizer_id"`
	Slug        string        `json:"slug"`
	Name        string        `json:"name"`
	Currency    string        `json:"currency"`
	Live        bool          `json:"live"`
	Settings    EventSettings `json:"settings"`
}
