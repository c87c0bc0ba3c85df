package domain

// Category groups items on the event shop page. Position is the
// organizer-controlled sort key; the category ID breaks ties so the
// page order stays stable when positions collide.
type Category struct {
	Meta
	EventID  string `json:"event_id"`
	Name     string `json:"name"`
	Position int64  `json:"position"`
}
