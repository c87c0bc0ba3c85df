package domain

// CartPosition is one pending selection in a cart. VariationID is empty
// when the item is sold without variations.
type CartPosition struct {
	ID          string `json:"id"`
	ItemID      string `json:"item_id"`
	ItemName    string `json:"item_name"`
	VariationID string `json:"variation_id,omitempty"`
	Variation   string `json:"variation,omitempty"`
	Count       int64  `json:"count"`
	PriceCents  int64  `json:"price_cents"`
}

// Cart holds a user's pending selections for one event. The checkout
// subsystem owns cart mutation; the presale layer only reads the cart
// for display on the event index.
type Cart struct {
	Meta
	UserID    string         `json:"user_id"`
	EventID   string         `json:"event_id"`
	Positions []CartPosition `json:"positions,omitempty"`
}

// TotalCount returns the number of units across all positions.
func (c *Cart) TotalCount() int64 {
	var n int64
	for _, p := range c.Positions {
		n += p.Count
	}
	return n
}

// TotalCents returns the summed price of all positions.
func (c *Cart) TotalCents() int64 {
	var total int64
	for _, p := range c.Positions {
		total += p.PriceCents * p.Count
	}
	return total
}

// IsEmpty reports whether the cart has no positions.
func (c *Cart) IsEmpty() bool {
	return len(c.Positions) == 0
}
