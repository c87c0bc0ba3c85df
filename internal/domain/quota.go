package domain

// Quota is a shared capacity pool. Items and variations draw from every
// quota they are a member of; the scarcest pool wins. A nil Size marks
// the quota as unlimited.
type Quota struct {
	Meta
	EventID      string   `json:"event_id"`
	Name         string   `json:"name"`
	Size         *int64   `json:"size,omitempty"`
	Consumed     int64    `json:"consumed"`
	ItemIDs      []string `json:"item_ids,omitempty"`
	VariationIDs []string `json:"variation_ids,omitempty"`
}

// Unlimited reports whether this quota places no constraint on sales.
func (q *Quota) Unlimited() bool {
	return q.Size == nil
}

// Remaining returns the units left in this quota. The second return is
// false for unlimited quotas, where the count is meaningless.
func (q *Quota) Remaining() (int64, bool) {
	if q.Size == nil {
		return 0, false
	}
	left := *q.Size - q.Consumed
	if left < 0 {
		left = 0
	}
	return left, true
}
