// Package catalog computes the purchasable view of an event: quota
// resolution, per-order capping, and category-grouped item listings.
// Everything here is a pure read: availability is recomputed from
// current quota state on every request and never cached.
package catalog

import "github.com/boxofficeapp/boxoffice-server/internal/domain"

// Status describes the stock state of a sellable entity.
type Status string

const (
	// StatusInStock means at least one unit can still be sold.
	StatusInStock Status = "in_stock"
	// StatusLowStock is reserved for presentation layers that want to
	// nudge buyers; the core derivation only distinguishes in-stock
	// from sold-out.
	StatusLowStock Status = "low_stock"
	// StatusSoldOut means every quota the entity draws from is spent.
	StatusSoldOut Status = "sold_out"
)

// Stock is the raw remaining capacity of a sellable entity across the
// quotas it participates in. Unlimited is true when every quota the
// entity belongs to is unlimited.
type Stock struct {
	Remaining int64
	Unlimited bool
}

// ResolveQuotas returns the binding stock constraint over a set of
// quotas: the minimum remaining capacity, with unlimited quotas
// contributing no constraint.
//
// An entity in zero quotas is not sellable; the catalog builder filters
// such entities out before ever calling this, so an empty slice here is
// a caller bug and resolves to zero stock rather than panicking.
func ResolveQuotas(quotas []domain.Quota) Stock {
	if len(quotas) == 0 {
		return Stock{}
	}

	constrained := false
	var minLeft int64
	for i := range quotas {
		left, limited := quotas[i].Remaining()
		if !limited {
			continue
		}
		if !constrained || left < minLeft {
			minLeft = left
		}
		constrained = true
	}

	if !constrained {
		return Stock{Unlimited: true}
	}
	return Stock{Remaining: minLeft}
}

// Availability is the display-ready stock result for one sellable
// entity: a status and the count the shop may offer in a single order.
type Availability struct {
	Status       Status `json:"status"`
	DisplayCount int64  `json:"display_count"`
}

// Cap applies the event's per-order limit to resolved stock.
//
// The order matters: quotas are resolved first and the cap second.
// Capping before resolving would overstate stock whenever quotas are
// scarcer than the cap.
func Cap(stock Stock, maxPerOrder int64) Availability {
	if stock.Unlimited {
		return Availability{Status: StatusInStock, DisplayCount: maxPerOrder}
	}
	if stock.Remaining <= 0 {
		return Availability{Status: StatusSoldOut, DisplayCount: 0}
	}
	count := min(stock.Remaining, maxPerOrder)
	return Availability{Status: StatusInStock, DisplayCount: count}
}
