package domain

// Order is one purchase aggregated from its line items.
// Built once by the loader and never mutated afterwards.
type Order struct {
	OrderID          string
	CustomerID       string // per-order customer key in the source data
	CustomerUniqueID string // stable person key, used for independence checks
	Status           string // "delivered" | "shipped" | "canceled" | ...
	PurchasedAt      int64  // purchase timestamp (unix ms, UTC)

	TotalPrice    float64 // sum of item prices
	TotalShipping float64 // sum of item freight values
	NumItems      int     // number of line items
	PaymentTotal  float64 // sum of payment values (0 when payments are absent)
	OrderTotal    float64 // TotalPrice + TotalShipping
}

// Segment returns the order's size segment under the given bounds.
func (o *Order) Segment(b SegmentBounds) Segment {
	return b.Classify(o.TotalPrice)
}

// Order status constants
const (
	StatusDelivered = "delivered"
)
