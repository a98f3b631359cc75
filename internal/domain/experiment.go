package domain

// Group is the experiment arm an order is assigned to.
type Group string

// Group constants
const (
	GroupControl   Group = "control"
	GroupTreatment Group = "treatment"
)

// Assignment maps every sampled order to exactly one group for one run.
type Assignment struct {
	Seed   uint64
	Groups map[string]Group // keyed by order_id
	Order  []string         // sampled order ids in draw order
}

// Group returns the group of an order and whether it was sampled.
func (a *Assignment) Group(orderID string) (Group, bool) {
	g, ok := a.Groups[orderID]
	return g, ok
}

// Count returns the number of orders assigned to g.
func (a *Assignment) Count(g Group) int {
	n := 0
	for _, v := range a.Groups {
		if v == g {
			n++
		}
	}
	return n
}

// SimulatedOutcome is the simulated behavior and revenue of one sampled order.
// Corresponds to the experiment_outcomes table.
type SimulatedOutcome struct {
	RunID   string
	OrderID string
	Group   Group
	Segment Segment

	OriginalPrice  float64 // TotalPrice before treatment
	Shipping       float64 // TotalShipping of the order
	BelowThreshold bool    // OriginalPrice < free-shipping threshold
	Responded      bool    // customer topped the basket up
	AmountAdded    float64 // extra basket value (0 for non-responders)
	FinalPrice     float64 // OriginalPrice + AmountAdded
	ShippingWaived bool    // treatment order that reached the threshold

	BaselineRevenue float64 // OriginalPrice + Shipping
	FinalRevenue    float64 // FinalPrice, plus Shipping unless waived
	RevenueDelta    float64 // FinalRevenue - BaselineRevenue
}
