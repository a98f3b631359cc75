package domain

import "fmt"

// Segment is a price band an order falls into.
type Segment string

// Segment constants
const (
	SegmentSmall   Segment = "small"
	SegmentMedium  Segment = "medium"
	SegmentLarge   Segment = "large"
	SegmentUnknown Segment = "unknown" // non-positive price
)

// AllSegments lists the classifiable segments in reporting order.
var AllSegments = []Segment{SegmentSmall, SegmentMedium, SegmentLarge}

// Label returns the display name used in reports.
func (s Segment) Label() string {
	switch s {
	case SegmentSmall:
		return "Small"
	case SegmentMedium:
		return "Medium"
	case SegmentLarge:
		return "Large"
	default:
		return "Unknown"
	}
}

// SegmentBounds holds the upper (inclusive) price bound of the small and
// medium segments. Anything above MediumMax is large.
type SegmentBounds struct {
	SmallMax  float64
	MediumMax float64
}

// DefaultSegmentBounds returns the 75 / 150 split.
func DefaultSegmentBounds() SegmentBounds {
	return SegmentBounds{SmallMax: 75, MediumMax: 150}
}

// Validate checks that the bounds are positive and increasing.
func (b SegmentBounds) Validate() error {
	if b.SmallMax <= 0 {
		return fmt.Errorf("small segment bound must be positive, got %.2f", b.SmallMax)
	}
	if b.MediumMax <= b.SmallMax {
		return fmt.Errorf("medium segment bound %.2f must exceed small bound %.2f", b.MediumMax, b.SmallMax)
	}
	return nil
}

// Classify maps a basket price to its segment. Bins are right-closed:
// (0, SmallMax], (SmallMax, MediumMax], (MediumMax, inf). NaN is unknown.
func (b SegmentBounds) Classify(price float64) Segment {
	switch {
	case !(price > 0):
		return SegmentUnknown
	case price <= b.SmallMax:
		return SegmentSmall
	case price <= b.MediumMax:
		return SegmentMedium
	default:
		return SegmentLarge
	}
}

// Describe renders the segment's price range, e.g. "$0-75".
func (b SegmentBounds) Describe(s Segment) string {
	switch s {
	case SegmentSmall:
		return fmt.Sprintf("$0-%.0f", b.SmallMax)
	case SegmentMedium:
		return fmt.Sprintf("$%.0f-%.0f", b.SmallMax, b.MediumMax)
	case SegmentLarge:
		return fmt.Sprintf("$%.0f+", b.MediumMax)
	default:
		return "n/a"
	}
}
