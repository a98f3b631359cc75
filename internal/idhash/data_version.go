package idhash

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/mr-tron/base58"

	"free-shipping-lab/internal/domain"
)

// dataVersionBytes is how much of the digest the version keeps.
const dataVersionBytes = 12

// ComputeDataVersion fingerprints an order set.
// Formula: base58(SHA256(sorted lines of order_id|customer_unique_id|purchased_at|price|shipping|items)[:12])
// Input order does not matter.
func ComputeDataVersion(orders []*domain.Order) string {
	lines := make([]string, len(orders))
	for i, o := range orders {
		lines[i] = fmt.Sprintf("%s|%s|%d|%s|%s|%d\n",
			o.OrderID,
			o.CustomerUniqueID,
			o.PurchasedAt,
			formatFloat(o.TotalPrice),
			formatFloat(o.TotalShipping),
			o.NumItems,
		)
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
	}
	sum := h.Sum(nil)
	return base58.Encode(sum[:dataVersionBytes])
}
