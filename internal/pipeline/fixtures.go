package pipeline

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"free-shipping-lab/internal/loader"
)

// streamFixtures selects the PCG stream of the synthetic dataset.
const streamFixtures uint64 = 0x66697874 // "fixt"

// fixtureStart is the first purchase timestamp of the synthetic dataset.
var fixtureStart = time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

// WriteFixtures writes a synthetic dataset of n orders in the source CSV
// layout into dir. Basket prices are log-normal around $110 so every segment
// is populated; purchases spread evenly over twelve months.
// The same (n, seed) always produces the same files.
func WriteFixtures(dir string, n int, seed uint64) error {
	if n <= 0 {
		return fmt.Errorf("fixture size must be positive, got %d", n)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(seed, streamFixtures))

	var (
		orders    = [][]string{{"order_id", "customer_id", "order_status", "order_purchase_timestamp"}}
		items     = [][]string{{"order_id", "order_item_id", "price", "freight_value"}}
		customers = [][]string{{"customer_id", "customer_unique_id"}}
		payments  = [][]string{{"order_id", "payment_value"}}
	)

	span := fixtureStart.AddDate(1, 0, 0).Sub(fixtureStart)
	for i := 0; i < n; i++ {
		orderID := fmt.Sprintf("ord%08d", i)
		customerID := fmt.Sprintf("cus%08d", i)
		uniqueID := fmt.Sprintf("uniq%08d", i)
		// 2% of customers order twice
		if i > 0 && rng.IntN(50) == 0 {
			uniqueID = fmt.Sprintf("uniq%08d", rng.IntN(i))
		}

		status := "delivered"
		if rng.IntN(100) < 3 {
			status = "canceled"
		}
		at := fixtureStart.Add(time.Duration(float64(span) * float64(i) / float64(n)))
		orders = append(orders, []string{orderID, customerID, status, at.Format(loader.TimestampLayout)})
		customers = append(customers, []string{customerID, uniqueID})

		price := math.Round(math.Exp(4.45+0.75*rng.NormFloat64())*100) / 100
		price = max(price, 1)
		freight := math.Round((6+rng.Float64()*24)*100) / 100
		nItems := 1 + rng.IntN(3)
		total := 0.0
		for k := 1; k <= nItems; k++ {
			p := math.Round(price/float64(nItems)*100) / 100
			f := math.Round(freight/float64(nItems)*100) / 100
			items = append(items, []string{orderID, strconv.Itoa(k), formatMoney(p), formatMoney(f)})
			total += p + f
		}
		payments = append(payments, []string{orderID, formatMoney(total)})
	}

	for name, rows := range map[string][][]string{
		loader.OrdersFile:    orders,
		loader.ItemsFile:     items,
		loader.CustomersFile: customers,
		loader.PaymentsFile:  payments,
	} {
		if err := writeCSV(filepath.Join(dir, name), rows); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
