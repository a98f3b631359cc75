// Package loader reads the raw Olist CSV exports and builds one aggregated
// Order per order id.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/logging"
)

// Source file names inside the data directory.
const (
	OrdersFile    = "olist_orders_dataset.csv"
	ItemsFile     = "olist_order_items_dataset.csv"
	CustomersFile = "olist_customers_dataset.csv"
	PaymentsFile  = "olist_order_payments_dataset.csv" // optional
)

// TimestampLayout is the purchase timestamp format of the source data.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	ordersColumns    = []string{"order_id", "customer_id", "order_status", "order_purchase_timestamp"}
	itemsColumns     = []string{"order_id", "order_item_id", "price", "freight_value"}
	customersColumns = []string{"customer_id", "customer_unique_id"}
	paymentsColumns  = []string{"order_id", "payment_value"}
)

// Result is the output of a load.
type Result struct {
	Orders            []*domain.Order // sorted by OrderID
	DuplicateOrderIDs []string        // order ids seen more than once in the orders table
	MissingValues     int             // rows skipped for empty required fields
	WithoutItems      int             // orders dropped by the items join
	WithoutCustomer   int             // orders dropped by the customers join
	RowCounts         map[string]int  // data rows read per file
	PaymentsLoaded    bool
}

// Loader reads the source tables from a directory.
type Loader struct {
	dataDir string
	logger  *zap.Logger
}

// New creates a loader for dataDir.
func New(dataDir string, logger *zap.Logger) *Loader {
	return &Loader{dataDir: dataDir, logger: logging.OrNop(logger)}
}

type orderRow struct {
	customerID  string
	status      string
	purchasedAt int64
}

type itemAgg struct {
	price    float64
	shipping float64
	items    int
}

// Load reads and joins all tables. Missing files or columns and malformed
// numbers return a *SchemaError.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	res := &Result{RowCounts: make(map[string]int)}

	orders, orderIDs, err := l.readOrders(res)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := l.readItems(res)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	customers, err := l.readCustomers(res)
	if err != nil {
		return nil, err
	}

	payments, err := l.readPayments(res)
	if err != nil {
		return nil, err
	}

	res.Orders = make([]*domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		o := orders[id]
		agg, ok := items[id]
		if !ok {
			res.WithoutItems++
			continue
		}
		unique, ok := customers[o.customerID]
		if !ok {
			res.WithoutCustomer++
			continue
		}
		res.Orders = append(res.Orders, &domain.Order{
			OrderID:          id,
			CustomerID:       o.customerID,
			CustomerUniqueID: unique,
			Status:           o.status,
			PurchasedAt:      o.purchasedAt,
			TotalPrice:       agg.price,
			TotalShipping:    agg.shipping,
			NumItems:         agg.items,
			PaymentTotal:     payments[id],
			OrderTotal:       agg.price + agg.shipping,
		})
	}

	sort.Slice(res.Orders, func(i, j int) bool {
		return res.Orders[i].OrderID < res.Orders[j].OrderID
	})

	l.logger.Info("orders loaded",
		zap.Int("orders", len(res.Orders)),
		zap.Int("duplicates", len(res.DuplicateOrderIDs)),
		zap.Int("without_items", res.WithoutItems),
		zap.Int("without_customer", res.WithoutCustomer),
		zap.Int("missing_values", res.MissingValues),
	)
	return res, nil
}

// readOrders returns orders keyed by id and the ids in first-seen order.
func (l *Loader) readOrders(res *Result) (map[string]orderRow, []string, error) {
	t, err := openTable(filepath.Join(l.dataDir, OrdersFile), ordersColumns)
	if err != nil {
		return nil, nil, err
	}
	defer t.close()

	orders := make(map[string]orderRow)
	var ids []string
	dupSeen := make(map[string]struct{})
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		res.RowCounts[OrdersFile]++

		id := t.get(rec, "order_id")
		customer := t.get(rec, "customer_id")
		status := t.get(rec, "order_status")
		ts := t.get(rec, "order_purchase_timestamp")
		if id == "" || customer == "" || status == "" || ts == "" {
			res.MissingValues++
			continue
		}

		if _, exists := orders[id]; exists {
			if _, noted := dupSeen[id]; !noted {
				dupSeen[id] = struct{}{}
				res.DuplicateOrderIDs = append(res.DuplicateOrderIDs, id)
				l.logger.Warn("duplicate order id dropped", zap.String("order_id", id), zap.Int("line", t.line))
			}
			continue
		}

		purchased, err := time.ParseInLocation(TimestampLayout, ts, time.UTC)
		if err != nil {
			return nil, nil, &SchemaError{File: OrdersFile, Line: t.line, Column: "order_purchase_timestamp", Msg: fmt.Sprintf("malformed timestamp %q", ts)}
		}

		orders[id] = orderRow{customerID: customer, status: status, purchasedAt: purchased.UnixMilli()}
		ids = append(ids, id)
	}

	sort.Strings(res.DuplicateOrderIDs)
	l.logger.Debug("table read", zap.String("file", OrdersFile), zap.Int("rows", res.RowCounts[OrdersFile]))
	return orders, ids, nil
}

func (l *Loader) readItems(res *Result) (map[string]*itemAgg, error) {
	t, err := openTable(filepath.Join(l.dataDir, ItemsFile), itemsColumns)
	if err != nil {
		return nil, err
	}
	defer t.close()

	items := make(map[string]*itemAgg)
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		res.RowCounts[ItemsFile]++

		id := t.get(rec, "order_id")
		if id == "" || t.get(rec, "price") == "" || t.get(rec, "freight_value") == "" {
			res.MissingValues++
			continue
		}
		price, err := t.float(rec, "price")
		if err != nil {
			return nil, err
		}
		freight, err := t.float(rec, "freight_value")
		if err != nil {
			return nil, err
		}

		agg, ok := items[id]
		if !ok {
			agg = &itemAgg{}
			items[id] = agg
		}
		agg.price += price
		agg.shipping += freight
		agg.items++
	}

	l.logger.Debug("table read", zap.String("file", ItemsFile), zap.Int("rows", res.RowCounts[ItemsFile]))
	return items, nil
}

// readCustomers maps customer_id to customer_unique_id.
func (l *Loader) readCustomers(res *Result) (map[string]string, error) {
	t, err := openTable(filepath.Join(l.dataDir, CustomersFile), customersColumns)
	if err != nil {
		return nil, err
	}
	defer t.close()

	customers := make(map[string]string)
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		res.RowCounts[CustomersFile]++

		id := t.get(rec, "customer_id")
		unique := t.get(rec, "customer_unique_id")
		if id == "" || unique == "" {
			res.MissingValues++
			continue
		}
		customers[id] = unique
	}

	l.logger.Debug("table read", zap.String("file", CustomersFile), zap.Int("rows", res.RowCounts[CustomersFile]))
	return customers, nil
}

// readPayments sums payment values per order. The file is optional.
func (l *Loader) readPayments(res *Result) (map[string]float64, error) {
	path := filepath.Join(l.dataDir, PaymentsFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		l.logger.Info("payments table absent, skipping", zap.String("file", PaymentsFile))
		return map[string]float64{}, nil
	}

	t, err := openTable(path, paymentsColumns)
	if err != nil {
		return nil, err
	}
	defer t.close()

	payments := make(map[string]float64)
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		res.RowCounts[PaymentsFile]++

		id := t.get(rec, "order_id")
		if id == "" || t.get(rec, "payment_value") == "" {
			continue
		}
		v, err := t.float(rec, "payment_value")
		if err != nil {
			return nil, err
		}
		payments[id] += v
	}

	res.PaymentsLoaded = true
	return payments, nil
}
