package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"free-shipping-lab/internal/domain"
)

// OrderTotalsFile is the processed order table written after loading.
const OrderTotalsFile = "order_totals.csv"

var orderTotalsColumns = []string{
	"order_id", "customer_id", "customer_unique_id", "order_status", "purchased_at_ms",
	"total_price", "total_shipping", "num_items", "payment_total", "order_total",
}

// WriteOrdersCSV writes orders as a processed table.
func WriteOrdersCSV(w io.Writer, orders []*domain.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(orderTotalsColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range orders {
		err := cw.Write([]string{
			o.OrderID,
			o.CustomerID,
			o.CustomerUniqueID,
			o.Status,
			strconv.FormatInt(o.PurchasedAt, 10),
			formatFloat(o.TotalPrice),
			formatFloat(o.TotalShipping),
			strconv.Itoa(o.NumItems),
			formatFloat(o.PaymentTotal),
			formatFloat(o.OrderTotal),
		})
		if err != nil {
			return fmt.Errorf("write order %s: %w", o.OrderID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOrdersFile writes orders to dir/order_totals.csv.
func WriteOrdersFile(dir string, orders []*domain.Order) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, OrderTotalsFile)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", OrderTotalsFile, err)
	}
	if err := WriteOrdersCSV(f, orders); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// ReadOrdersCSV reads a table written by WriteOrdersCSV.
func ReadOrdersCSV(name string, r io.Reader) ([]*domain.Order, error) {
	t, err := newTable(name, r, orderTotalsColumns)
	if err != nil {
		return nil, err
	}

	var orders []*domain.Order
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		o := &domain.Order{
			OrderID:          t.get(rec, "order_id"),
			CustomerID:       t.get(rec, "customer_id"),
			CustomerUniqueID: t.get(rec, "customer_unique_id"),
			Status:           t.get(rec, "order_status"),
		}
		ts, err := strconv.ParseInt(t.get(rec, "purchased_at_ms"), 10, 64)
		if err != nil {
			return nil, &SchemaError{File: name, Line: t.line, Column: "purchased_at_ms", Msg: "malformed integer"}
		}
		o.PurchasedAt = ts
		n, err := strconv.Atoi(t.get(rec, "num_items"))
		if err != nil {
			return nil, &SchemaError{File: name, Line: t.line, Column: "num_items", Msg: "malformed integer"}
		}
		o.NumItems = n

		for col, dst := range map[string]*float64{
			"total_price":    &o.TotalPrice,
			"total_shipping": &o.TotalShipping,
			"payment_total":  &o.PaymentTotal,
			"order_total":    &o.OrderTotal,
		} {
			v, err := t.float(rec, col)
			if err != nil {
				return nil, err
			}
			*dst = v
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// ReadOrdersFile reads dir/order_totals.csv.
func ReadOrdersFile(dir string) ([]*domain.Order, error) {
	path := filepath.Join(dir, OrderTotalsFile)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &SchemaError{File: OrderTotalsFile, Msg: "file not found"}
		}
		return nil, err
	}
	defer f.Close()
	return ReadOrdersCSV(OrderTotalsFile, f)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
