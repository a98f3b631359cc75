package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage"
)

// orderInsertChunk bounds rows per INSERT statement (10 params per row).
const orderInsertChunk = 1000

var orderColumns = []string{
	"order_id", "customer_id", "customer_unique_id", "status", "purchased_at",
	"total_price", "total_shipping", "num_items", "payment_total", "order_total",
}

// OrderStore implements storage.OrderStore using PostgreSQL.
type OrderStore struct {
	pool *Pool
}

// NewOrderStore creates a new OrderStore.
func NewOrderStore(pool *Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OrderStore = (*OrderStore)(nil)

// InsertBulk adds multiple orders atomically. Fails entire batch on any duplicate.
func (s *OrderStore) InsertBulk(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	for _, o := range orders {
		if o == nil || o.OrderID == "" {
			return storage.ErrInvalidInput
		}
	}

	return s.pool.withTx(ctx, func(tx pgx.Tx) error {
		return insertOrders(ctx, tx, orders)
	})
}

// Replace atomically swaps the stored orders for the given set.
func (s *OrderStore) Replace(ctx context.Context, orders []*domain.Order) error {
	for _, o := range orders {
		if o == nil || o.OrderID == "" {
			return storage.ErrInvalidInput
		}
	}

	return s.pool.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM orders`); err != nil {
			return translate(err, "clear orders")
		}
		return insertOrders(ctx, tx, orders)
	})
}

func insertOrders(ctx context.Context, tx pgx.Tx, orders []*domain.Order) error {
	for start := 0; start < len(orders); start += orderInsertChunk {
		b := psql.Insert("orders").Columns(orderColumns...)
		for _, o := range orders[start:min(start+orderInsertChunk, len(orders))] {
			b = b.Values(
				o.OrderID, o.CustomerID, o.CustomerUniqueID, o.Status, o.PurchasedAt,
				o.TotalPrice, o.TotalShipping, o.NumItems, o.PaymentTotal, o.OrderTotal,
			)
		}
		query, args, err := b.ToSql()
		if err != nil {
			return fmt.Errorf("build insert orders: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return translate(err, "insert orders")
		}
	}
	return nil
}

// GetByID retrieves an order by its ID. Returns ErrNotFound if not exists.
func (s *OrderStore) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	query, args, err := psql.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"order_id": orderID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get order: %w", err)
	}

	o, err := scanOrder(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate(err, "get order")
	}
	return o, nil
}

// GetAll retrieves all orders, ordered by order_id ASC.
func (s *OrderStore) GetAll(ctx context.Context) ([]*domain.Order, error) {
	query, args, err := psql.Select(orderColumns...).
		From("orders").
		OrderBy("order_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get orders: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Count returns the number of stored orders.
func (s *OrderStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.OrderID, &o.CustomerID, &o.CustomerUniqueID, &o.Status, &o.PurchasedAt,
		&o.TotalPrice, &o.TotalShipping, &o.NumItems, &o.PaymentTotal, &o.OrderTotal,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
