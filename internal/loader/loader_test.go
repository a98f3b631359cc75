package loader

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOrders = `order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at
o1,c1,delivered,2017-10-02 10:56:33,
o2,c2,delivered,2017-11-15 08:00:00,
o3,c3,shipped,2018-01-20 12:30:00,
o4,c4,canceled,2018-02-01 09:00:00,
o2,c2,delivered,2017-11-15 08:00:00,
o5,,delivered,2018-03-01 10:00:00,
`
	testItems = `order_id,order_item_id,product_id,seller_id,price,freight_value
o1,1,p1,s1,29.99,8.72
o1,2,p2,s1,20.01,1.28
o2,1,p3,s2,120.00,15.00
o3,1,p4,s3,80.50,10.10
o9,1,p5,s4,10.00,5.00
`
	testCustomers = `customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state
c1,u1,01001,sao paulo,SP
c2,u2,01002,sao paulo,SP
c3,u1,01003,campinas,SP
`
	testPayments = `order_id,payment_sequential,payment_type,payment_installments,payment_value
o1,1,credit_card,1,40.00
o1,2,voucher,1,20.00
o2,1,boleto,1,135.00
`
)

func writeDataset(t *testing.T, withPayments bool) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		OrdersFile:    testOrders,
		ItemsFile:     testItems,
		CustomersFile: testCustomers,
	}
	if withPayments {
		files[PaymentsFile] = testPayments
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestLoad_JoinsAndAggregates(t *testing.T) {
	dir := writeDataset(t, true)

	res, err := New(dir, nil).Load(context.Background())
	require.NoError(t, err)

	// o4 has no items, o9 has no order row, o5 is missing its customer id.
	require.Len(t, res.Orders, 3)
	assert.Equal(t, "o1", res.Orders[0].OrderID)
	assert.Equal(t, "o2", res.Orders[1].OrderID)
	assert.Equal(t, "o3", res.Orders[2].OrderID)

	o1 := res.Orders[0]
	assert.InDelta(t, 50.0, o1.TotalPrice, 1e-9)
	assert.InDelta(t, 10.0, o1.TotalShipping, 1e-9)
	assert.InDelta(t, 60.0, o1.OrderTotal, 1e-9)
	assert.Equal(t, 2, o1.NumItems)
	assert.Equal(t, "u1", o1.CustomerUniqueID)
	assert.InDelta(t, 60.0, o1.PaymentTotal, 1e-9)
	assert.Equal(t, int64(1506941793000), o1.PurchasedAt)

	assert.Equal(t, []string{"o2"}, res.DuplicateOrderIDs)
	assert.Equal(t, 1, res.MissingValues)
	assert.Equal(t, 1, res.WithoutItems)
	assert.Equal(t, 0, res.WithoutCustomer)
	assert.True(t, res.PaymentsLoaded)
	assert.Equal(t, 6, res.RowCounts[OrdersFile])
}

func TestLoad_OneRowPerJoinedOrder(t *testing.T) {
	dir := writeDataset(t, false)

	res, err := New(dir, nil).Load(context.Background())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, o := range res.Orders {
		assert.False(t, seen[o.OrderID], "order %s emitted twice", o.OrderID)
		seen[o.OrderID] = true
	}
	assert.False(t, res.PaymentsLoaded)
	assert.Zero(t, res.Orders[0].PaymentTotal)
}

func TestLoad_MissingFile(t *testing.T) {
	dir := writeDataset(t, false)
	require.NoError(t, os.Remove(filepath.Join(dir, CustomersFile)))

	_, err := New(dir, nil).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, CustomersFile, se.File)
}

func TestLoad_MissingColumn(t *testing.T) {
	dir := writeDataset(t, false)
	bad := "order_id,order_item_id,price\no1,1,10.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ItemsFile), []byte(bad), 0644))

	_, err := New(dir, nil).Load(context.Background())
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "freight_value", se.Column)
}

func TestLoad_MalformedNumber(t *testing.T) {
	dir := writeDataset(t, false)
	bad := "order_id,order_item_id,price,freight_value\no1,1,ten,1.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ItemsFile), []byte(bad), 0644))

	_, err := New(dir, nil).Load(context.Background())
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Line)
	assert.Equal(t, "price", se.Column)
}

func TestLoad_NonFiniteNumber(t *testing.T) {
	tests := []struct {
		name   string
		row    string
		column string
	}{
		{"nan price", "o1,1,NaN,1.0", "price"},
		{"inf freight", "o1,1,10.0,Inf", "freight_value"},
		{"signed inf price", "o1,1,+Inf,1.0", "price"},
		{"negative inf freight", "o1,1,10.0,-inf", "freight_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeDataset(t, false)
			items := "order_id,order_item_id,price,freight_value\n" + tt.row + "\n"
			require.NoError(t, os.WriteFile(filepath.Join(dir, ItemsFile), []byte(items), 0644))

			_, err := New(dir, nil).Load(context.Background())
			require.ErrorIs(t, err, ErrSchema)
			var se *SchemaError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, 2, se.Line)
			assert.Equal(t, tt.column, se.Column)
		})
	}
}

func TestLoad_Cancelled(t *testing.T) {
	dir := writeDataset(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(dir, nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOrdersCSV_RoundTrip(t *testing.T) {
	dir := writeDataset(t, true)
	res, err := New(dir, nil).Load(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteOrdersCSV(&buf, res.Orders))

	got, err := ReadOrdersCSV(OrderTotalsFile, &buf)
	require.NoError(t, err)
	require.Len(t, got, len(res.Orders))
	for i := range got {
		assert.Equal(t, *res.Orders[i], *got[i])
	}
}

func TestReadOrdersFile_Missing(t *testing.T) {
	_, err := ReadOrdersFile(t.TempDir())
	assert.ErrorIs(t, err, ErrSchema)
}
