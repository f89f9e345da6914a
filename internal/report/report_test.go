package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertcc/storebot/internal/shopdb"
)

type fakeSource struct {
	orders    []shopdb.Order
	customers []shopdb.Customer
	rows      map[string][]shopdb.Row
	err       error

	calls   int
	windows [][2]time.Time
	limits  []int
}

func (f *fakeSource) OrdersBetween(ctx context.Context, from, until time.Time) ([]shopdb.Order, error) {
	f.calls++
	f.windows = append(f.windows, [2]time.Time{from, until})
	return f.orders, f.err
}

func (f *fakeSource) TopCustomers(ctx context.Context, limit int) ([]shopdb.Customer, error) {
	f.calls++
	f.limits = append(f.limits, limit)
	return f.customers, f.err
}

func (f *fakeSource) Rows(ctx context.Context, q shopdb.RowQuery) ([]shopdb.Row, error) {
	f.calls++
	return f.rows[q.Table], f.err
}

func (f *fakeSource) Close() {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newReports(src shopdb.Source) *Reports {
	r := New(src, testLogger())
	r.now = func() time.Time { return time.Date(2026, 10, 16, 15, 4, 5, 0, time.FixedZone("X", -5*3600)) }
	return r
}

func order(total string) shopdb.Order {
	return shopdb.Order{TotalPrice: decimal.RequireFromString(total)}
}

func customer(first, last, spent string) shopdb.Customer {
	return shopdb.Customer{FirstName: first, LastName: last, TotalSpent: decimal.RequireFromString(spent)}
}

func TestDayWindow(t *testing.T) {
	// 22:30 at UTC-5 is already the next UTC day.
	now := time.Date(2026, 10, 16, 22, 30, 0, 0, time.FixedZone("X", -5*3600))
	from, until := DayWindow(now)

	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 10, 17, 23, 59, 59, 0, time.UTC), until)
}

func TestFormatSales(t *testing.T) {
	tests := []struct {
		name   string
		orders []shopdb.Order
		want   string
	}{
		{"no orders", nil, "We haven't had any orders today yet."},
		{"one order default currency", []shopdb.Order{order("42.50")}, "We had 1 order totaling $42.50 USD today."},
		{"three orders", []shopdb.Order{order("33.33"), order("33.33"), order("33.34")}, "We had 3 orders totaling $100.00 USD today."},
		{"exact decimal sum", []shopdb.Order{order("0.1"), order("0.2")}, "We had 2 orders totaling $0.30 USD today."},
		{"zero total ignores unit price", []shopdb.Order{
			{Price: decimal.NewFromInt(25)},
			{TotalPrice: decimal.RequireFromString("10.00"), Price: decimal.NewFromInt(3)},
		}, "We had 2 orders totaling $10.00 USD today."},
		{"currency from record", []shopdb.Order{{TotalPrice: decimal.RequireFromString("10"), Currency: "eur"}, order("5")}, "We had 2 orders totaling $15.00 EUR today."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSales(tt.orders))
		})
	}
}

func TestFormatTopCustomers(t *testing.T) {
	assert.Equal(t, "We don't have any customer data available at the moment.", FormatTopCustomers(nil))
	assert.Equal(t,
		"Our top customers are A B ($300), C D ($100).",
		FormatTopCustomers([]shopdb.Customer{customer("A", "B", "300"), customer("C", "D", "100")}))
	assert.Equal(t,
		"Our top customers are Ana Lima ($1235).",
		FormatTopCustomers([]shopdb.Customer{customer("Ana", "Lima", "1234.5")}))
}

func TestTodaySales_QueriesUTCWindow(t *testing.T) {
	src := &fakeSource{orders: []shopdb.Order{order("42.50")}}
	got := newReports(src).TodaySales(context.Background())

	assert.Equal(t, "We had 1 order totaling $42.50 USD today.", got)
	require.Len(t, src.windows, 1)
	assert.Equal(t, time.Date(2026, 10, 16, 20, 4, 5, 0, time.UTC).Truncate(24*time.Hour), src.windows[0][0])
	assert.Equal(t, src.windows[0][0].Add(24*time.Hour-time.Second), src.windows[0][1])
}

func TestTopCustomers_LimitAndIdempotence(t *testing.T) {
	src := &fakeSource{customers: []shopdb.Customer{customer("A", "B", "300"), customer("C", "D", "100")}}
	r := newReports(src)

	first := r.TopCustomers(context.Background())
	second := r.TopCustomers(context.Background())

	assert.Equal(t, "Our top customers are A B ($300), C D ($100).", first)
	assert.Equal(t, first, second)
	assert.Equal(t, []int{5, 5}, src.limits)
}

func TestReports_QueryErrorsDegrade(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	r := newReports(src)

	assert.Equal(t, SalesUnavailable, r.TodaySales(context.Background()))
	assert.Equal(t, CustomersUnavailable, r.TopCustomers(context.Background()))
	assert.Equal(t, ContextUnavailable, r.StoreContext(context.Background()))
}

func TestReports_UnconfiguredMakesNoCalls(t *testing.T) {
	r := newReports(nil)

	assert.Equal(t, "Sorry, I couldn't retrieve today's sales data at the moment.", r.TodaySales(context.Background()))
	assert.Equal(t, "Sorry, I couldn't retrieve customer info at the moment.", r.TopCustomers(context.Background()))
	assert.Equal(t, "Store summary data is currently unavailable.", r.StoreContext(context.Background()))
}

func TestStoreContext(t *testing.T) {
	src := &fakeSource{
		rows: map[string][]shopdb.Row{
			shopdb.TableOrders: {
				{"id": 1, "total_price": json.Number("10.00")},
				{"id": 2, "total_price": json.Number("0"), "price": json.Number("2.5")},
			},
			shopdb.TableProducts: {{"title": "Mug"}},
		},
	}
	got := newReports(src).StoreContext(context.Background())

	assert.Contains(t, got, "# Today's Store Summary (2026-10-16)")
	assert.Contains(t, got, "- Total orders: 2")
	assert.Contains(t, got, "- Total sales: $12.50 USD")
	assert.Contains(t, got, `"title": "Mug"`)
	assert.Contains(t, got, "## Customers (first 10)\n[]")
	// orders, products, customers; today's orders are read once
	assert.Equal(t, 3, src.calls)
}

func TestStoreContext_BadOrderRowDegrades(t *testing.T) {
	src := &fakeSource{rows: map[string][]shopdb.Row{
		shopdb.TableOrders: {{"total_price": "not a number"}},
	}}
	assert.Equal(t, ContextUnavailable, newReports(src).StoreContext(context.Background()))
}
