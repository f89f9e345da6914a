package shopdb

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRowQuery(t *testing.T) {
	since := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	until := since.Add(23*time.Hour + 59*time.Minute + 59*time.Second)

	tests := []struct {
		name     string
		q        RowQuery
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "plain",
			q:       RowQuery{Table: TableProducts},
			wantSQL: `SELECT to_jsonb(t)::text FROM "products" t`,
		},
		{
			name:     "limit",
			q:        RowQuery{Table: TableCustomers, Limit: 10},
			wantSQL:  `SELECT to_jsonb(t)::text FROM "customers" t LIMIT $1`,
			wantArgs: []any{10},
		},
		{
			name:     "window and limit",
			q:        RowQuery{Table: TableOrders, Since: since, Until: until, Limit: 3},
			wantSQL:  `SELECT to_jsonb(t)::text FROM "orders" t WHERE created_at >= $1 AND created_at < $2 LIMIT $3`,
			wantArgs: []any{since, until, 3},
		},
		{
			name:    "hostile table name stays quoted",
			q:       RowQuery{Table: `x"; drop table orders; --`},
			wantSQL: `SELECT to_jsonb(t)::text FROM "x""; drop table orders; --" t`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildRowQuery(tt.q)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestTimestamp_Unmarshal(t *testing.T) {
	for _, in := range []string{
		`"2026-10-16T09:30:00+00:00"`,
		`"2026-10-16T09:30:00Z"`,
		`"2026-10-16T09:30:00"`,
		`"2026-10-16T11:30:00.123456+02:00"`,
		`"2026-10-16 09:30:00"`,
	} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(in), &ts), in)
		assert.Equal(t, 9, ts.Hour(), in)
		assert.Equal(t, time.UTC, ts.Location(), in)
	}

	var day Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2026-10-16"`), &day))
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), day.Time)

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestOrder_AmountFallsBackToPrice(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{"total_price":null,"price":"9.99"}`), &o))
	assert.Equal(t, "9.99", o.Amount().String())

	require.NoError(t, json.Unmarshal([]byte(`{"total_price":"5","price":"9.99"}`), &o))
	assert.Equal(t, "5", o.Amount().String())
}

func TestOrdersFromRows(t *testing.T) {
	rows, err := decodeRows([]byte(`[
		{"id":"a1","total_price":0,"price":25,"currency":"usd","created_at":"2026-10-16"},
		{"id":"a2","total_price":"10.00","price":3,"created_at":"2026-10-16T09:30:00Z"}
	]`))
	require.NoError(t, err)

	orders, err := OrdersFromRows(rows)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.True(t, orders[0].TotalPrice.IsZero())
	assert.Equal(t, "25", orders[0].Amount().String())
	assert.Equal(t, "usd", orders[0].Currency)
	assert.Equal(t, "10", orders[1].TotalPrice.String())

	_, err = OrdersFromRows([]Row{{"total_price": "abc"}})
	assert.Error(t, err)
}
