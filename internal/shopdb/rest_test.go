package shopdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	path   string
	query  url.Values
	apikey string
	auth   string
}

func restServer(t *testing.T, status int, body string, got *recorded) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.query = r.URL.Query()
		got.apikey = r.Header.Get("apikey")
		got.auth = r.Header.Get("Authorization")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewRESTClient(srv.URL, "service-key")
}

func TestRESTClient_OrdersBetween(t *testing.T) {
	var got recorded
	c := restServer(t, http.StatusOK,
		`[{"id":1,"total_price":"42.50","created_at":"2026-10-16T09:30:00+00:00"},
		  {"id":2,"total_price":7.25,"currency":"EUR","created_at":"2026-10-16T10:00:00"}]`, &got)

	from := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 10, 16, 23, 59, 59, 0, time.UTC)
	orders, err := c.OrdersBetween(context.Background(), from, until)
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/orders", got.path)
	assert.Equal(t, "service-key", got.apikey)
	assert.Equal(t, "Bearer service-key", got.auth)
	assert.Equal(t, []string{"gte.2026-10-16T00:00:00", "lt.2026-10-16T23:59:59"}, got.query["created_at"])

	require.Len(t, orders, 2)
	assert.Equal(t, "42.5", orders[0].Amount().String())
	assert.Equal(t, "", orders[0].Currency)
	assert.Equal(t, "EUR", orders[1].Currency)
	assert.Equal(t, 10, orders[1].CreatedAt.Hour())
}

func TestRESTClient_TopCustomers(t *testing.T) {
	var got recorded
	c := restServer(t, http.StatusOK,
		`[{"first_name":"A","last_name":"B","total_spent":300},{"first_name":"C","last_name":"D","total_spent":"100.40"}]`, &got)

	customers, err := c.TopCustomers(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/customers", got.path)
	assert.Equal(t, "total_spent.desc.nullslast", got.query.Get("order"))
	assert.Equal(t, "5", got.query.Get("limit"))
	require.Len(t, customers, 2)
	assert.Equal(t, "A", customers[0].FirstName)
	assert.Equal(t, "100.4", customers[1].TotalSpent.String())
}

func TestRESTClient_RowsKeepsNumbersExact(t *testing.T) {
	var got recorded
	c := restServer(t, http.StatusOK, `[{"id":3,"title":"Mug","price":12.10}]`, &got)

	rows, err := c.Rows(context.Background(), RowQuery{Table: TableProducts, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/products", got.path)
	assert.Equal(t, "10", got.query.Get("limit"))
	assert.Empty(t, got.query["created_at"])
	require.Len(t, rows, 1)

	out, err := json.Marshal(rows[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"title":"Mug","price":12.10}`, string(out))
	assert.Contains(t, string(out), "12.10")
}

func TestRESTClient_StatusError(t *testing.T) {
	var got recorded
	c := restServer(t, http.StatusBadRequest, `{"message":"column orders.currency does not exist"}`, &got)

	_, err := c.OrdersBetween(context.Background(), time.Now(), time.Now())
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, TableOrders, se.Op)
}

func TestOpen_NotConfigured(t *testing.T) {
	_, err := Open(context.Background(), Options{RESTURL: "https://x.supabase.co"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	src, err := Open(context.Background(), Options{RESTURL: "https://x.supabase.co", RESTKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &RESTClient{}, src)
}
