package shopdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TableOrders    = "orders"
	TableProducts  = "products"
	TableCustomers = "customers"
)

// Order is a row of the orders table. Only the fields the reports use are typed.
type Order struct {
	TotalPrice decimal.Decimal `json:"total_price"`
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
	CreatedAt  Timestamp       `json:"created_at"`
}

// Amount is total_price, falling back to price for stores that only carry a unit price.
func (o Order) Amount() decimal.Decimal {
	if !o.TotalPrice.IsZero() {
		return o.TotalPrice
	}
	return o.Price
}

type Customer struct {
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	Currency   string          `json:"currency"`
}

// Row is an untyped table row, used for snapshots handed to the language model.
type Row map[string]any

// RowQuery selects raw rows from one table. Zero Since/Until disable the
// created_at filter; zero Limit means no limit.
type RowQuery struct {
	Table string
	Since time.Time
	Until time.Time
	Limit int
}

// Timestamp accepts both timestamptz and timestamp-without-zone renderings.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

// StatusError is returned when the store answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Op, e.StatusCode, e.Body)
}

// OrdersFromRows types raw orders rows, so a summary and a snapshot can share one read.
func OrdersFromRows(rows []Row) ([]Order, error) {
	orders := make([]Order, 0, len(rows))
	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return nil, err
		}
		var o Order
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, fmt.Errorf("decoding order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func decodeRows(data []byte) ([]Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []Row
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeRow(data []byte) (Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var row Row
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}
	return row, nil
}
