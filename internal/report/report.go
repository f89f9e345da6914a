// Package report turns shop database reads into the sentences sent back to chat users.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/desertcc/storebot/internal/shopdb"
)

const (
	DefaultCurrency  = "USD"
	TopCustomerLimit = 5
	snapshotLimit    = 10

	SalesUnavailable     = "Sorry, I couldn't retrieve today's sales data at the moment."
	NoOrdersToday        = "We haven't had any orders today yet."
	CustomersUnavailable = "Sorry, I couldn't retrieve customer info at the moment."
	NoCustomers          = "We don't have any customer data available at the moment."
	ContextUnavailable   = "Store summary data is currently unavailable."
)

// Reports answers the fixed intents. A nil source means the store is not
// configured; every report then degrades without touching the network.
type Reports struct {
	src    shopdb.Source
	logger *slog.Logger
	now    func() time.Time
}

func New(src shopdb.Source, logger *slog.Logger) *Reports {
	return &Reports{src: src, logger: logger, now: time.Now}
}

// DayWindow returns [00:00:00, 23:59:59) of now's UTC calendar day.
func DayWindow(now time.Time) (from, until time.Time) {
	y, m, d := now.UTC().Date()
	from = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	until = from.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return from, until
}

func (r *Reports) TodaySales(ctx context.Context) string {
	if r.src == nil {
		r.logger.Warn("store not configured", "report", "today_sales")
		return SalesUnavailable
	}

	from, until := DayWindow(r.now())
	r.logger.Info("querying orders", "date", from.Format(time.DateOnly))
	orders, err := r.src.OrdersBetween(ctx, from, until)
	if err != nil {
		r.logger.Error("store query failed", "report", "today_sales", "err", err)
		return SalesUnavailable
	}
	return FormatSales(orders)
}

func (r *Reports) TopCustomers(ctx context.Context) string {
	if r.src == nil {
		r.logger.Warn("store not configured", "report", "top_customers")
		return CustomersUnavailable
	}

	customers, err := r.src.TopCustomers(ctx, TopCustomerLimit)
	if err != nil {
		r.logger.Error("store query failed", "report", "top_customers", "err", err)
		return CustomersUnavailable
	}
	return FormatTopCustomers(customers)
}

// FormatSales renders the same-day sales sentence.
func FormatSales(orders []shopdb.Order) string {
	if len(orders) == 0 {
		return NoOrdersToday
	}
	total, currency := sumTotals(orders)
	noun := "orders"
	if len(orders) == 1 {
		noun = "order"
	}
	return fmt.Sprintf("We had %d %s totaling $%s %s today.", len(orders), noun, total.StringFixed(2), currency)
}

// FormatTopCustomers renders the ranking sentence, spend rounded to whole units.
func FormatTopCustomers(customers []shopdb.Customer) string {
	if len(customers) == 0 {
		return NoCustomers
	}
	parts := make([]string, len(customers))
	for i, c := range customers {
		parts[i] = fmt.Sprintf("%s %s ($%s)", c.FirstName, c.LastName, c.TotalSpent.StringFixed(0))
	}
	return "Our top customers are " + strings.Join(parts, ", ") + "."
}

// sumTotals adds total_price exactly. The first currency found wins.
func sumTotals(orders []shopdb.Order) (decimal.Decimal, string) {
	return sumBy(orders, func(o shopdb.Order) decimal.Decimal { return o.TotalPrice })
}

// sumAmounts is sumTotals with the unit price standing in for a missing total.
func sumAmounts(orders []shopdb.Order) (decimal.Decimal, string) {
	return sumBy(orders, shopdb.Order.Amount)
}

func sumBy(orders []shopdb.Order, amount func(shopdb.Order) decimal.Decimal) (decimal.Decimal, string) {
	total := decimal.Zero
	currency := ""
	for _, o := range orders {
		total = total.Add(amount(o))
		if currency == "" && o.Currency != "" {
			currency = strings.ToUpper(o.Currency)
		}
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return total, currency
}

// StoreContext builds the data block embedded in the language-model prompt:
// today's totals plus raw snapshots of orders, products and customers.
func (r *Reports) StoreContext(ctx context.Context) string {
	if r.src == nil {
		r.logger.Warn("store not configured", "report", "store_context")
		return ContextUnavailable
	}

	text, err := r.storeContext(ctx)
	if err != nil {
		r.logger.Error("store query failed", "report", "store_context", "err", err)
		return ContextUnavailable
	}
	return text
}

func (r *Reports) storeContext(ctx context.Context) (string, error) {
	from, until := DayWindow(r.now())

	// One read of today's orders feeds both the summary and the raw snapshot.
	orderRows, err := r.src.Rows(ctx, shopdb.RowQuery{Table: shopdb.TableOrders, Since: from, Until: until})
	if err != nil {
		return "", err
	}
	orders, err := shopdb.OrdersFromRows(orderRows)
	if err != nil {
		return "", err
	}
	products, err := r.src.Rows(ctx, shopdb.RowQuery{Table: shopdb.TableProducts, Limit: snapshotLimit})
	if err != nil {
		return "", err
	}
	customers, err := r.src.Rows(ctx, shopdb.RowQuery{Table: shopdb.TableCustomers, Limit: snapshotLimit})
	if err != nil {
		return "", err
	}

	total, currency := sumAmounts(orders)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Today's Store Summary (%s)\n", from.Format(time.DateOnly))
	fmt.Fprintf(&sb, "- Total orders: %d\n", len(orders))
	fmt.Fprintf(&sb, "- Total sales: $%s %s\n\n", total.StringFixed(2), currency)
	sb.WriteString("# Raw Data from Database\n")
	for _, section := range []struct {
		title string
		rows  []shopdb.Row
	}{
		{"Orders (today)", orderRows},
		{"Products (first 10)", products},
		{"Customers (first 10)", customers},
	} {
		data, err := json.MarshalIndent(nonNil(section.rows), "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding %s: %w", section.title, err)
		}
		fmt.Fprintf(&sb, "## %s\n%s\n\n", section.title, data)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func nonNil(rows []shopdb.Row) []shopdb.Row {
	if rows == nil {
		return []shopdb.Row{}
	}
	return rows
}
