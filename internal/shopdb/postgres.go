package shopdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresClient reads straight from the store's Postgres database.
// Rows are fetched as to_jsonb so both backends decode the same shapes.
type PostgresClient struct {
	pool *pgxpool.Pool
}

func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	config.MaxConns = 5
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresClient{pool: pool}, nil
}

func (p *PostgresClient) OrdersBetween(ctx context.Context, from, until time.Time) ([]Order, error) {
	sql, args := buildRowQuery(RowQuery{Table: TableOrders, Since: from, Until: until})
	docs, err := p.queryJSON(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("orders: %w", err)
	}

	orders := make([]Order, 0, len(docs))
	for _, d := range docs {
		var o Order
		if err := json.Unmarshal(d, &o); err != nil {
			return nil, fmt.Errorf("decoding order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (p *PostgresClient) TopCustomers(ctx context.Context, limit int) ([]Customer, error) {
	sql := `SELECT to_jsonb(t)::text FROM customers t ORDER BY total_spent DESC NULLS LAST LIMIT $1`
	docs, err := p.queryJSON(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("customers: %w", err)
	}

	customers := make([]Customer, 0, len(docs))
	for _, d := range docs {
		var c Customer
		if err := json.Unmarshal(d, &c); err != nil {
			return nil, fmt.Errorf("decoding customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, nil
}

func (p *PostgresClient) Rows(ctx context.Context, q RowQuery) ([]Row, error) {
	sql, args := buildRowQuery(q)
	docs, err := p.queryJSON(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Table, err)
	}

	rows := make([]Row, 0, len(docs))
	for _, d := range docs {
		row, err := decodeRow(d)
		if err != nil {
			return nil, fmt.Errorf("decoding %s row: %w", q.Table, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (p *PostgresClient) Close() {
	p.pool.Close()
}

func (p *PostgresClient) queryJSON(ctx context.Context, sql string, args ...any) ([][]byte, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]byte, error) {
		var doc string
		err := row.Scan(&doc)
		return []byte(doc), err
	})
}

// buildRowQuery renders a RowQuery as SQL. Table names are quoted identifiers,
// values are always bound parameters.
func buildRowQuery(q RowQuery) (string, []any) {
	var (
		sb    strings.Builder
		where []string
		args  []any
	)
	sb.WriteString("SELECT to_jsonb(t)::text FROM ")
	sb.WriteString(pgx.Identifier{q.Table}.Sanitize())
	sb.WriteString(" t")

	if !q.Since.IsZero() {
		args = append(args, q.Since.UTC())
		where = append(where, "created_at >= $"+strconv.Itoa(len(args)))
	}
	if !q.Until.IsZero() {
		args = append(args, q.Until.UTC())
		where = append(where, "created_at < $"+strconv.Itoa(len(args)))
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	return sb.String(), args
}
