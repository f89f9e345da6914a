package shopdb

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by Open when no store credentials are present.
var ErrNotConfigured = errors.New("shopdb: store credentials not configured")

// Source is the read-only view of the shop database.
type Source interface {
	// OrdersBetween returns orders with from <= created_at < until.
	OrdersBetween(ctx context.Context, from, until time.Time) ([]Order, error)
	// TopCustomers returns up to limit customers by total_spent, highest first.
	TopCustomers(ctx context.Context, limit int) ([]Customer, error)
	Rows(ctx context.Context, q RowQuery) ([]Row, error)
	Close()
}

type Options struct {
	// DatabaseURL selects the direct Postgres backend and wins over the REST one.
	DatabaseURL string
	RESTURL     string
	RESTKey     string
}

// Open picks a backend from opts. It returns ErrNotConfigured when neither
// backend has enough to connect.
func Open(ctx context.Context, opts Options) (Source, error) {
	switch {
	case opts.DatabaseURL != "":
		pg, err := NewPostgresClient(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case opts.RESTURL != "" && opts.RESTKey != "":
		return NewRESTClient(opts.RESTURL, opts.RESTKey), nil
	default:
		return nil, ErrNotConfigured
	}
}
