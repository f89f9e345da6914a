package shopdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// filterTimeLayout matches how the store renders created_at without a zone.
const filterTimeLayout = "2006-01-02T15:04:05"

// RESTClient reads through Supabase's PostgREST interface.
// Reference: https://postgrest.org/en/stable/references/api/tables_views.html
type RESTClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewRESTClient(baseURL, apiKey string) *RESTClient {
	return &RESTClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *RESTClient) OrdersBetween(ctx context.Context, from, until time.Time) ([]Order, error) {
	q := url.Values{}
	q.Set("select", "*")
	addWindow(q, from, until)

	var orders []Order
	if err := c.getJSON(ctx, TableOrders, q, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *RESTClient) TopCustomers(ctx context.Context, limit int) ([]Customer, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "total_spent.desc.nullslast")
	q.Set("limit", strconv.Itoa(limit))

	var customers []Customer
	if err := c.getJSON(ctx, TableCustomers, q, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

func (c *RESTClient) Rows(ctx context.Context, rq RowQuery) ([]Row, error) {
	q := url.Values{}
	q.Set("select", "*")
	addWindow(q, rq.Since, rq.Until)
	if rq.Limit > 0 {
		q.Set("limit", strconv.Itoa(rq.Limit))
	}

	body, err := c.get(ctx, rq.Table, q)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s rows: %w", rq.Table, err)
	}
	return rows, nil
}

func (c *RESTClient) Close() {}

func addWindow(q url.Values, from, until time.Time) {
	if !from.IsZero() {
		q.Add("created_at", "gte."+from.UTC().Format(filterTimeLayout))
	}
	if !until.IsZero() {
		q.Add("created_at", "lt."+until.UTC().Format(filterTimeLayout))
	}
}

func (c *RESTClient) getJSON(ctx context.Context, table string, q url.Values, out any) error {
	body, err := c.get(ctx, table, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", table, err)
	}
	return nil
}

func (c *RESTClient) get(ctx context.Context, table string, q url.Values) ([]byte, error) {
	u := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, url.PathEscape(table), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", table, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: table, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
