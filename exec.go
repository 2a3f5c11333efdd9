package esquery

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
	"github.com/kailas-cloud/esquery/internal/domain/search/result"
)

// Hit is a typed search result.
type Hit[T any] struct {
	ID    string
	Score float64
	Item  T
}

// Page is one window of typed hits. Total counts all matches.
type Page[T any] struct {
	Total int64
	Hits  []Hit[T]
}

// Find runs q and decodes the hit sources into T.
func Find[T any](ctx context.Context, c *Client, q Query[T]) (Page[T], error) {
	resp, err := c.run(ctx, "find", q.node)
	if err != nil {
		return Page[T]{}, err
	}
	page := Page[T]{Total: resp.Total, Hits: make([]Hit[T], 0, len(resp.Hits))}
	for _, h := range resp.Hits {
		hit := Hit[T]{ID: h.ID}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		if len(h.Source) > 0 {
			if err := decodeSource(h.Source, &hit.Item); err != nil {
				return Page[T]{}, fmt.Errorf("decode hit %s: %w", h.ID, err)
			}
		}
		page.Hits = append(page.Hits, hit)
	}
	return page, nil
}

// Count returns the number of documents matching q.
func Count[T any](ctx context.Context, c *Client, q Query[T]) (int64, error) {
	resp, err := c.run(ctx, "count", q.CountQuery().ast())
	if err != nil {
		return 0, err
	}
	if resp.Count != nil {
		return *resp.Count, nil
	}
	return resp.Total, nil
}

// Exists reports whether any document matches q.
func Exists[T any](ctx context.Context, c *Client, q Query[T]) (bool, error) {
	resp, err := c.run(ctx, "exists", &expr.Call{Method: expr.MethodAny, Source: q.node})
	if err != nil {
		return false, err
	}
	if resp.Count != nil {
		return *resp.Count > 0, nil
	}
	return resp.Total > 0, nil
}

// Sum totals field over the documents matching q. Empty results give nil.
func Sum[T any](ctx context.Context, c *Client, q Query[T], field Expr) (*float64, error) {
	return scalar(ctx, c, q.aggregate(expr.MethodSum, field))
}

// Min is the smallest value of field over q.
func Min[T any](ctx context.Context, c *Client, q Query[T], field Expr) (*float64, error) {
	return scalar(ctx, c, q.aggregate(expr.MethodMin, field))
}

// Max is the largest value of field over q.
func Max[T any](ctx context.Context, c *Client, q Query[T], field Expr) (*float64, error) {
	return scalar(ctx, c, q.aggregate(expr.MethodMax, field))
}

// Average is the mean of field over q.
func Average[T any](ctx context.Context, c *Client, q Query[T], field Expr) (*float64, error) {
	return scalar(ctx, c, q.aggregate(expr.MethodAverage, field))
}

func scalar(ctx context.Context, c *Client, q Querier) (*float64, error) {
	resp, err := c.run(ctx, "aggregate", q.ast())
	if err != nil {
		return nil, err
	}
	if len(resp.Rows) == 0 {
		return nil, nil
	}
	row := resp.Rows[0]
	for _, name := range row.Names() {
		v, _ := row.Get(name)
		f, ok := toFloat(v)
		if !ok {
			return nil, nil
		}
		return &f, nil
	}
	return nil, nil
}

// Rows runs a grouped query and decodes each materialized row into R.
func Rows[R, T any](ctx context.Context, c *Client, g Grouping[T]) ([]R, error) {
	resp, err := c.run(ctx, "rows", g.node)
	if err != nil {
		return nil, err
	}
	return RowsAs[R](resp.Rows)
}

// Row is one materialized aggregation row: named scalar values in column
// order.
type Row = result.Row
