package result

import (
	"bytes"
	"encoding/json"
)

// Row is one materialized aggregation row: named scalar values in insertion order.
type Row struct {
	names  []string
	values map[string]any
}

// NewRow creates an empty row.
func NewRow() *Row {
	return &Row{values: make(map[string]any)}
}

// Set assigns a value, keeping the position of an existing name.
func (r *Row) Set(name string, v any) {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

// Get returns the value for name.
func (r *Row) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Names returns the column names in insertion order.
func (r *Row) Names() []string { return r.names }

// Len returns the number of columns.
func (r *Row) Len() int { return len(r.names) }

// Clone returns an independent copy.
func (r *Row) Clone() *Row {
	c := &Row{
		names:  append([]string(nil), r.names...),
		values: make(map[string]any, len(r.values)),
	}
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// Map returns the row as a plain map.
func (r *Row) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// MarshalJSON renders the row as an object in column order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Hit is a single matching document.
type Hit struct {
	ID     string          `json:"id"`
	Score  *float64        `json:"score,omitempty"`
	Source json.RawMessage `json:"source"`
}

// Page is a decoded engine response.
type Page struct {
	Total int64
	// TotalIsLowerBound is set when the engine stopped counting hits.
	TotalIsLowerBound bool
	Hits         []Hit
	Aggregations map[string]json.RawMessage
}

// Response is the outcome of executing a translated query.
type Response struct {
	Total int64  `json:"total"`
	Hits  []Hit  `json:"hits,omitempty"`
	Rows  []*Row `json:"rows,omitempty"`
	// Count is set for count-only queries.
	Count *int64 `json:"count,omitempty"`
}
