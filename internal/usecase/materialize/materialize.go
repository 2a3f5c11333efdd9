// Package materialize flattens bucket aggregation responses into rows.
package materialize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/search/aggregation"
	"github.com/kailas-cloud/esquery/internal/domain/search/request"
	"github.com/kailas-cloud/esquery/internal/domain/search/result"
)

// KeyAlias exposes the key of a single group field.
const KeyAlias = "key"

// Materialize walks the aggregations of a response and returns one row per
// innermost bucket (or one row for ungrouped aggregates). Each row holds the
// bucket keys by group field name and the aggregate values by call name.
func Materialize(aggs map[string]json.RawMessage, spec aggregation.Spec) ([]*result.Row, error) {
	if len(aggs) == 0 {
		return nil, nil
	}
	return walker{spec: spec}.level(aggs, result.NewRow())
}

// ErrInexactCount is returned when a document count would be read from a
// total the engine only bounded from below.
var ErrInexactCount = errors.New("document count is a lower bound")

// FromPage materializes the aggregations of a decoded response. Ungrouped
// document counts are read from the response total.
func FromPage(page result.Page, spec aggregation.Spec) ([]*result.Row, error) {
	rows, err := Materialize(page.Aggregations, spec)
	if err != nil {
		return nil, err
	}
	if spec.IsGrouped() || !spec.WantsDocCount() {
		return rows, nil
	}
	if page.TotalIsLowerBound {
		return nil, fmt.Errorf("%w: at least %d", ErrInexactCount, page.Total)
	}
	if len(rows) == 0 {
		rows = []*result.Row{result.NewRow()}
	}
	for _, r := range rows {
		r.Set(string(aggregation.Count), page.Total)
	}
	return rows, nil
}

type walker struct {
	spec aggregation.Spec
}

// node is one aggregation result: either buckets or a single value.
type node struct {
	Buckets json.RawMessage `json:"buckets"`
	Value   json.RawMessage `json:"value"`
}

type bucket struct {
	key      any
	docCount int64
	subs     map[string]json.RawMessage
}

func (w walker) level(aggs map[string]json.RawMessage, props *result.Row) ([]*result.Row, error) {
	var rows []*result.Row
	emit := false

	names := make([]string, 0, len(aggs))
	for name, raw := range aggs {
		if isObject(raw) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	for _, name := range names {
		var n node
		if err := json.Unmarshal(aggs[name], &n); err != nil {
			return nil, fmt.Errorf("aggregation %s: %w", name, err)
		}
		switch {
		case len(n.Buckets) > 0:
			buckets, err := decodeBuckets(n.Buckets)
			if err != nil {
				return nil, fmt.Errorf("aggregation %s: %w", name, err)
			}
			group, isGroup := w.spec.Group(name)
			if !isGroup && strings.HasSuffix(name, aggregation.CountSuffix) {
				props.Set(name, distinctKeys(buckets))
				emit = true
				continue
			}
			for _, b := range buckets {
				p := props.Clone()
				p.Set(name, keyValue(b.key, group))
				if w.spec.WantsDocCount() {
					p.Set(string(aggregation.Count), b.docCount)
				}
				if len(b.subs) == 0 {
					rows = append(rows, p)
					continue
				}
				sub, err := w.level(b.subs, p)
				if err != nil {
					return nil, err
				}
				rows = append(rows, sub...)
			}
		case len(n.Value) > 0:
			v, err := scalar(n.Value)
			if err != nil {
				return nil, fmt.Errorf("aggregation %s: %w", name, err)
			}
			props.Set(name, v)
			emit = true
		}
	}
	if emit {
		rows = append(rows, props.Clone())
	}
	return rows, nil
}

// decodeBuckets accepts both the array form and the keyed object form.
func decodeBuckets(raw json.RawMessage) ([]bucket, error) {
	var list []map[string]json.RawMessage
	var keys []string
	if raw[0] == '{' {
		var keyed map[string]map[string]json.RawMessage
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return nil, err
		}
		for k := range keyed {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			list = append(list, keyed[k])
		}
	} else if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}

	out := make([]bucket, 0, len(list))
	for i, fields := range list {
		b := bucket{subs: make(map[string]json.RawMessage)}
		if k, ok := fields["key"]; ok {
			v, err := scalar(k)
			if err != nil {
				return nil, err
			}
			b.key = v
		} else if keys != nil {
			b.key = keys[i]
		}
		if dc, ok := fields["doc_count"]; ok {
			if err := json.Unmarshal(dc, &b.docCount); err != nil {
				return nil, err
			}
		}
		for name, v := range fields {
			if isObject(v) {
				b.subs[name] = v
			}
		}
		out = append(out, b)
	}
	return out, nil
}

func distinctKeys(buckets []bucket) int64 {
	seen := make(map[any]struct{}, len(buckets))
	for _, b := range buckets {
		seen[b.key] = struct{}{}
	}
	return int64(len(seen))
}

// keyValue converts date histogram keys (epoch millis) to UTC times.
func keyValue(key any, g aggregation.GroupField) any {
	if g.Kind != aggregation.KindDate {
		return key
	}
	switch k := key.(type) {
	case int64:
		return time.UnixMilli(k).UTC()
	case float64:
		return time.UnixMilli(int64(k)).UTC()
	}
	return key
}

// scalar decodes a JSON scalar, keeping integers as int64.
func scalar(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return n.Float64()
	}
	return v, nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// Project renames row columns to the requested aliases. Every column must
// name a group field or an aggregate of spec. With a single group field
// its key is also exposed as KeyAlias.
func Project(rows []*result.Row, spec aggregation.Spec, columns []request.Column) ([]*result.Row, error) {
	for _, c := range columns {
		if !known(spec, c.Source) {
			return nil, domain.NewAmbiguousProjection(c.Alias)
		}
	}
	var key string
	if groups := spec.Groups(); len(groups) == 1 {
		key = groups[0].Name()
	}

	out := make([]*result.Row, 0, len(rows))
	for _, r := range rows {
		p := r.Clone()
		if len(columns) > 0 {
			p = result.NewRow()
			for _, c := range columns {
				v, _ := r.Get(c.Source)
				p.Set(c.Alias, v)
			}
		}
		if key != "" {
			if _, ok := p.Get(KeyAlias); !ok {
				v, _ := r.Get(key)
				p.Set(KeyAlias, v)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func known(spec aggregation.Spec, name string) bool {
	if _, ok := spec.Group(name); ok {
		return true
	}
	_, ok := spec.Call(name)
	return ok
}
