package elastic

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/esquery/internal/domain/search/aggregation"
	"github.com/kailas-cloud/esquery/internal/domain/search/request"
)

// Serializer defaults.
const (
	DefaultSize       = 10000
	DefaultMaxBuckets = 10000
)

// Options tune request rendering.
type Options struct {
	// DefaultSize is sent when the spec sets no size.
	DefaultSize int
	// MaxBuckets caps terms bucket aggregations.
	MaxBuckets int
}

func (o Options) withDefaults() Options {
	if o.DefaultSize <= 0 {
		o.DefaultSize = DefaultSize
	}
	if o.MaxBuckets <= 0 {
		o.MaxBuckets = DefaultMaxBuckets
	}
	return o
}

// Serialize renders spec as a search request body. Object keys are emitted
// in sorted order, so equal specs serialize to identical bytes.
func Serialize(spec *request.SearchSpec, opts Options) ([]byte, error) {
	data, err := json.Marshal(Body(spec, opts))
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", spec.Index(), err)
	}
	return data, nil
}

// SerializeCount renders only the query of spec, as accepted by the count API.
func SerializeCount(spec *request.SearchSpec) ([]byte, error) {
	data, err := json.Marshal(map[string]any{"query": Render(spec.Query())})
	if err != nil {
		return nil, fmt.Errorf("serialize count %s: %w", spec.Index(), err)
	}
	return data, nil
}

// Body builds the request envelope: query, sort, size, from and aggregations.
// An ungrouped bare Count is read from the hit total, so it asks the engine
// to count every hit instead of stopping at its default threshold.
func Body(spec *request.SearchSpec, opts Options) map[string]any {
	opts = opts.withDefaults()
	body := map[string]any{"query": Render(spec.Query())}

	if sorts := spec.Sort(); len(sorts) > 0 {
		out := make([]any, 0, len(sorts))
		for _, k := range sorts {
			order := "desc"
			if k.Ascending {
				order = "asc"
			}
			out = append(out, map[string]any{k.Field: map[string]any{"order": order}})
		}
		body["sort"] = out
	}

	size := opts.DefaultSize
	if s := spec.Size(); s != nil {
		size = *s
	}
	body["size"] = size
	if f := spec.From(); f != nil {
		body["from"] = *f
	}

	if a := spec.Aggregations(); a != nil {
		if aggs := Aggregations(*a, opts); len(aggs) > 0 {
			body["aggregations"] = aggs
		}
		if !a.IsGrouped() && a.WantsDocCount() {
			body["track_total_hits"] = true
		}
	}
	return body
}

// Aggregations renders the group chain outermost first, with the aggregate
// calls in the innermost level. A bare Count is read from doc_count and is
// not rendered.
func Aggregations(spec aggregation.Spec, opts Options) map[string]any {
	opts = opts.withDefaults()
	level := make(map[string]any, len(spec.Calls()))
	for _, c := range spec.Calls() {
		if c.IsDocCount() {
			continue
		}
		level[c.Name()] = metric(c, opts)
	}

	groups := spec.Groups()
	for i := len(groups) - 1; i >= 0; i-- {
		node := bucket(groups[i], opts)
		if len(level) > 0 {
			node["aggregations"] = level
		}
		level = map[string]any{groups[i].Name(): node}
	}
	return level
}

func bucket(g aggregation.GroupField, opts Options) map[string]any {
	if g.Kind == aggregation.KindDate {
		return map[string]any{"date_histogram": map[string]any{
			"field":          g.Field,
			"fixed_interval": aggregation.DateInterval,
			"min_doc_count":  1,
		}}
	}
	return map[string]any{"terms": map[string]any{
		"field":         g.Field,
		"size":          opts.MaxBuckets,
		"min_doc_count": 1,
	}}
}

func metric(c aggregation.Call, opts Options) map[string]any {
	field := map[string]any{"field": c.Field}
	switch c.Method {
	case aggregation.Sum:
		return map[string]any{"sum": field}
	case aggregation.Min:
		return map[string]any{"min": field}
	case aggregation.Max:
		return map[string]any{"max": field}
	case aggregation.Average:
		return map[string]any{"avg": field}
	case aggregation.CountDistinct:
		return map[string]any{"terms": map[string]any{"field": c.Field, "size": opts.MaxBuckets}}
	default:
		return map[string]any{"value_count": field}
	}
}
