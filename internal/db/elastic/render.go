package elastic

import "github.com/kailas-cloud/esquery/internal/domain/search/criteria"

// Render converts a criteria tree to its query DSL object. Compensated trees
// render Bool only; raw connectives are rendered as equivalent bool queries.
func Render(c criteria.Criteria) map[string]any {
	if c == nil {
		return matchAll()
	}
	return criteria.Visit[map[string]any](c, renderer{})
}

type renderer struct{}

func matchAll() map[string]any {
	return map[string]any{"match_all": map[string]any{}}
}

// leaf wraps body in a nested query when the leaf is nested.
func leaf(n criteria.Nesting, kind string, body any) map[string]any {
	q := map[string]any{kind: body}
	if n.Nested == "" {
		return q
	}
	return map[string]any{"nested": map[string]any{"path": n.Nested, "query": q}}
}

func (renderer) MatchAll(c criteria.MatchAll) map[string]any {
	return leaf(c.Nesting, "match_all", map[string]any{})
}

func (renderer) Constant(c criteria.Constant) map[string]any {
	if c.Value {
		return leaf(c.Nesting, "match_all", map[string]any{})
	}
	return leaf(c.Nesting, "bool", map[string]any{"must_not": []any{matchAll()}})
}

func (renderer) Exists(c criteria.Exists) map[string]any {
	return leaf(c.Nesting, "exists", map[string]any{"field": c.Field})
}

func (renderer) Term(c criteria.Term) map[string]any {
	return leaf(c.Nesting, "term", map[string]any{c.Field: map[string]any{"value": c.Value}})
}

func (renderer) Terms(c criteria.Terms) map[string]any {
	values := c.Values
	if values == nil {
		values = []any{}
	}
	return leaf(c.Nesting, "terms", map[string]any{c.Field: values})
}

func (renderer) Range(c criteria.Range) map[string]any {
	return leaf(c.Nesting, "range", map[string]any{c.Field: c.Bounds.Map()})
}

func (renderer) DateRange(c criteria.DateRange) map[string]any {
	return leaf(c.Nesting, "range", map[string]any{c.Field: c.Bounds.Map()})
}

func (renderer) Match(c criteria.Match) map[string]any {
	kind := "match"
	if c.Phrase {
		kind = "match_phrase"
	}
	return leaf(c.Nesting, kind, map[string]any{c.Field: map[string]any{"query": c.Value}})
}

func (renderer) Prefix(c criteria.Prefix) map[string]any {
	return leaf(c.Nesting, "prefix", map[string]any{c.Field: map[string]any{"value": c.Value}})
}

func (renderer) Regexp(c criteria.Regexp) map[string]any {
	return leaf(c.Nesting, "regexp", map[string]any{c.Field: c.Pattern})
}

func (renderer) QueryString(c criteria.QueryString) map[string]any {
	body := map[string]any{"query": c.Query}
	if len(c.Fields) > 0 {
		body["fields"] = c.Fields
	}
	return leaf(c.Nesting, "query_string", body)
}

// NestedWrapper renders an uncompensated wrapper; its children stay relative.
func (r renderer) NestedWrapper(c criteria.NestedWrapper) map[string]any {
	var inner map[string]any
	if len(c.Children) == 1 {
		inner = Render(c.Children[0])
	} else {
		inner = r.Bool(criteria.Bool{Must: c.Children})
	}
	return map[string]any{"nested": map[string]any{"path": c.Path, "query": inner}}
}

func (r renderer) Not(c criteria.Not) map[string]any {
	return r.Bool(criteria.Bool{MustNot: []criteria.Criteria{c.Inner}})
}

func (r renderer) And(c criteria.And) map[string]any {
	return r.Bool(criteria.Bool{Must: c.Children})
}

func (r renderer) Or(c criteria.Or) map[string]any {
	return r.Bool(criteria.Bool{Should: c.Children})
}

// Bool omits empty clause lists. A bool holding a single must or a single
// should clause renders as that clause alone.
func (renderer) Bool(c criteria.Bool) map[string]any {
	if len(c.MustNot) == 0 {
		switch {
		case len(c.Must) == 1 && len(c.Should) == 0:
			return Render(c.Must[0])
		case len(c.Should) == 1 && len(c.Must) == 0:
			return Render(c.Should[0])
		case len(c.Must) == 0 && len(c.Should) == 0:
			return matchAll()
		}
	}
	body := make(map[string]any, 4)
	if len(c.Must) > 0 {
		body["must"] = renderAll(c.Must)
	}
	if len(c.MustNot) > 0 {
		body["must_not"] = renderAll(c.MustNot)
	}
	if len(c.Should) > 0 {
		body["should"] = renderAll(c.Should)
		body["minimum_should_match"] = 1
	}
	return map[string]any{"bool": body}
}

func renderAll(list []criteria.Criteria) []any {
	out := make([]any, 0, len(list))
	for _, c := range list {
		out = append(out, Render(c))
	}
	return out
}
