// Package aggregation describes grouping and aggregate calls of a query.
package aggregation

import "fmt"

// CountSuffix marks bucket aggregations that count distinct keys.
const CountSuffix = "Count"

// DateInterval is the fixed bucket interval of date group fields.
const DateInterval = "1d"

// ValueKind selects the bucketing strategy of a group field.
type ValueKind int

const (
	// KindOther groups by exact term.
	KindOther ValueKind = iota
	// KindDate groups by DateInterval.
	KindDate
)

// GroupField is one level of grouping, outermost first.
type GroupField struct {
	Field string
	Kind  ValueKind
}

// Name is the aggregation name of the group level.
func (g GroupField) Name() string { return g.Field }

// Method is an aggregate function.
type Method string

// Aggregate methods.
const (
	Count         Method = "Count"
	CountDistinct Method = "CountDistinct"
	Sum           Method = "Sum"
	Min           Method = "Min"
	Max           Method = "Max"
	Average       Method = "Average"
)

// IsValid reports whether m is a known method.
func (m Method) IsValid() bool {
	switch m {
	case Count, CountDistinct, Sum, Min, Max, Average:
		return true
	}
	return false
}

// Call is an aggregate applied to a field. Field is empty only for Count,
// which then reads the bucket document count.
type Call struct {
	Field  string
	Method Method
}

// Name is the deterministic aggregation name of the call.
func (c Call) Name() string {
	switch {
	case c.Method == CountDistinct:
		return c.Field + CountSuffix
	case c.Field == "":
		return string(c.Method)
	default:
		return fmt.Sprintf("%s_%s", c.Method, c.Field)
	}
}

// IsDocCount reports whether the call reads the document count.
func (c Call) IsDocCount() bool { return c.Method == Count && c.Field == "" }

// Spec is the grouping chain plus the aggregate calls evaluated in its
// innermost level (or over the whole result when there is no grouping).
type Spec struct {
	groups []GroupField
	calls  []Call
}

// New builds a Spec. Duplicate group fields and calls with equal names
// collapse to their first occurrence.
func New(groups []GroupField, calls []Call) Spec {
	s := Spec{}
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if _, ok := seen[g.Name()]; ok {
			continue
		}
		seen[g.Name()] = struct{}{}
		s.groups = append(s.groups, g)
	}
	names := make(map[string]struct{}, len(calls))
	for _, c := range calls {
		if _, ok := names[c.Name()]; ok {
			continue
		}
		names[c.Name()] = struct{}{}
		s.calls = append(s.calls, c)
	}
	return s
}

// Groups returns the group fields, outermost first.
func (s Spec) Groups() []GroupField { return s.groups }

// Calls returns the aggregate calls.
func (s Spec) Calls() []Call { return s.calls }

// IsEmpty reports whether there is nothing to aggregate.
func (s Spec) IsEmpty() bool { return len(s.groups) == 0 && len(s.calls) == 0 }

// IsGrouped reports whether the spec has at least one group field.
func (s Spec) IsGrouped() bool { return len(s.groups) > 0 }

// Group returns the group field with the given name.
func (s Spec) Group(name string) (GroupField, bool) {
	for _, g := range s.groups {
		if g.Name() == name {
			return g, true
		}
	}
	return GroupField{}, false
}

// Call returns the call with the given name.
func (s Spec) Call(name string) (Call, bool) {
	for _, c := range s.calls {
		if c.Name() == name {
			return c, true
		}
	}
	return Call{}, false
}

// WantsDocCount reports whether a bare Count is requested.
func (s Spec) WantsDocCount() bool {
	for _, c := range s.calls {
		if c.IsDocCount() {
			return true
		}
	}
	return false
}
