package criteria

import "fmt"

// Visitor handles every criteria kind. Adding a kind adds a method here, so
// an implementation that misses it stops compiling.
type Visitor[R any] interface {
	MatchAll(MatchAll) R
	Constant(Constant) R
	Exists(Exists) R
	Term(Term) R
	Terms(Terms) R
	Range(Range) R
	DateRange(DateRange) R
	Match(Match) R
	Prefix(Prefix) R
	Regexp(Regexp) R
	QueryString(QueryString) R
	NestedWrapper(NestedWrapper) R
	Not(Not) R
	And(And) R
	Or(Or) R
	Bool(Bool) R
}

// Visit dispatches c to the matching Visitor method.
func Visit[R any](c Criteria, v Visitor[R]) R {
	switch n := c.(type) {
	case MatchAll:
		return v.MatchAll(n)
	case Constant:
		return v.Constant(n)
	case Exists:
		return v.Exists(n)
	case Term:
		return v.Term(n)
	case Terms:
		return v.Terms(n)
	case Range:
		return v.Range(n)
	case DateRange:
		return v.DateRange(n)
	case Match:
		return v.Match(n)
	case Prefix:
		return v.Prefix(n)
	case Regexp:
		return v.Regexp(n)
	case QueryString:
		return v.QueryString(n)
	case NestedWrapper:
		return v.NestedWrapper(n)
	case Not:
		return v.Not(n)
	case And:
		return v.And(n)
	case Or:
		return v.Or(n)
	case Bool:
		return v.Bool(n)
	}
	// Only reachable with a nil Criteria.
	panic(fmt.Sprintf("criteria: unhandled node %T", c))
}

// MapLeaves returns a copy of c with every leaf replaced by fn(leaf).
// NestedWrapper children are not descended into.
func MapLeaves(c Criteria, fn func(Leaf) Leaf) Criteria {
	switch n := c.(type) {
	case Not:
		return Not{Inner: MapLeaves(n.Inner, fn)}
	case And:
		return And{Children: mapAll(n.Children, fn)}
	case Or:
		return Or{Children: mapAll(n.Children, fn)}
	case Bool:
		return Bool{Must: mapAll(n.Must, fn), Should: mapAll(n.Should, fn), MustNot: mapAll(n.MustNot, fn)}
	case Leaf:
		return fn(n)
	}
	return c
}

func mapAll(list []Criteria, fn func(Leaf) Leaf) []Criteria {
	if list == nil {
		return nil
	}
	out := make([]Criteria, len(list))
	for i, c := range list {
		out[i] = MapLeaves(c, fn)
	}
	return out
}
