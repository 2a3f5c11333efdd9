// Package compensate rewrites filter-semantics criteria into the engine's
// bool query semantics.
package compensate

import (
	"fmt"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/search/criteria"
)

// Compensate returns a tree made of Bool, leaf criteria and nested leaves
// only. It does not modify c and is safe for concurrent use.
func Compensate(c criteria.Criteria) (criteria.Criteria, error) {
	if c == nil {
		return criteria.MatchAll{}, nil
	}
	v := &compensator{}
	out := criteria.Visit[criteria.Criteria](c, v)
	if v.err != nil {
		return nil, v.err
	}
	return out, nil
}

// compensator keeps the first error; later results are discarded.
type compensator struct {
	err error
}

func (v *compensator) visit(c criteria.Criteria) criteria.Criteria {
	if v.err != nil {
		return nil
	}
	return criteria.Visit[criteria.Criteria](c, v)
}

func (v *compensator) all(list []criteria.Criteria) []criteria.Criteria {
	if len(list) == 0 {
		return nil
	}
	out := make([]criteria.Criteria, 0, len(list))
	for _, c := range list {
		out = append(out, v.visit(c))
	}
	return out
}

func (v *compensator) MatchAll(c criteria.MatchAll) criteria.Criteria       { return c }
func (v *compensator) Exists(c criteria.Exists) criteria.Criteria           { return c }
func (v *compensator) Term(c criteria.Term) criteria.Criteria               { return c }
func (v *compensator) Terms(c criteria.Terms) criteria.Criteria             { return c }
func (v *compensator) Range(c criteria.Range) criteria.Criteria             { return c }
func (v *compensator) DateRange(c criteria.DateRange) criteria.Criteria     { return c }
func (v *compensator) Match(c criteria.Match) criteria.Criteria             { return c }
func (v *compensator) Prefix(c criteria.Prefix) criteria.Criteria           { return c }
func (v *compensator) Regexp(c criteria.Regexp) criteria.Criteria           { return c }
func (v *compensator) QueryString(c criteria.QueryString) criteria.Criteria { return c }

func (v *compensator) Bool(c criteria.Bool) criteria.Criteria {
	return criteria.Bool{Must: v.all(c.Must), Should: v.all(c.Should), MustNot: v.all(c.MustNot)}
}

// Constant false is compensated as Not(MatchAll).
func (v *compensator) Constant(c criteria.Constant) criteria.Criteria {
	all := criteria.MatchAll{Nesting: c.Nesting}
	if c.Value {
		return all
	}
	return v.Not(criteria.Not{Inner: all})
}

func (v *compensator) Or(c criteria.Or) criteria.Criteria {
	return criteria.Bool{Should: v.all(c.Children)}
}

// And flattens a single Or child into should. With two or more Or children
// each stays in must as its own bool query.
func (v *compensator) And(c criteria.And) criteria.Criteria {
	var rest, ors, nots []criteria.Criteria
	orCount := 0
	for _, ch := range c.Children {
		if _, ok := ch.(criteria.Or); ok {
			orCount++
		}
	}
	for _, ch := range c.Children {
		switch n := ch.(type) {
		case criteria.Not:
			nots = append(nots, n.Inner)
		case criteria.Or:
			if orCount == 1 {
				ors = append(ors, n.Children...)
				continue
			}
			rest = append(rest, n)
		default:
			rest = append(rest, n)
		}
	}
	return criteria.Bool{Must: v.all(rest), Should: v.all(ors), MustNot: v.all(nots)}
}

// Not over an Or excludes each alternative; any other operand is excluded
// as a whole.
func (v *compensator) Not(c criteria.Not) criteria.Criteria {
	if or, ok := c.Inner.(criteria.Or); ok {
		return criteria.Bool{MustNot: v.all(or.Children)}
	}
	return criteria.Bool{MustNot: []criteria.Criteria{v.visit(c.Inner)}}
}

// NestedWrapper moves its single child under the wrapper path and tags
// every leaf with it, then compensates the result. Each leaf renders as its
// own nested query, so two conditions under one wrapper may be met by
// different elements of the collection.
func (v *compensator) NestedWrapper(c criteria.NestedWrapper) criteria.Criteria {
	if len(c.Children) != 1 {
		v.err = fmt.Errorf("%w: %q has %d children", domain.ErrInvalidNestedWrapper, c.Path, len(c.Children))
		return nil
	}
	prefix := c.Path + "."
	child := criteria.MapLeaves(c.Children[0], func(l criteria.Leaf) criteria.Leaf {
		l = l.WithFieldPrefix(prefix)
		if l.NestedPath() == "" {
			l = l.WithNested(c.Path)
		}
		return l
	})
	return v.visit(child)
}
