package translate

import (
	"fmt"
	"reflect"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
	"github.com/kailas-cloud/esquery/internal/domain/search/aggregation"
	"github.com/kailas-cloud/esquery/internal/domain/search/request"
)

// groupBy records the grouping key. A composite key adds one group field
// per member, outermost first; a constant key groups everything together.
func (t *traversal) groupBy(c *expr.Call) error {
	if t.grouped {
		return domain.NewUnsupportedOperation("nested " + c.Method)
	}
	lam, err := lambdaArg(c, 0)
	if err != nil {
		return err
	}
	s := t.rootScope(lam)
	t.grouped = true
	t.keyMembers = make(map[string]string)

	switch v := lam.Body.(type) {
	case *expr.Constant:
		return nil
	case *expr.Member:
		g, err := t.groupField(v, s)
		if err != nil {
			return err
		}
		t.groups = append(t.groups, g)
		t.keyMembers[v.Name] = g.Name()
	case *expr.New:
		for _, a := range v.Members {
			m, ok := a.Value.(*expr.Member)
			if !ok {
				return domain.NewUnsupportedOperation(fmt.Sprintf("%s key %s", c.Method, expr.KindOf(a.Value)))
			}
			g, err := t.groupField(m, s)
			if err != nil {
				return err
			}
			t.groups = append(t.groups, g)
			t.keyMembers[a.Name] = g.Name()
		}
	default:
		return domain.NewUnsupportedOperation(fmt.Sprintf("%s(%s)", c.Method, expr.KindOf(lam.Body)))
	}
	return nil
}

func (t *traversal) groupField(m *expr.Member, s scope) (aggregation.GroupField, error) {
	field, d, err := t.resolve(m, s)
	if err != nil {
		return aggregation.GroupField{}, err
	}
	kind := aggregation.KindOther
	if d.IsDate() {
		kind = aggregation.KindDate
	}
	return aggregation.GroupField{Field: field, Kind: kind}, nil
}

// aggregate builds an aggregate call whose selector lambda ranges over elem.
func (t *traversal) aggregate(c *expr.Call, elem reflect.Type) (aggregation.Call, error) {
	method := aggregation.Method(c.Method)
	if len(c.Args) == 0 {
		if method == aggregation.Count {
			return aggregation.Call{Method: method}, nil
		}
		return aggregation.Call{}, domain.NewMissingAggregateTarget(c.Method)
	}
	lam, ok := c.Args[0].(*expr.Lambda)
	if !ok {
		return aggregation.Call{}, domain.NewMissingAggregateTarget(c.Method)
	}
	m, ok := lam.Body.(*expr.Member)
	if !ok {
		return aggregation.Call{}, domain.NewMissingAggregateTarget(c.Method)
	}
	field, _, err := t.resolve(m, scope{param: lam.Param, elem: elem})
	if err != nil {
		return aggregation.Call{}, err
	}
	return aggregation.Call{Field: field, Method: method}, nil
}

// project interprets the projection that follows a GroupBy. Every output
// member must name the group key, a key member or an aggregate over the
// group.
func (t *traversal) project(lam *expr.Lambda) ([]request.Column, []aggregation.Call, error) {
	var cols []request.Column
	var calls []aggregation.Call

	add := func(alias string, n expr.Node) error {
		src, call, err := t.projectMember(lam.Param, alias, n)
		if err != nil {
			return err
		}
		if call != nil {
			calls = append(calls, *call)
		}
		if alias == "" {
			alias = src
		}
		cols = append(cols, request.Column{Alias: alias, Source: src})
		return nil
	}

	if n, ok := lam.Body.(*expr.New); ok {
		for _, a := range n.Members {
			if err := add(a.Name, a.Value); err != nil {
				return nil, nil, err
			}
		}
		return cols, calls, nil
	}
	if err := add("", lam.Body); err != nil {
		return nil, nil, err
	}
	return cols, calls, nil
}

func (t *traversal) projectMember(group, alias string, n expr.Node) (string, *aggregation.Call, error) {
	name := alias
	if name == "" {
		name = expr.KindOf(n)
	}
	switch v := n.(type) {
	case *expr.Member:
		if isKey(v, group) {
			if len(t.groups) != 1 {
				return "", nil, domain.NewAmbiguousProjection(name)
			}
			return t.groups[0].Name(), nil, nil
		}
		if of, ok := v.Of.(*expr.Member); ok && isKey(of, group) {
			if field, ok := t.keyMembers[v.Name]; ok {
				return field, nil, nil
			}
		}
	case *expr.Call:
		p, ok := v.Source.(*expr.Param)
		if !ok || p.Name != group {
			break
		}
		if !aggregation.Method(v.Method).IsValid() {
			return "", nil, domain.NewUnsupportedOperation(v.Method)
		}
		if v.Method == expr.MethodCount && len(v.Args) > 0 {
			if lam, ok := v.Args[0].(*expr.Lambda); ok && !t.isValueMember(lam.Body, scope{param: lam.Param, elem: t.elem}) {
				return "", nil, domain.NewUnsupportedOperation("Count(predicate) over a group")
			}
		}
		call, err := t.aggregate(v, t.elem)
		if err != nil {
			return "", nil, err
		}
		return call.Name(), &call, nil
	}
	return "", nil, domain.NewAmbiguousProjection(name)
}

func isKey(m *expr.Member, group string) bool {
	p, ok := m.Of.(*expr.Param)
	return ok && p.Name == group && m.Name == expr.KeyMember
}
