package translate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
	"github.com/kailas-cloud/esquery/internal/domain/search/criteria"
)

// predicate translates a boolean expression into filter-semantics criteria.
func (t *traversal) predicate(n expr.Node, s scope) (criteria.Criteria, error) {
	switch v := n.(type) {
	case *expr.Not:
		s.negate = !s.negate
		return t.predicate(v.Operand, s)
	case *expr.Binary:
		if v.Op == expr.OpAnd || v.Op == expr.OpOr {
			return t.connective(v, s)
		}
		return t.comparison(v, s)
	case *expr.Call:
		return t.method(v, s)
	case *expr.Member:
		field, d, err := t.resolve(v, s)
		if err != nil {
			return nil, err
		}
		if d.Resolved() && !d.IsBool() {
			return nil, domain.NewUnsupportedOperation("non-boolean member " + d.Name)
		}
		return negated(criteria.Term{Field: field, Value: true}, s), nil
	case *expr.Constant:
		b, ok := v.Value.(bool)
		if !ok {
			return nil, domain.NewUnsupportedOperation(fmt.Sprintf("constant %v", v.Value))
		}
		return criteria.Constant{Value: b != s.negate}, nil
	default:
		return nil, domain.NewUnsupportedOperation(expr.KindOf(n))
	}
}

func (t *traversal) connective(b *expr.Binary, s scope) (criteria.Criteria, error) {
	inner := s
	inner.negate = false
	l, err := t.predicate(b.Left, inner)
	if err != nil {
		return nil, err
	}
	r, err := t.predicate(b.Right, inner)
	if err != nil {
		return nil, err
	}
	var c criteria.Criteria
	if b.Op == expr.OpAnd {
		c = and(l, r)
	} else {
		c = or(l, r)
	}
	if s.negate {
		return criteria.Not{Inner: c}, nil
	}
	return c, nil
}

func (t *traversal) comparison(b *expr.Binary, s scope) (criteria.Criteria, error) {
	if !b.Op.IsValid() {
		return nil, domain.NewUnsupportedOperation("operator " + string(b.Op))
	}
	left, right, op := b.Left, b.Right, b.Op
	if _, ok := left.(*expr.Constant); ok {
		left, right, op = right, left, op.Mirror()
	}
	m, ok := left.(*expr.Member)
	if !ok {
		return nil, domain.NewUnsupportedOperation(fmt.Sprintf("%s %s %s", expr.KindOf(b.Left), b.Op, expr.KindOf(b.Right)))
	}
	k, ok := right.(*expr.Constant)
	if !ok {
		return nil, domain.NewUnsupportedOperation(fmt.Sprintf("member %s %s", op, expr.KindOf(right)))
	}
	field, d, err := t.resolve(m, s)
	if err != nil {
		return nil, err
	}

	switch op {
	case expr.OpNe:
		s.negate = !s.negate
		return t.equality(field, d, k.Value, s), nil
	case expr.OpEq:
		return t.equality(field, d, k.Value, s), nil
	}

	var bound criteria.Bound
	switch op {
	case expr.OpLt:
		bound = criteria.LT
	case expr.OpLe:
		bound = criteria.LTE
	case expr.OpGt:
		bound = criteria.GT
	default:
		bound = criteria.GTE
	}
	bounds := criteria.NewBounds(bound, t.mapping.FormatValue(d, k.Value))
	if expr.IsDateValue(k.Value) || d.IsDate() {
		return negated(criteria.DateRange{Field: field, Bounds: bounds}, s), nil
	}
	return negated(criteria.Range{Field: field, Bounds: bounds}, s), nil
}

// equality builds a term-level match. Comparing with nil tests for a
// missing value, so the negation flips.
func (t *traversal) equality(field string, d expr.MemberDescriptor, v any, s scope) criteria.Criteria {
	if v == nil {
		s.negate = !s.negate
		return negated(criteria.Exists{Field: field}, s)
	}
	if expr.IsEnumerable(v) {
		return negated(criteria.Terms{Field: field, Values: t.formatAll(d, v)}, s)
	}
	return negated(criteria.Term{Field: field, Value: t.mapping.FormatValue(d, v)}, s)
}

func (t *traversal) method(c *expr.Call, s scope) (criteria.Criteria, error) {
	switch c.Method {
	case expr.MethodContains:
		return t.contains(c, s)
	case expr.MethodStartsWith, expr.MethodEndsWith, expr.MethodMatchPhrase:
		field, d, err := t.receiver(c, s)
		if err != nil {
			return nil, err
		}
		v, err := constArg(c)
		if err != nil {
			return nil, err
		}
		switch c.Method {
		case expr.MethodStartsWith:
			return negated(criteria.Prefix{Field: field, Value: fmt.Sprint(v)}, s), nil
		case expr.MethodEndsWith:
			return negated(criteria.Regexp{Field: field, Pattern: ".*" + escapeRegexp(fmt.Sprint(v))}, s), nil
		default:
			return negated(criteria.Match{Field: field, Value: t.mapping.FormatValue(d, v), Phrase: true}, s), nil
		}
	case expr.MethodMultiMatch:
		return t.multiMatch(c, s)
	case expr.MethodExists:
		field, _, err := t.receiver(c, s)
		if err != nil {
			return nil, err
		}
		return negated(criteria.Exists{Field: field}, s), nil
	case expr.MethodAny:
		return t.anyNested(c, s)
	default:
		return nil, domain.NewUnsupportedOperation(c.Method)
	}
}

// contains distinguishes substring search on strings from membership tests
// on collections, by the receiver.
func (t *traversal) contains(c *expr.Call, s scope) (criteria.Criteria, error) {
	if k, ok := c.Source.(*expr.Constant); ok {
		if len(c.Args) != 1 {
			return nil, domain.NewUnsupportedOperation(c.Method + " without argument")
		}
		m, ok := c.Args[0].(*expr.Member)
		if !ok || !expr.IsEnumerable(k.Value) {
			return nil, domain.NewUnsupportedOperation(fmt.Sprintf("%s on %s", c.Method, expr.KindOf(c.Args[0])))
		}
		field, d, err := t.resolve(m, s)
		if err != nil {
			return nil, err
		}
		return negated(criteria.Terms{Field: field, Values: t.formatAll(d, k.Value)}, s), nil
	}

	field, d, err := t.receiver(c, s)
	if err != nil {
		return nil, err
	}
	v, err := constArg(c)
	if err != nil {
		return nil, err
	}
	if d.IsCollection() {
		return negated(criteria.Terms{Field: field, Values: []any{t.mapping.FormatValue(d, v)}}, s), nil
	}
	return negated(criteria.Match{Field: field, Value: t.mapping.FormatValue(d, v)}, s), nil
}

// multiMatch takes the query text and a semicolon separated field list.
func (t *traversal) multiMatch(c *expr.Call, s scope) (criteria.Criteria, error) {
	if len(c.Args) != 2 {
		return nil, domain.NewUnsupportedOperation(c.Method + " needs query and fields")
	}
	q, ok1 := c.Args[0].(*expr.Constant)
	f, ok2 := c.Args[1].(*expr.Constant)
	if !ok1 || !ok2 {
		return nil, domain.NewUnsupportedOperation(c.Method + " with non-constant arguments")
	}
	var fields []string
	for _, name := range strings.Split(fmt.Sprint(f.Value), ";") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		fields = append(fields, t.mapping.ResolveField(expr.Describe(s.elem, name)))
	}
	return negated(criteria.QueryString{Query: fmt.Sprint(q.Value), Fields: fields}, s), nil
}

// anyNested tests a nested collection. The inner predicate is resolved
// against the collection's element type, so its fields stay relative.
func (t *traversal) anyNested(c *expr.Call, s scope) (criteria.Criteria, error) {
	field, d, err := t.receiver(c, s)
	if err != nil {
		return nil, err
	}
	if len(c.Args) == 0 {
		return negated(criteria.Exists{Field: field}, s), nil
	}
	lam, err := lambdaArg(c, 0)
	if err != nil {
		return nil, err
	}
	inner, err := t.predicate(lam.Body, scope{param: lam.Param, elem: d.ElemType()})
	if err != nil {
		return nil, err
	}
	return negated(criteria.NestedWrapper{Path: field, Children: []criteria.Criteria{inner}}, s), nil
}

func (t *traversal) receiver(c *expr.Call, s scope) (string, expr.MemberDescriptor, error) {
	m, ok := c.Source.(*expr.Member)
	if !ok {
		return "", expr.MemberDescriptor{}, domain.NewUnsupportedOperation(fmt.Sprintf("%s on %s", c.Method, expr.KindOf(c.Source)))
	}
	return t.resolve(m, s)
}

// isValueMember reports whether n is a member that is not a boolean, i.e. a
// field selector rather than a predicate.
func (t *traversal) isValueMember(n expr.Node, s scope) bool {
	m, ok := n.(*expr.Member)
	if !ok {
		return false
	}
	_, d, err := t.resolve(m, s)
	return err == nil && d.Resolved() && !d.IsBool()
}

func (t *traversal) formatAll(d expr.MemberDescriptor, v any) []any {
	elems := expr.Elements(v)
	out := make([]any, len(elems))
	for i, e := range elems {
		out[i] = t.mapping.FormatValue(d, e)
	}
	return out
}

func constArg(c *expr.Call) (any, error) {
	if len(c.Args) != 1 {
		return nil, domain.NewUnsupportedOperation(c.Method + " without argument")
	}
	k, ok := c.Args[0].(*expr.Constant)
	if !ok {
		return nil, domain.NewUnsupportedOperation(fmt.Sprintf("%s(%s)", c.Method, expr.KindOf(c.Args[0])))
	}
	return k.Value, nil
}

func negated(c criteria.Criteria, s scope) criteria.Criteria {
	if s.negate {
		return criteria.Not{Inner: c}
	}
	return c
}

// and joins children, splicing nested And nodes.
func and(children ...criteria.Criteria) criteria.Criteria {
	out := make([]criteria.Criteria, 0, len(children))
	for _, c := range children {
		if a, ok := c.(criteria.And); ok {
			out = append(out, a.Children...)
			continue
		}
		out = append(out, c)
	}
	return criteria.And{Children: out}
}

// or joins children, splicing nested Or nodes.
func or(children ...criteria.Criteria) criteria.Criteria {
	out := make([]criteria.Criteria, 0, len(children))
	for _, c := range children {
		if o, ok := c.(criteria.Or); ok {
			out = append(out, o.Children...)
			continue
		}
		out = append(out, c)
	}
	return criteria.Or{Children: out}
}

// Characters with special meaning in the engine's regular expression syntax.
const regexpReserved = `.?+*|{}[]()"\#@&<>~`

func escapeRegexp(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(regexpReserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}
