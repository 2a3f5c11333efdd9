// Package translate turns a query expression tree into a SearchSpec.
package translate

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
	"github.com/kailas-cloud/esquery/internal/domain/search/aggregation"
	"github.com/kailas-cloud/esquery/internal/domain/search/criteria"
	"github.com/kailas-cloud/esquery/internal/domain/search/request"
)

// Mapping resolves member names and formats values for the engine.
type Mapping interface {
	ResolveField(d expr.MemberDescriptor) string
	FormatValue(d expr.MemberDescriptor, v any) any
}

// Walker translates expression trees. It keeps no state between calls and
// is safe for concurrent use.
type Walker struct {
	mapping Mapping
}

// New creates a Walker.
func New(m Mapping) *Walker {
	return &Walker{mapping: m}
}

// Translate walks ast and returns the filter-semantics SearchSpec for index.
// When index is empty the index named by the tree's Source is used.
func (w *Walker) Translate(ast expr.Node, index string) (request.SearchSpec, error) {
	root := expr.Root(ast)
	if root == nil {
		return request.SearchSpec{}, domain.NewUnsupportedOperation(expr.KindOf(ast))
	}
	if index == "" {
		index = root.Index
	}
	t := &traversal{mapping: w.mapping, elem: root.ElemType}
	if err := t.sequence(ast); err != nil {
		return request.SearchSpec{}, err
	}
	return t.build(index)
}

// traversal accumulates the effects of one walk. Sequence calls are visited
// outermost first, so list-valued effects are collected in reverse.
type traversal struct {
	mapping Mapping
	elem    reflect.Type

	wheres []criteria.Criteria
	sorts  []request.SortKey
	from   *int
	size   *int

	grouped    bool
	groups     []aggregation.GroupField
	keyMembers map[string]string
	calls      []aggregation.Call
	projection *expr.Lambda

	countOnly     bool
	aggregateOnly bool
}

func (t *traversal) sequence(n expr.Node) error {
	switch v := n.(type) {
	case *expr.Source:
		return nil
	case *expr.Call:
		// Record the call before its source so the outermost effect wins.
		if err := t.call(v); err != nil {
			return err
		}
		return t.sequence(v.Source)
	default:
		return domain.NewUnsupportedOperation(expr.KindOf(n))
	}
}

func (t *traversal) call(c *expr.Call) error {
	switch c.Method {
	case expr.MethodWhere:
		lam, err := lambdaArg(c, 0)
		if err != nil {
			return err
		}
		p, err := t.predicate(lam.Body, t.rootScope(lam))
		if err != nil {
			return err
		}
		t.wheres = append(t.wheres, p)
	case expr.MethodOrderBy, expr.MethodThenBy, expr.MethodOrderByDescending, expr.MethodThenByDescending:
		return t.orderBy(c)
	case expr.MethodSkip:
		n, err := intArg(c)
		if err != nil {
			return err
		}
		if t.from == nil {
			t.from = &n
		}
	case expr.MethodTake:
		n, err := intArg(c)
		if err != nil {
			return err
		}
		if t.size == nil {
			t.size = &n
		}
	case expr.MethodGroupBy:
		return t.groupBy(c)
	case expr.MethodSelect:
		lam, err := lambdaArg(c, 0)
		if err != nil {
			return err
		}
		if t.projection == nil {
			t.projection = lam
		}
	case expr.MethodCount, expr.MethodAny:
		return t.count(c)
	case expr.MethodSum, expr.MethodMin, expr.MethodMax, expr.MethodAverage, expr.MethodCountDistinct:
		call, err := t.aggregate(c, t.elem)
		if err != nil {
			return err
		}
		t.calls = append(t.calls, call)
		t.aggregateOnly = true
	default:
		return domain.NewUnsupportedOperation(c.Method)
	}
	return nil
}

func (t *traversal) orderBy(c *expr.Call) error {
	lam, err := lambdaArg(c, 0)
	if err != nil {
		return err
	}
	m, ok := lam.Body.(*expr.Member)
	if !ok {
		return domain.NewUnsupportedOperation(fmt.Sprintf("%s(%s)", c.Method, expr.KindOf(lam.Body)))
	}
	field, _, err := t.resolve(m, t.rootScope(lam))
	if err != nil {
		return err
	}
	asc := c.Method == expr.MethodOrderBy || c.Method == expr.MethodThenBy
	t.sorts = append(t.sorts, request.SortKey{Field: field, Ascending: asc})
	return nil
}

// count handles sequence-level Count and Any. Without arguments, or with a
// predicate, only the hit count is requested; Count over a non-boolean
// member is a value_count aggregate.
func (t *traversal) count(c *expr.Call) error {
	if len(c.Args) == 0 {
		t.countOnly = true
		return nil
	}
	lam, err := lambdaArg(c, 0)
	if err != nil {
		return err
	}
	s := t.rootScope(lam)
	if c.Method == expr.MethodCount && t.isValueMember(lam.Body, s) {
		call, err := t.aggregate(c, t.elem)
		if err != nil {
			return err
		}
		t.calls = append(t.calls, call)
		t.aggregateOnly = true
		return nil
	}
	p, err := t.predicate(lam.Body, s)
	if err != nil {
		return err
	}
	t.wheres = append(t.wheres, p)
	t.countOnly = true
	return nil
}

func (t *traversal) build(index string) (request.SearchSpec, error) {
	slices.Reverse(t.wheres)
	slices.Reverse(t.sorts)

	var query criteria.Criteria
	switch len(t.wheres) {
	case 0:
	case 1:
		query = t.wheres[0]
	default:
		query = and(t.wheres...)
	}

	p := request.Params{Sort: t.sorts, From: t.from, Size: t.size, CountOnly: t.countOnly}

	if t.grouped && t.projection != nil {
		cols, calls, err := t.project(t.projection)
		if err != nil {
			return request.SearchSpec{}, err
		}
		p.Projection = cols
		t.calls = append(t.calls, calls...)
	}
	if t.grouped || len(t.calls) > 0 {
		spec := aggregation.New(t.groups, t.calls)
		p.Aggregations = &spec
	}

	switch {
	case t.countOnly:
		from, size := 0, 0
		p.From, p.Size = &from, &size
	case (t.grouped || t.aggregateOnly) && p.Size == nil:
		size := 0
		p.Size = &size
	}
	return request.New(index, query, p)
}

// scope is the lambda a predicate is evaluated in. It is passed by value so
// each branch of the tree sees its own negation state.
type scope struct {
	param  string
	elem   reflect.Type
	negate bool
}

func (t *traversal) rootScope(lam *expr.Lambda) scope {
	return scope{param: lam.Param, elem: t.elem}
}

// resolve maps a member chain rooted at the scope parameter to an engine
// field path and describes its last segment.
func (t *traversal) resolve(m *expr.Member, s scope) (string, expr.MemberDescriptor, error) {
	var chain []string
	var n expr.Node = m
walk:
	for {
		switch v := n.(type) {
		case *expr.Member:
			chain = append(chain, v.Name)
			n = v.Of
		case *expr.Param:
			if v.Name != s.param {
				return "", expr.MemberDescriptor{}, domain.NewUnsupportedOperation("parameter " + v.Name)
			}
			break walk
		default:
			return "", expr.MemberDescriptor{}, domain.NewUnsupportedOperation("member of " + expr.KindOf(n))
		}
	}
	slices.Reverse(chain)

	owner := s.elem
	var d expr.MemberDescriptor
	field := ""
	for i, name := range chain {
		d = expr.Describe(owner, name)
		if i > 0 {
			field += "."
		}
		field += t.mapping.ResolveField(d)
		owner = expr.Indirect(d.Type)
	}
	return field, d, nil
}

func lambdaArg(c *expr.Call, i int) (*expr.Lambda, error) {
	if i >= len(c.Args) {
		return nil, domain.NewUnsupportedOperation(c.Method + " without argument")
	}
	lam, ok := c.Args[i].(*expr.Lambda)
	if !ok {
		return nil, domain.NewUnsupportedOperation(fmt.Sprintf("%s(%s)", c.Method, expr.KindOf(c.Args[i])))
	}
	return lam, nil
}

func intArg(c *expr.Call) (int, error) {
	if len(c.Args) != 1 {
		return 0, domain.NewUnsupportedOperation(c.Method + " without count")
	}
	k, ok := c.Args[0].(*expr.Constant)
	if !ok {
		return 0, domain.NewUnsupportedOperation(fmt.Sprintf("%s(%s)", c.Method, expr.KindOf(c.Args[0])))
	}
	n, ok := toInt(k.Value)
	if !ok || n < 0 {
		return 0, fmt.Errorf("%w: %s(%v)", domain.ErrInvalidQuery, c.Method, k.Value)
	}
	return n, nil
}
