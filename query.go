package esquery

import (
	"reflect"

	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
)

// Query is an immutable, typed query over the documents of an index. T
// describes the document: its struct fields (and esquery tags) determine
// the engine field names and value formats.
type Query[T any] struct {
	node expr.Node
}

// From starts a query over index.
func From[T any](index string) Query[T] {
	return Query[T]{node: &expr.Source{Index: index, ElemType: reflect.TypeOf((*T)(nil)).Elem()}}
}

func (q Query[T]) ast() expr.Node { return q.node }

func (q Query[T]) call(method string, args ...expr.Node) Query[T] {
	return Query[T]{node: &expr.Call{Method: method, Source: q.node, Args: args}}
}

func docLambda(body expr.Node) *expr.Lambda {
	return &expr.Lambda{Param: docParam, Body: body}
}

// Where filters documents by cond. Successive calls are combined with and.
func (q Query[T]) Where(cond Expr) Query[T] {
	return q.call(expr.MethodWhere, docLambda(cond.node))
}

// OrderBy sorts ascending by field.
func (q Query[T]) OrderBy(field Expr) Query[T] {
	return q.call(expr.MethodOrderBy, docLambda(field.node))
}

// OrderByDescending sorts descending by field.
func (q Query[T]) OrderByDescending(field Expr) Query[T] {
	return q.call(expr.MethodOrderByDescending, docLambda(field.node))
}

// ThenBy adds an ascending secondary sort key.
func (q Query[T]) ThenBy(field Expr) Query[T] {
	return q.call(expr.MethodThenBy, docLambda(field.node))
}

// ThenByDescending adds a descending secondary sort key.
func (q Query[T]) ThenByDescending(field Expr) Query[T] {
	return q.call(expr.MethodThenByDescending, docLambda(field.node))
}

// Skip offsets the result window.
func (q Query[T]) Skip(n int) Query[T] {
	return q.call(expr.MethodSkip, &expr.Constant{Value: n})
}

// Take limits the result window.
func (q Query[T]) Take(n int) Query[T] {
	return q.call(expr.MethodTake, &expr.Constant{Value: n})
}

// GroupBy groups documents by one or more key fields. With several keys,
// each is addressed in Select by its Go field name through KeyOf.
func (q Query[T]) GroupBy(keys ...Expr) Grouping[T] {
	var key expr.Node
	switch len(keys) {
	case 0:
		key = &expr.Constant{Value: true}
	case 1:
		key = keys[0].node
	default:
		n := &expr.New{}
		for _, k := range keys {
			n.Members = append(n.Members, expr.Assignment{Name: lastName(k.node), Value: k.node})
		}
		key = n
	}
	return Grouping[T]{node: &expr.Call{Method: expr.MethodGroupBy, Source: q.node, Args: []expr.Node{docLambda(key)}}}
}

func lastName(n expr.Node) string {
	if m, ok := n.(*expr.Member); ok {
		return m.Name
	}
	return expr.KindOf(n)
}

// Terminal operations. Each returns a Querier that Translate accepts.

type terminal struct {
	node expr.Node
}

func (t terminal) ast() expr.Node { return t.node }

// CountQuery is q.Count() as a translatable query.
func (q Query[T]) CountQuery() Querier {
	return terminal{node: &expr.Call{Method: expr.MethodCount, Source: q.node}}
}

func (q Query[T]) aggregate(method string, field Expr) Querier {
	return terminal{node: &expr.Call{Method: method, Source: q.node, Args: []expr.Node{docLambda(field.node)}}}
}
