package esquery

import (
	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
)

// Grouping is a grouped query awaiting its projection.
type Grouping[T any] struct {
	node expr.Node
}

func (g Grouping[T]) ast() expr.Node { return g.node }

// Column is one output column of a grouped projection.
type Column struct {
	name  string
	value expr.Node
}

// As names an aggregate or key column.
func As(name string, v Aggregate) Column {
	return Column{name: name, value: v.node}
}

// Aggregate is a group key or an aggregate over the group.
type Aggregate struct {
	node expr.Node
}

var groupRef = &expr.Param{Name: groupParam}

// Key is the group key of a single-key grouping.
func Key() Aggregate {
	return Aggregate{node: &expr.Member{Name: expr.KeyMember, Of: groupRef}}
}

// KeyOf is one member of a composite group key.
func KeyOf(name string) Aggregate {
	return Aggregate{node: &expr.Member{Name: name, Of: &expr.Member{Name: expr.KeyMember, Of: groupRef}}}
}

func groupCall(method string, field *Expr) Aggregate {
	c := &expr.Call{Method: method, Source: groupRef}
	if field != nil {
		c.Args = []expr.Node{docLambda(field.node)}
	}
	return Aggregate{node: c}
}

// CountAll is the number of documents in the group.
func CountAll() Aggregate { return groupCall(expr.MethodCount, nil) }

// CountOf counts the values of field in the group.
func CountOf(field Expr) Aggregate { return groupCall(expr.MethodCount, &field) }

// CountDistinctOf counts the distinct values of field in the group.
func CountDistinctOf(field Expr) Aggregate { return groupCall(expr.MethodCountDistinct, &field) }

// SumOf sums field over the group.
func SumOf(field Expr) Aggregate { return groupCall(expr.MethodSum, &field) }

// MinOf is the minimum of field over the group.
func MinOf(field Expr) Aggregate { return groupCall(expr.MethodMin, &field) }

// MaxOf is the maximum of field over the group.
func MaxOf(field Expr) Aggregate { return groupCall(expr.MethodMax, &field) }

// AverageOf is the mean of field over the group.
func AverageOf(field Expr) Aggregate { return groupCall(expr.MethodAverage, &field) }

// Select projects each group into the named columns.
func (g Grouping[T]) Select(cols ...Column) Grouping[T] {
	n := &expr.New{}
	for _, c := range cols {
		n.Members = append(n.Members, expr.Assignment{Name: c.name, Value: c.value})
	}
	return Grouping[T]{node: &expr.Call{
		Method: expr.MethodSelect,
		Source: g.node,
		Args:   []expr.Node{&expr.Lambda{Param: groupParam, Body: n}},
	}}
}

// Take limits the number of hits returned alongside the groups.
func (g Grouping[T]) Take(n int) Grouping[T] {
	return Grouping[T]{node: &expr.Call{Method: expr.MethodTake, Source: g.node, Args: []expr.Node{&expr.Constant{Value: n}}}}
}
