package esquery

import (
	"strings"

	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
)

const (
	docParam   = "x"
	elemParam  = "e"
	groupParam = "g"
)

// Expr is a field reference, a literal or a condition. Conditions are
// passed to Where, Any and the counting helpers.
type Expr struct {
	node expr.Node
}

// Field references a document field by its Go struct field name. Dotted
// names address sub-objects: "Address.City".
func Field(name string) Expr {
	return Expr{node: memberPath(docParam, name)}
}

// Elem references a field of a nested collection element inside Any.
func Elem(name string) Expr {
	return Expr{node: memberPath(elemParam, name)}
}

// Value wraps a literal.
func Value(v any) Expr {
	return Expr{node: &expr.Constant{Value: v}}
}

func memberPath(param, name string) expr.Node {
	var n expr.Node = &expr.Param{Name: param}
	for _, part := range strings.Split(name, ".") {
		n = &expr.Member{Name: part, Of: n}
	}
	return n
}

// operand lifts a literal into a constant; Exprs pass through.
func operand(v any) expr.Node {
	if e, ok := v.(Expr); ok {
		return e.node
	}
	return &expr.Constant{Value: v}
}

func (e Expr) binary(op expr.Op, v any) Expr {
	return Expr{node: &expr.Binary{Op: op, Left: e.node, Right: operand(v)}}
}

// Eq matches documents whose field equals v.
func (e Expr) Eq(v any) Expr { return e.binary(expr.OpEq, v) }

// Ne matches documents whose field differs from v.
func (e Expr) Ne(v any) Expr { return e.binary(expr.OpNe, v) }

// Lt is field < v.
func (e Expr) Lt(v any) Expr { return e.binary(expr.OpLt, v) }

// Le is field <= v.
func (e Expr) Le(v any) Expr { return e.binary(expr.OpLe, v) }

// Gt is field > v.
func (e Expr) Gt(v any) Expr { return e.binary(expr.OpGt, v) }

// Ge is field >= v.
func (e Expr) Ge(v any) Expr { return e.binary(expr.OpGe, v) }

// IsNil matches documents without the field.
func (e Expr) IsNil() Expr { return e.binary(expr.OpEq, nil) }

// NotNil matches documents with the field.
func (e Expr) NotNil() Expr { return e.binary(expr.OpNe, nil) }

// In matches documents whose field equals one of values.
func (e Expr) In(values ...any) Expr {
	return Expr{node: &expr.Call{
		Method: expr.MethodContains,
		Source: &expr.Constant{Value: values},
		Args:   []expr.Node{e.node},
	}}
}

func (e Expr) method(name string, args ...any) Expr {
	c := &expr.Call{Method: name, Source: e.node}
	for _, a := range args {
		c.Args = append(c.Args, operand(a))
	}
	return Expr{node: c}
}

// Contains is a full-text match on a string field, or a membership test on
// a collection field.
func (e Expr) Contains(v any) Expr { return e.method(expr.MethodContains, v) }

// StartsWith matches a string prefix.
func (e Expr) StartsWith(prefix string) Expr { return e.method(expr.MethodStartsWith, prefix) }

// EndsWith matches a string suffix.
func (e Expr) EndsWith(suffix string) Expr { return e.method(expr.MethodEndsWith, suffix) }

// MatchPhrase matches the words of phrase in order.
func (e Expr) MatchPhrase(phrase string) Expr { return e.method(expr.MethodMatchPhrase, phrase) }

// Exists matches documents that have a value for the field.
func (e Expr) Exists() Expr { return e.method(expr.MethodExists) }

// Any matches documents with at least one nested element satisfying pred.
// Without pred it matches documents whose collection is not empty. Use
// Elem to address element fields in pred.
func (e Expr) Any(pred ...Expr) Expr {
	c := &expr.Call{Method: expr.MethodAny, Source: e.node}
	if len(pred) > 0 {
		c.Args = []expr.Node{&expr.Lambda{Param: elemParam, Body: And(pred[0], pred[1:]...).node}}
	}
	return Expr{node: c}
}

// And joins conditions with a logical and.
func And(first Expr, rest ...Expr) Expr {
	return fold(expr.OpAnd, first, rest)
}

// Or joins conditions with a logical or.
func Or(first Expr, rest ...Expr) Expr {
	return fold(expr.OpOr, first, rest)
}

func fold(op expr.Op, first Expr, rest []Expr) Expr {
	n := first.node
	for _, r := range rest {
		n = &expr.Binary{Op: op, Left: n, Right: r.node}
	}
	return Expr{node: n}
}

// Not negates a condition.
func Not(c Expr) Expr {
	return Expr{node: &expr.Not{Operand: c.node}}
}

// MultiMatch runs a query string over several fields.
func MultiMatch(query string, fields ...string) Expr {
	return Expr{node: &expr.Call{
		Method: expr.MethodMultiMatch,
		Args: []expr.Node{
			&expr.Constant{Value: query},
			&expr.Constant{Value: strings.Join(fields, ";")},
		},
	}}
}
