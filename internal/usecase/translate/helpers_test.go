package translate

import (
	"reflect"
	"time"

	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
	"github.com/kailas-cloud/esquery/internal/mapping"
)

type part struct {
	ID int
}

type item struct {
	ID    int
	Sku   string
	Parts []part
}

type product struct {
	ID      int
	Name    string
	Brand   string `esquery:"maker,keyword"`
	Price   float64
	Active  bool
	Tags    []string
	Created time.Time
	Items   []item
}

func newWalker() *Walker { return New(mapping.Default{}) }

func src() *expr.Source {
	return &expr.Source{Index: "products", ElemType: reflect.TypeOf(product{})}
}

func px(name string) *expr.Member { return &expr.Member{Name: name, Of: &expr.Param{Name: "x"}} }

func pi(name string) *expr.Member { return &expr.Member{Name: name, Of: &expr.Param{Name: "i"}} }

func pg(name string) *expr.Member { return &expr.Member{Name: name, Of: &expr.Param{Name: "g"}} }

func lx(body expr.Node) *expr.Lambda { return &expr.Lambda{Param: "x", Body: body} }

func lg(body expr.Node) *expr.Lambda { return &expr.Lambda{Param: "g", Body: body} }

func li(body expr.Node) *expr.Lambda { return &expr.Lambda{Param: "i", Body: body} }

func k(v any) *expr.Constant { return &expr.Constant{Value: v} }

func call(method string, source expr.Node, args ...expr.Node) *expr.Call {
	return &expr.Call{Method: method, Source: source, Args: args}
}

func bin(op expr.Op, l, r expr.Node) *expr.Binary { return &expr.Binary{Op: op, Left: l, Right: r} }

func not(n expr.Node) *expr.Not { return &expr.Not{Operand: n} }

func where(source expr.Node, body expr.Node) *expr.Call {
	return call(expr.MethodWhere, source, lx(body))
}
