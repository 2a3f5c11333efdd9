package search

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/kailas-cloud/esquery/internal/db/elastic"
	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
	"github.com/kailas-cloud/esquery/internal/mapping"
	reposearch "github.com/kailas-cloud/esquery/internal/repository/search"
	"github.com/kailas-cloud/esquery/internal/usecase/translate"
)

type item struct {
	ID int
}

type product struct {
	ID    int
	Name  string
	Price float64
	Items []item
}

// mockStore records requests and replays a canned engine response.
type mockStore struct {
	response  string
	count     int64
	err       error
	lastIndex string
	lastBody  []byte
	counted   bool
}

func (m *mockStore) Search(_ context.Context, index string, body []byte) ([]byte, error) {
	m.lastIndex, m.lastBody = index, body
	if m.err != nil {
		return nil, m.err
	}
	if m.response == "" {
		return []byte(`{"hits":{"total":{"value":0},"hits":[]}}`), nil
	}
	return []byte(m.response), nil
}

func (m *mockStore) Count(_ context.Context, index string, body []byte) (int64, error) {
	m.lastIndex, m.lastBody, m.counted = index, body, true
	return m.count, m.err
}

func newTestService(t *testing.T) (*Service, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := reposearch.New(ms, elastic.Options{})
	return New(translate.New(mapping.Default{}), repo), ms
}

// --- AST helpers ---

func src() *expr.Source {
	return &expr.Source{Index: "products", ElemType: reflect.TypeOf(product{})}
}

func x(name string) *expr.Member { return &expr.Member{Name: name, Of: &expr.Param{Name: "x"}} }

func k(v any) *expr.Constant { return &expr.Constant{Value: v} }

func eq(l, r expr.Node) *expr.Binary { return &expr.Binary{Op: expr.OpEq, Left: l, Right: r} }

func and(l, r expr.Node) *expr.Binary { return &expr.Binary{Op: expr.OpAnd, Left: l, Right: r} }

func or(l, r expr.Node) *expr.Binary { return &expr.Binary{Op: expr.OpOr, Left: l, Right: r} }

func call(method string, source expr.Node, args ...expr.Node) *expr.Call {
	return &expr.Call{Method: method, Source: source, Args: args}
}

func lambda(param string, body expr.Node) *expr.Lambda { return &expr.Lambda{Param: param, Body: body} }

func where(source, body expr.Node) *expr.Call {
	return call(expr.MethodWhere, source, lambda("x", body))
}

// --- JSON helpers ---

func normalize(t *testing.T, s string) string {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad json %s: %v", s, err)
	}
	out, _ := json.Marshal(v)
	return string(out)
}

// section returns the normalized JSON of one top-level body key.
func section(t *testing.T, body []byte, key string) string {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("bad body %s: %v", body, err)
	}
	raw, ok := m[key]
	if !ok {
		t.Fatalf("body %s has no %q", body, key)
	}
	return normalize(t, string(raw))
}
