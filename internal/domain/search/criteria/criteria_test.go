package criteria

import (
	"reflect"
	"testing"
)

// kindNamer names every node; it fails to compile if a kind is missing.
type kindNamer struct{}

func (kindNamer) MatchAll(MatchAll) string           { return "match_all" }
func (kindNamer) Constant(Constant) string           { return "constant" }
func (kindNamer) Exists(Exists) string               { return "exists" }
func (kindNamer) Term(Term) string                   { return "term" }
func (kindNamer) Terms(Terms) string                 { return "terms" }
func (kindNamer) Range(Range) string                 { return "range" }
func (kindNamer) DateRange(DateRange) string         { return "date_range" }
func (kindNamer) Match(Match) string                 { return "match" }
func (kindNamer) Prefix(Prefix) string               { return "prefix" }
func (kindNamer) Regexp(Regexp) string               { return "regexp" }
func (kindNamer) QueryString(QueryString) string     { return "query_string" }
func (kindNamer) NestedWrapper(NestedWrapper) string { return "nested" }
func (kindNamer) Not(Not) string                     { return "not" }
func (kindNamer) And(And) string                     { return "and" }
func (kindNamer) Or(Or) string                       { return "or" }
func (kindNamer) Bool(Bool) string                   { return "bool" }

func TestVisit_Dispatch(t *testing.T) {
	tests := []struct {
		in   Criteria
		want string
	}{
		{MatchAll{}, "match_all"},
		{Constant{Value: true}, "constant"},
		{Exists{Field: "a"}, "exists"},
		{Term{Field: "a", Value: 1}, "term"},
		{Terms{Field: "a"}, "terms"},
		{Range{Field: "a"}, "range"},
		{DateRange{Field: "a"}, "date_range"},
		{Match{Field: "a"}, "match"},
		{Prefix{Field: "a"}, "prefix"},
		{Regexp{Field: "a"}, "regexp"},
		{QueryString{Query: "q"}, "query_string"},
		{NestedWrapper{Path: "items"}, "nested"},
		{Not{Inner: MatchAll{}}, "not"},
		{And{}, "and"},
		{Or{}, "or"},
		{Bool{}, "bool"},
	}
	for _, tt := range tests {
		if got := Visit[string](tt.in, kindNamer{}); got != tt.want {
			t.Errorf("Visit(%T) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLeaf_WithFieldPrefix(t *testing.T) {
	tests := []struct {
		name string
		in   Leaf
		want Leaf
	}{
		{"term", Term{Field: "id", Value: 1}, Term{Field: "items.id", Value: 1}},
		{"exists", Exists{Field: "sku"}, Exists{Field: "items.sku"}},
		{"match_all untouched", MatchAll{}, MatchAll{}},
		{"query_string", QueryString{Query: "x", Fields: []string{"a", "b"}}, QueryString{Query: "x", Fields: []string{"items.a", "items.b"}}},
		{"nested wrapper path", NestedWrapper{Path: "parts"}, NestedWrapper{Path: "items.parts"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.WithFieldPrefix("items.")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestLeaf_WithNestedCopies(t *testing.T) {
	orig := Term{Field: "id", Value: 1}
	tagged := orig.WithNested("items")
	if tagged.NestedPath() != "items" {
		t.Errorf("NestedPath() = %q", tagged.NestedPath())
	}
	if orig.NestedPath() != "" {
		t.Error("original must stay untagged")
	}
}

func TestQueryString_PrefixDoesNotAlias(t *testing.T) {
	fields := []string{"a"}
	q := QueryString{Fields: fields}
	_ = q.WithFieldPrefix("p.")
	if fields[0] != "a" {
		t.Errorf("source slice mutated: %v", fields)
	}
}

// leaves calls fn for every leaf in c, depth first.
func leaves(c Criteria, fn func(Leaf)) {
	switch n := c.(type) {
	case Not:
		leaves(n.Inner, fn)
	case And:
		for _, ch := range n.Children {
			leaves(ch, fn)
		}
	case Or:
		for _, ch := range n.Children {
			leaves(ch, fn)
		}
	case Bool:
		for _, list := range [][]Criteria{n.Must, n.Should, n.MustNot} {
			for _, ch := range list {
				leaves(ch, fn)
			}
		}
	case Leaf:
		fn(n)
	}
}

func TestMapLeaves(t *testing.T) {
	in := And{Children: []Criteria{
		Term{Field: "a"},
		Not{Inner: Or{Children: []Criteria{Prefix{Field: "b"}, Exists{Field: "c"}}}},
	}}
	got := MapLeaves(in, func(l Leaf) Leaf { return l.WithFieldPrefix("x.") })

	var fields []string
	leaves(got, func(l Leaf) {
		switch n := l.(type) {
		case Term:
			fields = append(fields, n.Field)
		case Prefix:
			fields = append(fields, n.Field)
		case Exists:
			fields = append(fields, n.Field)
		}
	})
	want := []string{"x.a", "x.b", "x.c"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
}

func TestBounds_Map(t *testing.T) {
	b := NewBounds(GT, 5).With(LTE, 10)
	want := map[string]any{"gt": 5, "lte": 10}
	if !reflect.DeepEqual(b.Map(), want) {
		t.Errorf("Map() = %v, want %v", b.Map(), want)
	}
	if b.LT() != nil || b.GTE() != nil {
		t.Error("unset bounds must be nil")
	}
}

func TestBool_IsEmpty(t *testing.T) {
	if !(Bool{}).IsEmpty() {
		t.Error("zero Bool must be empty")
	}
	if (Bool{MustNot: []Criteria{MatchAll{}}}).IsEmpty() {
		t.Error("Bool with must_not must not be empty")
	}
}
