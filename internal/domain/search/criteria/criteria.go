// Package criteria is the closed set of query-tree node kinds shared by the
// translator, the compensator and the serializer.
//
// Walker output uses And, Or and Not and never Bool. Compensated trees use
// Bool and never And, Or or Not. Leaf nodes carry an optional nested path
// that is assigned during compensation only.
package criteria

// Criteria is one node of a query tree. The set of implementations is closed.
type Criteria interface {
	isCriteria()
}

// Leaf is a criteria node that addresses a field and may be nested.
type Leaf interface {
	Criteria
	// NestedPath returns the nested document path, or "" if none.
	NestedPath() string
	// WithNested returns a copy tagged with the nested path.
	WithNested(path string) Leaf
	// WithFieldPrefix returns a copy whose field names are prefixed.
	WithFieldPrefix(prefix string) Leaf
}

// Nesting holds the nested document path of a leaf.
type Nesting struct {
	Nested string
}

// NestedPath returns the nested document path, or "" if none.
func (n Nesting) NestedPath() string { return n.Nested }

// MatchAll matches every document.
type MatchAll struct{ Nesting }

// Constant is a literal true/false predicate.
type Constant struct {
	Nesting
	Value bool
}

// Exists matches documents that have a value for Field.
type Exists struct {
	Nesting
	Field string
}

// Term is an exact value match.
type Term struct {
	Nesting
	Field string
	Value any
}

// Terms matches any of Values.
type Terms struct {
	Nesting
	Field  string
	Values []any
}

// Range is a numeric or lexical range.
type Range struct {
	Nesting
	Field  string
	Bounds Bounds
}

// DateRange is a range over a date field.
type DateRange struct {
	Nesting
	Field  string
	Bounds Bounds
}

// Match is a full-text match; Phrase requests phrase matching.
type Match struct {
	Nesting
	Field  string
	Value  any
	Phrase bool
}

// Prefix matches values starting with Value.
type Prefix struct {
	Nesting
	Field string
	Value string
}

// Regexp matches values against Pattern.
type Regexp struct {
	Nesting
	Field   string
	Pattern string
}

// QueryString is a query-string search over Fields.
type QueryString struct {
	Nesting
	Query  string
	Fields []string
}

// NestedWrapper evaluates Children against the nested documents at Path.
// A valid wrapper has exactly one child.
type NestedWrapper struct {
	Nesting
	Path     string
	Children []Criteria
}

// Not negates Inner.
type Not struct {
	Inner Criteria
}

// And requires all Children.
type And struct {
	Children []Criteria
}

// Or requires any of Children.
type Or struct {
	Children []Criteria
}

// Bool is the engine's boolean compound query.
type Bool struct {
	Must    []Criteria
	Should  []Criteria
	MustNot []Criteria
}

// IsEmpty reports whether the bool query has no clauses.
func (b Bool) IsEmpty() bool {
	return len(b.Must) == 0 && len(b.Should) == 0 && len(b.MustNot) == 0
}

func (MatchAll) isCriteria()      {}
func (Constant) isCriteria()      {}
func (Exists) isCriteria()        {}
func (Term) isCriteria()          {}
func (Terms) isCriteria()         {}
func (Range) isCriteria()         {}
func (DateRange) isCriteria()     {}
func (Match) isCriteria()         {}
func (Prefix) isCriteria()        {}
func (Regexp) isCriteria()        {}
func (QueryString) isCriteria()   {}
func (NestedWrapper) isCriteria() {}
func (Not) isCriteria()           {}
func (And) isCriteria()           {}
func (Or) isCriteria()            {}
func (Bool) isCriteria()          {}

func (c MatchAll) WithNested(p string) Leaf      { c.Nested = p; return c }
func (c Constant) WithNested(p string) Leaf      { c.Nested = p; return c }
func (c Exists) WithNested(p string) Leaf        { c.Nested = p; return c }
func (c Term) WithNested(p string) Leaf          { c.Nested = p; return c }
func (c Terms) WithNested(p string) Leaf         { c.Nested = p; return c }
func (c Range) WithNested(p string) Leaf         { c.Nested = p; return c }
func (c DateRange) WithNested(p string) Leaf     { c.Nested = p; return c }
func (c Match) WithNested(p string) Leaf         { c.Nested = p; return c }
func (c Prefix) WithNested(p string) Leaf        { c.Nested = p; return c }
func (c Regexp) WithNested(p string) Leaf        { c.Nested = p; return c }
func (c QueryString) WithNested(p string) Leaf   { c.Nested = p; return c }
func (c NestedWrapper) WithNested(p string) Leaf { c.Nested = p; return c }

func (c MatchAll) WithFieldPrefix(string) Leaf    { return c }
func (c Constant) WithFieldPrefix(string) Leaf    { return c }
func (c Exists) WithFieldPrefix(p string) Leaf    { c.Field = p + c.Field; return c }
func (c Term) WithFieldPrefix(p string) Leaf      { c.Field = p + c.Field; return c }
func (c Terms) WithFieldPrefix(p string) Leaf     { c.Field = p + c.Field; return c }
func (c Range) WithFieldPrefix(p string) Leaf     { c.Field = p + c.Field; return c }
func (c DateRange) WithFieldPrefix(p string) Leaf { c.Field = p + c.Field; return c }
func (c Match) WithFieldPrefix(p string) Leaf     { c.Field = p + c.Field; return c }
func (c Prefix) WithFieldPrefix(p string) Leaf    { c.Field = p + c.Field; return c }
func (c Regexp) WithFieldPrefix(p string) Leaf    { c.Field = p + c.Field; return c }

func (c QueryString) WithFieldPrefix(p string) Leaf {
	fields := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		fields[i] = p + f
	}
	c.Fields = fields
	return c
}

// WithFieldPrefix prefixes the wrapper's own path; its children are
// prefixed when the wrapper itself is compensated.
func (c NestedWrapper) WithFieldPrefix(p string) Leaf { c.Path = p + c.Path; return c }

// Bound names one side of a range.
type Bound string

// Range bounds.
const (
	LT  Bound = "lt"
	LTE Bound = "lte"
	GT  Bound = "gt"
	GTE Bound = "gte"
)

// Bounds holds the limits of a range. Unset bounds are nil.
type Bounds struct {
	lt  any
	lte any
	gt  any
	gte any
}

// NewBounds creates Bounds with a single limit.
func NewBounds(b Bound, v any) Bounds {
	return Bounds{}.With(b, v)
}

// With returns a copy with bound b set to v. Unknown bounds are ignored.
func (r Bounds) With(b Bound, v any) Bounds {
	switch b {
	case LT:
		r.lt = v
	case LTE:
		r.lte = v
	case GT:
		r.gt = v
	case GTE:
		r.gte = v
	}
	return r
}

// LT returns the upper exclusive bound.
func (r Bounds) LT() any { return r.lt }

// LTE returns the upper inclusive bound.
func (r Bounds) LTE() any { return r.lte }

// GT returns the lower exclusive bound.
func (r Bounds) GT() any { return r.gt }

// GTE returns the lower inclusive bound.
func (r Bounds) GTE() any { return r.gte }

// Map returns the set bounds keyed by their wire names.
func (r Bounds) Map() map[string]any {
	m := make(map[string]any, 4)
	if r.lt != nil {
		m[string(LT)] = r.lt
	}
	if r.lte != nil {
		m[string(LTE)] = r.lte
	}
	if r.gt != nil {
		m[string(GT)] = r.gt
	}
	if r.gte != nil {
		m[string(GTE)] = r.gte
	}
	return m
}
