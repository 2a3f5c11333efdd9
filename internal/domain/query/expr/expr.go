// Package expr defines the query expression tree accepted by the translator.
//
// The vocabulary is closed: a tree is built from Source, Call, Lambda, Param,
// Member, Constant, Binary, Not and New nodes only. Sequence operators
// (Where, OrderBy, Skip, ...) are Calls whose Source is the inner sequence, so
// the outermost call in a chain is the root of the tree.
package expr

import "reflect"

// Node is one node of a query expression tree.
type Node interface {
	node()
}

// Method names recognized by the translator.
const (
	MethodWhere             = "Where"
	MethodAny               = "Any"
	MethodSelect            = "Select"
	MethodGroupBy           = "GroupBy"
	MethodOrderBy           = "OrderBy"
	MethodOrderByDescending = "OrderByDescending"
	MethodThenBy            = "ThenBy"
	MethodThenByDescending  = "ThenByDescending"
	MethodSkip              = "Skip"
	MethodTake              = "Take"
	MethodCount             = "Count"
	MethodCountDistinct     = "CountDistinct"
	MethodSum               = "Sum"
	MethodMin               = "Min"
	MethodMax               = "Max"
	MethodAverage           = "Average"
	MethodContains          = "Contains"
	MethodStartsWith        = "StartsWith"
	MethodEndsWith          = "EndsWith"
	MethodMatchPhrase       = "MatchPhrase"
	MethodMultiMatch        = "MultiMatch"
	MethodExists            = "Exists"
)

// KeyMember is the member name that addresses the grouping key of a group.
const KeyMember = "Key"

// Op is a binary operator.
type Op string

// Binary operators.
const (
	OpEq  Op = "=="
	OpNe  Op = "!="
	OpLt  Op = "<"
	OpLe  Op = "<="
	OpGt  Op = ">"
	OpGe  Op = ">="
	OpAnd Op = "&&"
	OpOr  Op = "||"
)

// IsValid reports whether op is a known operator.
func (op Op) IsValid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpAnd, OpOr:
		return true
	}
	return false
}

// Mirror returns the operator obtained by swapping the operands.
func (op Op) Mirror() Op {
	switch op {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	default:
		return op
	}
}

// Source is the root sequence of a query: all documents of an index.
// ElemType is nil when the document type is not known (e.g. JSON input).
type Source struct {
	Index    string
	ElemType reflect.Type
}

// Call is a method call. For sequence operators Source is the inner sequence;
// for member methods (Contains, StartsWith, ...) it is the receiver.
type Call struct {
	Method string
	Source Node
	Args   []Node
}

// Lambda is a one-parameter function literal.
type Lambda struct {
	Param string
	Body  Node
}

// Param references a lambda parameter.
type Param struct {
	Name string
}

// Member is a field access on Of.
type Member struct {
	Name string
	Of   Node
}

// Constant is a literal value.
type Constant struct {
	Value any
}

// Binary is a comparison or boolean connective.
type Binary struct {
	Op    Op
	Left  Node
	Right Node
}

// Not is boolean negation.
type Not struct {
	Operand Node
}

// New constructs an anonymous record; used by projections and composite keys.
type New struct {
	Members []Assignment
}

// Assignment is one named member of a New node.
type Assignment struct {
	Name  string
	Value Node
}

func (*Source) node()   {}
func (*Call) node()     {}
func (*Lambda) node()   {}
func (*Param) node()    {}
func (*Member) node()   {}
func (*Constant) node() {}
func (*Binary) node()   {}
func (*Not) node()      {}
func (*New) node()      {}

// Root follows the Source chain of sequence calls down to the query root.
// Returns nil if the chain does not end in a Source.
func Root(n Node) *Source {
	for {
		switch v := n.(type) {
		case *Source:
			return v
		case *Call:
			n = v.Source
		default:
			return nil
		}
	}
}

// KindOf names the node kind; used in error messages.
func KindOf(n Node) string {
	switch n.(type) {
	case *Source:
		return "source"
	case *Call:
		return "call"
	case *Lambda:
		return "lambda"
	case *Param:
		return "param"
	case *Member:
		return "member"
	case *Constant:
		return "const"
	case *Binary:
		return "binary"
	case *Not:
		return "not"
	case *New:
		return "new"
	case nil:
		return "nil"
	default:
		return "unknown"
	}
}
