package expr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidEncoding is returned when a JSON document is not a valid tree.
var ErrInvalidEncoding = errors.New("invalid expression encoding")

// Wire form of a node. Kind selects which of the other fields are read.
type wireNode struct {
	Kind    string          `json:"kind"`
	Index   string          `json:"index,omitempty"`
	Method  string          `json:"method,omitempty"`
	Source  *wireNode       `json:"source,omitempty"`
	Args    []*wireNode     `json:"args,omitempty"`
	Param   string          `json:"param,omitempty"`
	Body    *wireNode       `json:"body,omitempty"`
	Name    string          `json:"name,omitempty"`
	Of      *wireNode       `json:"of,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
	Type    string          `json:"type,omitempty"`
	Op      Op              `json:"op,omitempty"`
	Left    *wireNode       `json:"left,omitempty"`
	Right   *wireNode       `json:"right,omitempty"`
	Operand *wireNode       `json:"operand,omitempty"`
	Members []wireMember    `json:"members,omitempty"`
}

type wireMember struct {
	Name  string    `json:"name"`
	Value *wireNode `json:"value"`
}

const typeDate = "date"

// Decode parses the JSON encoding of a tree.
func Decode(data []byte) (Node, error) {
	var w wireNode
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	return w.toNode()
}

// Encode renders a tree in its JSON encoding.
func Encode(n Node) ([]byte, error) {
	w, err := fromNode(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (w *wireNode) toNode() (Node, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: missing node", ErrInvalidEncoding)
	}
	switch w.Kind {
	case "source":
		return &Source{Index: w.Index}, nil
	case "call":
		if w.Method == "" {
			return nil, fmt.Errorf("%w: call without method", ErrInvalidEncoding)
		}
		src, err := w.Source.toNode()
		if err != nil {
			return nil, fmt.Errorf("call %s source: %w", w.Method, err)
		}
		args := make([]Node, 0, len(w.Args))
		for i, a := range w.Args {
			n, err := a.toNode()
			if err != nil {
				return nil, fmt.Errorf("call %s arg %d: %w", w.Method, i, err)
			}
			args = append(args, n)
		}
		return &Call{Method: w.Method, Source: src, Args: args}, nil
	case "lambda":
		body, err := w.Body.toNode()
		if err != nil {
			return nil, fmt.Errorf("lambda body: %w", err)
		}
		return &Lambda{Param: w.Param, Body: body}, nil
	case "param":
		return &Param{Name: w.Name}, nil
	case "member":
		of, err := w.Of.toNode()
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", w.Name, err)
		}
		return &Member{Name: w.Name, Of: of}, nil
	case "const":
		v, err := decodeValue(w.Value, w.Type)
		if err != nil {
			return nil, err
		}
		return &Constant{Value: v}, nil
	case "binary":
		if !w.Op.IsValid() {
			return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidEncoding, w.Op)
		}
		l, err := w.Left.toNode()
		if err != nil {
			return nil, fmt.Errorf("binary %s left: %w", w.Op, err)
		}
		r, err := w.Right.toNode()
		if err != nil {
			return nil, fmt.Errorf("binary %s right: %w", w.Op, err)
		}
		return &Binary{Op: w.Op, Left: l, Right: r}, nil
	case "not":
		o, err := w.Operand.toNode()
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return &Not{Operand: o}, nil
	case "new":
		members := make([]Assignment, 0, len(w.Members))
		for _, m := range w.Members {
			v, err := m.Value.toNode()
			if err != nil {
				return nil, fmt.Errorf("new member %s: %w", m.Name, err)
			}
			members = append(members, Assignment{Name: m.Name, Value: v})
		}
		return &New{Members: members}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidEncoding, w.Kind)
	}
}

func decodeValue(raw json.RawMessage, typ string) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: constant: %w", ErrInvalidEncoding, err)
	}
	if typ != typeDate {
		return v, nil
	}
	switch t := v.(type) {
	case string:
		return parseDate(t)
	case []any:
		out := make([]time.Time, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: date constant must be a string", ErrInvalidEncoding)
			}
			d, err := parseDate(s)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: date constant must be a string", ErrInvalidEncoding)
	}
}

func parseDate(s string) (time.Time, error) {
	if d, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date constant %q: %w", ErrInvalidEncoding, s, err)
	}
	return d, nil
}

func fromNode(n Node) (*wireNode, error) {
	switch v := n.(type) {
	case *Source:
		return &wireNode{Kind: "source", Index: v.Index}, nil
	case *Call:
		src, err := fromNode(v.Source)
		if err != nil {
			return nil, err
		}
		w := &wireNode{Kind: "call", Method: v.Method, Source: src}
		for _, a := range v.Args {
			aw, err := fromNode(a)
			if err != nil {
				return nil, err
			}
			w.Args = append(w.Args, aw)
		}
		return w, nil
	case *Lambda:
		body, err := fromNode(v.Body)
		if err != nil {
			return nil, err
		}
		return &wireNode{Kind: "lambda", Param: v.Param, Body: body}, nil
	case *Param:
		return &wireNode{Kind: "param", Name: v.Name}, nil
	case *Member:
		of, err := fromNode(v.Of)
		if err != nil {
			return nil, err
		}
		return &wireNode{Kind: "member", Name: v.Name, Of: of}, nil
	case *Constant:
		w := &wireNode{Kind: "const"}
		if IsDateValue(v.Value) {
			w.Type = typeDate
		} else if ts, ok := v.Value.([]time.Time); ok && len(ts) > 0 {
			w.Type = typeDate
		}
		raw, err := json.Marshal(v.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: constant: %w", ErrInvalidEncoding, err)
		}
		w.Value = raw
		return w, nil
	case *Binary:
		l, err := fromNode(v.Left)
		if err != nil {
			return nil, err
		}
		r, err := fromNode(v.Right)
		if err != nil {
			return nil, err
		}
		return &wireNode{Kind: "binary", Op: v.Op, Left: l, Right: r}, nil
	case *Not:
		o, err := fromNode(v.Operand)
		if err != nil {
			return nil, err
		}
		return &wireNode{Kind: "not", Operand: o}, nil
	case *New:
		w := &wireNode{Kind: "new"}
		for _, m := range v.Members {
			mv, err := fromNode(m.Value)
			if err != nil {
				return nil, err
			}
			w.Members = append(w.Members, wireMember{Name: m.Name, Value: mv})
		}
		return w, nil
	default:
		return nil, fmt.Errorf("%w: unknown node %s", ErrInvalidEncoding, KindOf(n))
	}
}
