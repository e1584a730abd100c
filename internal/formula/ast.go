// Package formula parses author-written formula text into an executable
// expression tree. A formula is a flat expression language with function
// calls, infix arithmetic, comparisons, and boolean connectives; name
// references are resolved later by the semantic package.
package formula

import (
	"encoding/json"
	"fmt"
)

// Term is one node of a parsed formula. Exactly one of the three variants is
// populated:
//
//   - Leaf: a literal or (after resolution) a tagged identifier
//   - Call: a function or operator application
//   - List: a residual parenthesized group that did not fold to a single node
//
// The JSON form matches the persisted artifact shape: a leaf marshals as a
// string, a call as a single-key object mapping the function name to its
// argument list, and a group as an array.
type Term struct {
	Leaf string
	Call *Call
	List []Term
}

// Call is a function or operator application with ordered arguments.
type Call struct {
	Name string
	Args []Term
}

// IsLeaf reports whether the term is a leaf string.
func (t Term) IsLeaf() bool { return t.Call == nil && t.List == nil }

// MarshalJSON implements json.Marshaler for the persisted artifact shape.
func (t Term) MarshalJSON() ([]byte, error) {
	switch {
	case t.Call != nil:
		return json.Marshal(map[string][]Term{t.Call.Name: t.Call.Args})
	case t.List != nil:
		return json.Marshal(t.List)
	default:
		return json.Marshal(t.Leaf)
	}
}

// UnmarshalJSON implements json.Unmarshaler for the persisted artifact shape.
func (t *Term) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Term{Leaf: s}
		return nil
	}

	var group []Term
	if err := json.Unmarshal(data, &group); err == nil {
		*t = Term{List: group}
		return nil
	}

	var obj map[string][]Term
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("formula term must be a string, array, or single-key object: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("formula call object must have exactly one key, got %d", len(obj))
	}
	for name, args := range obj {
		*t = Term{Call: &Call{Name: name, Args: args}}
	}
	return nil
}

// String renders the term for diagnostics. It is not the source syntax.
func (t Term) String() string {
	switch {
	case t.Call != nil:
		return fmt.Sprintf("%s%v", t.Call.Name, t.Call.Args)
	case t.List != nil:
		return fmt.Sprintf("%v", t.List)
	default:
		return t.Leaf
	}
}

// Walk calls fn for the term and every term below it, depth first.
func (t Term) Walk(fn func(Term)) {
	fn(t)
	switch {
	case t.Call != nil:
		for _, a := range t.Call.Args {
			a.Walk(fn)
		}
	case t.List != nil:
		for _, e := range t.List {
			e.Walk(fn)
		}
	}
}

// WalkAll calls fn for every term in the list, depth first.
func WalkAll(terms []Term, fn func(Term)) {
	for _, t := range terms {
		t.Walk(fn)
	}
}

// MapLeaves returns a copy of terms with every leaf replaced by fn(leaf).
// The tree shape is preserved; fn may return an error to abort the rewrite.
func MapLeaves(terms []Term, fn func(string) (string, error)) ([]Term, error) {
	out := make([]Term, len(terms))
	for i, t := range terms {
		switch {
		case t.Call != nil:
			args, err := MapLeaves(t.Call.Args, fn)
			if err != nil {
				return nil, err
			}
			out[i] = Term{Call: &Call{Name: t.Call.Name, Args: args}}
		case t.List != nil:
			group, err := MapLeaves(t.List, fn)
			if err != nil {
				return nil, err
			}
			out[i] = Term{List: group}
		default:
			s, err := fn(t.Leaf)
			if err != nil {
				return nil, err
			}
			out[i] = Term{Leaf: s}
		}
	}
	return out, nil
}
