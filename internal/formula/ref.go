package formula

import (
	"strings"

	"github.com/google/uuid"
)

// RefKind says how the evaluator must fetch a resolved reference.
type RefKind int

const (
	// RefSingle is one value read from the instance itself or its parent.
	RefSingle RefKind = iota
	// RefCollection fans out over the instance's live children.
	RefCollection
	// RefCalc recursively evaluates another calculation on the same instance.
	RefCalc
	// RefCalcCollection evaluates another calculation once per live child.
	RefCalcCollection
)

// refPrefixes in match order: longer prefixes first so "_c_" is not read as "_".
var refPrefixes = []struct {
	prefix string
	kind   RefKind
}{
	{"_c_", RefCalcCollection},
	{"c_", RefCalc},
	{"_", RefCollection},
	{"", RefSingle},
}

// Ref is a resolved reference token: a definition ID tagged with a fetch
// strategy. It is the only non-literal leaf vocabulary the evaluator accepts.
type Ref struct {
	Kind RefKind
	ID   string
}

// IsCalc reports whether the reference targets a calculation definition.
func (r Ref) IsCalc() bool {
	return r.Kind == RefCalc || r.Kind == RefCalcCollection
}

// String renders the tagged form persisted in formula code.
func (r Ref) String() string {
	for _, p := range refPrefixes {
		if p.kind == r.Kind {
			return p.prefix + r.ID
		}
	}
	return r.ID
}

// ParseRef reads a tagged reference from a leaf string. The ID portion must
// be a UUID; any other leaf is a literal and reports false.
func ParseRef(leaf string) (Ref, bool) {
	for _, p := range refPrefixes {
		rest, ok := strings.CutPrefix(leaf, p.prefix)
		if !ok {
			continue
		}
		if _, err := uuid.Parse(rest); err == nil {
			return Ref{Kind: p.kind, ID: rest}, true
		}
	}
	return Ref{}, false
}
