package semantic

import (
	"regexp"

	"github.com/trellishq/trellis/internal/formula"
	"github.com/trellishq/trellis/internal/schema"
)

// Relative-name grammar. Uncle is matched before nephew and sibling because
// its leading dots are the most specific.
var (
	unclePattern   = regexp.MustCompile(`^\.\.(\w+)$`)
	nephewPattern  = regexp.MustCompile(`^\.(\w+)\.(\w+)$`)
	siblingPattern = regexp.MustCompile(`^\.(\w+)$`)
)

// ResolveNames rewrites every relative-name leaf of a parsed formula into a
// tagged absolute identifier:
//
//	.name        sibling: a field on the calculation's own entity node
//	..name       uncle:   a field on the owning node's parent
//	.child.name  nephew:  a field on a child entity node named child
//
// The tag tells the evaluator how to fetch: no prefix for a single value,
// "_" for a fan-out over live children, and "c_"/"_c_" for nested
// calculations. Leaves that match no relative-name pattern pass through as
// literals. A relative name that does not resolve is a *ScopeError.
func ResolveNames(terms []formula.Term, owner *schema.EntityDef, tpl *schema.Template, calc *schema.CalculationDef) ([]formula.Term, error) {
	return formula.MapLeaves(terms, func(leaf string) (string, error) {
		if m := unclePattern.FindStringSubmatch(leaf); m != nil {
			parent, _ := schema.FindEntity(&tpl.Trunk, owner.ParentID)
			if parent == nil {
				return "", &ScopeError{
					CalculationID: calc.ID, Calculation: calc.Name, Ref: leaf,
					Reason: "names an uncle but the owning entity has no parent",
				}
			}
			return resolveField(parent, m[1], false, calc, leaf)
		}
		if m := nephewPattern.FindStringSubmatch(leaf); m != nil {
			for i := range owner.Entities {
				child := &owner.Entities[i]
				if schema.NormalizeName(child.Name) != m[1] {
					continue
				}
				return resolveField(child, m[2], true, calc, leaf)
			}
			return "", &ScopeError{
				CalculationID: calc.ID, Calculation: calc.Name, Ref: leaf,
				Reason: "names a child entity that does not exist",
			}
		}
		if m := siblingPattern.FindStringSubmatch(leaf); m != nil {
			return resolveField(owner, m[1], false, calc, leaf)
		}
		return leaf, nil
	})
}

// resolveField finds the attribute or calculation with the given normalized
// name on node and returns its tagged ID. Collection references (nephews)
// carry the fan-out prefix.
func resolveField(node *schema.EntityDef, name string, collection bool, calc *schema.CalculationDef, leaf string) (string, error) {
	for _, a := range node.Attributes {
		if schema.NormalizeName(a.Name) == name {
			ref := formula.Ref{Kind: formula.RefSingle, ID: a.ID}
			if collection {
				ref.Kind = formula.RefCollection
			}
			return ref.String(), nil
		}
	}
	for _, c := range node.Calculations {
		if schema.NormalizeName(c.Name) == name {
			ref := formula.Ref{Kind: formula.RefCalc, ID: c.ID}
			if collection {
				ref.Kind = formula.RefCalcCollection
			}
			return ref.String(), nil
		}
	}
	return "", &ScopeError{
		CalculationID: calc.ID, Calculation: calc.Name, Ref: leaf,
		Reason: "does not resolve to an attribute or calculation",
	}
}
