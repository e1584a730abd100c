package semantic

import (
	"fmt"

	"github.com/trellishq/trellis/internal/formula"
	"github.com/trellishq/trellis/internal/schema"
)

// Scope is the set of element IDs one calculation may reference: the union
// of its uncle, sibling, and nephew attributes and calculations.
type Scope struct {
	IDs     map[string]bool // every referenceable attribute and calculation
	CalcIDs map[string]bool // the subset that are calculations
}

func newScope() *Scope {
	return &Scope{IDs: make(map[string]bool), CalcIDs: make(map[string]bool)}
}

func (s *Scope) addAttribute(id string) { s.IDs[id] = true }

func (s *Scope) addCalculation(id string) {
	s.IDs[id] = true
	s.CalcIDs[id] = true
}

// Contains reports whether the element ID is referenceable.
func (s *Scope) Contains(id string) bool { return s.IDs[id] }

// ScopeOf computes the visible scope of the calculation with the given ID.
// Scope depends on the tree shape, so it must be recomputed whenever the
// template changes:
//
//   - uncle: fields on the owning node's parent
//   - sibling: fields on the owning node, excluding the calculation itself
//   - nephew: fields on any child entity of the owning node
func ScopeOf(tpl *schema.Template, calcID string) (*Scope, error) {
	calc, owner := schema.FindCalculation(&tpl.Trunk, calcID)
	if calc == nil {
		return nil, fmt.Errorf("calculation %s not found in template %s", calcID, tpl.ID)
	}

	scope := newScope()

	if parent, _ := schema.FindEntity(&tpl.Trunk, owner.ParentID); parent != nil {
		for _, a := range parent.Attributes {
			scope.addAttribute(a.ID)
		}
		for _, c := range parent.Calculations {
			scope.addCalculation(c.ID)
		}
	}

	for _, a := range owner.Attributes {
		scope.addAttribute(a.ID)
	}
	for _, c := range owner.Calculations {
		if c.ID != calcID {
			scope.addCalculation(c.ID)
		}
	}

	for _, sibling := range owner.Entities {
		for _, a := range sibling.Attributes {
			scope.addAttribute(a.ID)
		}
		for _, c := range sibling.Calculations {
			scope.addCalculation(c.ID)
		}
	}

	return scope, nil
}

// referencedIDs extracts every tagged reference from resolved formula code,
// in tree order.
func referencedIDs(code []formula.Term) []formula.Ref {
	var refs []formula.Ref
	formula.WalkAll(code, func(t formula.Term) {
		if !t.IsLeaf() {
			return
		}
		if ref, ok := formula.ParseRef(t.Leaf); ok {
			refs = append(refs, ref)
		}
	})
	return refs
}

// CheckScope verifies that every resolved reference of every calculation in
// the template lies within that calculation's computed scope.
func CheckScope(tpl *schema.Template) []error {
	var errs []error
	schema.Walk(&tpl.Trunk, func(node, _ *schema.EntityDef) {
		for i := range node.Calculations {
			calc := &node.Calculations[i]
			scope, err := ScopeOf(tpl, calc.ID)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, ref := range referencedIDs(calc.FormulaCode) {
				if !scope.Contains(ref.ID) {
					errs = append(errs, &ScopeError{
						CalculationID: calc.ID, Calculation: calc.Name, Ref: ref.String(),
						Reason: "is outside the calculation's uncle, sibling, and nephew scope",
					})
				}
			}
		}
	})
	return errs
}

// CheckFunctions verifies that every call key in every resolved formula is
// a member of the fixed function allow-list.
func CheckFunctions(tpl *schema.Template) []error {
	var errs []error
	schema.Walk(&tpl.Trunk, func(node, _ *schema.EntityDef) {
		for i := range node.Calculations {
			calc := &node.Calculations[i]
			formula.WalkAll(calc.FormulaCode, func(t formula.Term) {
				if t.Call != nil && !formula.IsAllowed(t.Call.Name) {
					errs = append(errs, &UnsupportedFunctionError{
						CalculationID: calc.ID,
						Function:      t.Call.Name,
					})
				}
			})
		}
	})
	return errs
}

// CheckNames verifies the element naming rules across the tree: format and
// uniqueness among siblings (attributes, calculations, and child entities
// share one namespace under each parent).
func CheckNames(tpl *schema.Template) []error {
	var errs []error
	schema.Walk(&tpl.Trunk, func(node, parent *schema.EntityDef) {
		if parent != nil && !schema.NameFormatOK(node.Name) {
			errs = append(errs, &NameError{ElementID: node.ID, Name: node.Name, Reason: "name breaks the format rule"})
		}
		seen := make(map[string]string)
		record := func(id, name string) {
			norm := schema.NormalizeName(name)
			if firstID, dup := seen[norm]; dup {
				errs = append(errs, &NameError{
					ElementID: id, Name: name,
					Reason: fmt.Sprintf("duplicate name among siblings (first used by %s)", firstID),
				})
				return
			}
			seen[norm] = id
		}
		for _, a := range node.Attributes {
			if !schema.NameFormatOK(a.Name) {
				errs = append(errs, &NameError{ElementID: a.ID, Name: a.Name, Reason: "name breaks the format rule"})
			}
			record(a.ID, a.Name)
		}
		for _, c := range node.Calculations {
			if !schema.NameFormatOK(c.Name) {
				errs = append(errs, &NameError{ElementID: c.ID, Name: c.Name, Reason: "name breaks the format rule"})
			}
			record(c.ID, c.Name)
		}
		for _, e := range node.Entities {
			record(e.ID, e.Name)
		}
	})
	return errs
}
