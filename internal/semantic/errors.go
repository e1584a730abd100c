// Package semantic resolves schema-relative name references in parsed
// formulas into tagged absolute identifiers and validates whole templates:
// every resolved reference must lie inside its calculation's scope, every
// call key must be a supported function, and the calculation dependency
// graph must be acyclic.
package semantic

import "fmt"

// ScopeError reports a reference that resolves outside the uncle, sibling,
// and nephew scope of a calculation, or to a name that does not exist.
type ScopeError struct {
	CalculationID string
	Calculation   string // display name, may be empty
	Ref           string // the offending reference as written or resolved
	Reason        string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("calculation %q (%s): reference %q %s",
		e.Calculation, e.CalculationID, e.Ref, e.Reason)
}

// UnsupportedFunctionError reports a call key outside the function allow-list.
type UnsupportedFunctionError struct {
	CalculationID string
	Function      string
}

func (e *UnsupportedFunctionError) Error() string {
	return fmt.Sprintf("calculation %s: unsupported function %q", e.CalculationID, e.Function)
}

// CircularReferenceError reports a cycle in the template-wide calculation
// dependency graph. CalculationID names one calculation on the cycle.
type CircularReferenceError struct {
	CalculationID string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference involving calculation %s", e.CalculationID)
}

// NameError reports an element name that breaks the naming rules: bad
// format or a duplicate among siblings.
type NameError struct {
	ElementID string
	Name      string
	Reason    string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("element %q (%s): %s", e.Name, e.ElementID, e.Reason)
}
