package semantic

import (
	"github.com/trellishq/trellis/internal/schema"
)

// depGraph is the template-wide calculation dependency graph: one directed
// edge per (calculation, referenced calculation) pair across all resolved
// formulas. Node order is preserved so traversal is deterministic.
type depGraph struct {
	order []string
	edges map[string][]string
}

// buildDepGraph collects calculation-to-calculation edges from every
// resolved formula in the template.
func buildDepGraph(tpl *schema.Template) *depGraph {
	g := &depGraph{edges: make(map[string][]string)}
	schema.Walk(&tpl.Trunk, func(node, _ *schema.EntityDef) {
		for i := range node.Calculations {
			calc := &node.Calculations[i]
			g.order = append(g.order, calc.ID)
			for _, ref := range referencedIDs(calc.FormulaCode) {
				if ref.IsCalc() {
					g.edges[calc.ID] = append(g.edges[calc.ID], ref.ID)
				}
			}
		}
	})
	return g
}

// CheckCycles verifies that the calculation dependency graph is acyclic.
// It runs a depth-first search with a recursion stack: any edge back into
// the stack is a cycle.
func CheckCycles(tpl *schema.Template) []error {
	g := buildDepGraph(tpl)

	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var visit func(id string) *CircularReferenceError
	visit = func(id string) *CircularReferenceError {
		visited[id] = true
		onStack[id] = true
		for _, dep := range g.edges[id] {
			if !visited[dep] {
				if err := visit(dep); err != nil {
					return err
				}
			} else if onStack[dep] {
				return &CircularReferenceError{CalculationID: dep}
			}
		}
		delete(onStack, id)
		return nil
	}

	for _, id := range g.order {
		if !visited[id] {
			if err := visit(id); err != nil {
				return []error{err}
			}
		}
	}
	return nil
}
