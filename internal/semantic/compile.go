package semantic

import (
	"fmt"

	"github.com/trellishq/trellis/internal/formula"
	"github.com/trellishq/trellis/internal/schema"
)

// Compile parses and resolves every calculation formula in the template and
// validates the result: scope membership, function allow-list, and
// acyclicity of the dependency graph. The whole set is recompiled because
// scope depends on the tree shape, which any edit can perturb.
//
// Compile never mutates its input. On success it returns a clone carrying
// fresh formula code for every calculation; on failure it returns every
// error found and no template, so the caller's prior state stays intact.
func Compile(tpl *schema.Template) (*schema.Template, []error) {
	out := tpl.Clone()

	var errs []error
	schema.Walk(&out.Trunk, func(node, _ *schema.EntityDef) {
		for i := range node.Calculations {
			calc := &node.Calculations[i]
			parsed, err := formula.Parse(calc.Formula)
			if err != nil {
				errs = append(errs, fmt.Errorf("calculation %q (%s): %w", calc.Name, calc.ID, err))
				continue
			}
			resolved, err := ResolveNames(parsed, node, out, calc)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			calc.FormulaCode = resolved
		}
	})
	if len(errs) > 0 {
		return nil, errs
	}

	errs = append(errs, CheckScope(out)...)
	errs = append(errs, CheckFunctions(out)...)
	errs = append(errs, CheckCycles(out)...)
	if len(errs) > 0 {
		return nil, errs
	}

	return out, nil
}
