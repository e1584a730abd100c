package eval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"github.com/trellishq/trellis/internal/data"
	"github.com/trellishq/trellis/internal/formula"
	"github.com/trellishq/trellis/internal/schema"
)

// DefaultMaxDepth bounds nested calculation references. Compiled templates
// are acyclic, so any evaluation this deep is runaway data, not a formula.
const DefaultMaxDepth = 64

// Evaluator executes compiled calculations of one template against a store
// of entity instances.
type Evaluator struct {
	Template *schema.Template
	Store    data.Store
	Rand     *rand.Rand   // tie-breaking source for LOOKUP; seeded for tests
	Logger   *slog.Logger // nil disables logging
	MaxDepth int          // 0 means DefaultMaxDepth
}

// New returns an evaluator with default depth limit and logger.
func New(tpl *schema.Template, store data.Store) *Evaluator {
	return &Evaluator{
		Template: tpl,
		Store:    store,
		Logger:   slog.Default(),
		MaxDepth: DefaultMaxDepth,
	}
}

func (ev *Evaluator) maxDepth() int {
	if ev.MaxDepth > 0 {
		return ev.MaxDepth
	}
	return DefaultMaxDepth
}

func (ev *Evaluator) logger() *slog.Logger {
	if ev.Logger != nil {
		return ev.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Evaluate runs the calculation with the given definition ID against the
// entity instance with the given ID.
func (ev *Evaluator) Evaluate(ctx context.Context, entityID, calcID string) (any, error) {
	calc, _ := schema.FindCalculation(&ev.Template.Trunk, calcID)
	if calc == nil {
		return nil, &EvalError{CalculationID: calcID, Reason: "calculation not found in template"}
	}

	entity, err := ev.Store.Entity(ctx, entityID)
	if err != nil {
		return nil, &EvalError{CalculationID: calcID, Reason: "fetching entity", Err: err}
	}
	parent, err := ev.parentOf(ctx, entity)
	if err != nil {
		return nil, &EvalError{CalculationID: calcID, Reason: "fetching parent entity", Err: err}
	}

	return ev.evaluate(ctx, calc, entity, parent, 0)
}

// EvaluateAll runs every calculation defined on the entity's definition node
// and returns the results keyed by calculation definition ID.
func (ev *Evaluator) EvaluateAll(ctx context.Context, entityID string) (map[string]any, error) {
	entity, err := ev.Store.Entity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("fetching entity: %w", err)
	}
	def, _ := schema.FindEntity(&ev.Template.Trunk, entity.DefinitionID)
	if def == nil {
		return nil, fmt.Errorf("entity %s: definition %s not found in template", entityID, entity.DefinitionID)
	}
	parent, err := ev.parentOf(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("fetching parent entity: %w", err)
	}

	results := make(map[string]any, len(def.Calculations))
	for i := range def.Calculations {
		calc := &def.Calculations[i]
		v, err := ev.evaluate(ctx, calc, entity, parent, 0)
		if err != nil {
			return nil, err
		}
		results[calc.ID] = v
	}
	return results, nil
}

// parentOf fetches the entity's parent instance. A missing parent is only an
// error for non-root entities with a dangling reference; the trunk instance
// legitimately has none.
func (ev *Evaluator) parentOf(ctx context.Context, entity *data.Entity) (*data.Entity, error) {
	if entity.ParentID == "" {
		return nil, nil
	}
	parent, err := ev.Store.Entity(ctx, entity.ParentID)
	if errors.Is(err, data.ErrNotFound) {
		return nil, nil
	}
	return parent, err
}

// evaluate runs one calculation on one instance. depth counts nested
// calculation hops.
func (ev *Evaluator) evaluate(ctx context.Context, calc *schema.CalculationDef, entity, parent *data.Entity, depth int) (any, error) {
	if depth > ev.maxDepth() {
		return nil, &RecursionError{CalculationID: calc.ID, Depth: depth}
	}
	if len(calc.FormulaCode) == 0 {
		return nil, &EvalError{CalculationID: calc.ID, Reason: "calculation has no compiled formula code"}
	}

	ev.logger().Debug("evaluating calculation",
		"calculation", calc.ID, "entity", entity.ID, "depth", depth)

	v, err := ev.evalTerm(ctx, calc.FormulaCode[0], entity, parent, depth)
	if err != nil {
		var evalErr *EvalError
		var recErr *RecursionError
		if errors.As(err, &evalErr) || errors.As(err, &recErr) {
			return nil, err
		}
		return nil, &EvalError{CalculationID: calc.ID, Reason: "runtime failure", Err: err}
	}
	return v, nil
}

// evalTerm evaluates one term of the formula code tree.
func (ev *Evaluator) evalTerm(ctx context.Context, t formula.Term, entity, parent *data.Entity, depth int) (any, error) {
	switch {
	case t.IsLeaf():
		vals, err := ev.gather(ctx, []formula.Term{t}, entity, parent, depth)
		if err != nil {
			return nil, err
		}
		if len(vals) == 0 {
			return nil, nil
		}
		return vals[0], nil

	case t.Call != nil:
		if t.Call.Name == formula.FnLookup {
			return ev.lookup(ctx, t.Call, entity, parent, depth)
		}
		args, err := ev.gather(ctx, t.Call.Args, entity, parent, depth)
		if err != nil {
			return nil, err
		}
		return apply(t.Call.Name, args)

	default:
		if len(t.List) == 0 {
			return nil, fmt.Errorf("empty group in formula code")
		}
		return ev.evalTerm(ctx, t.List[0], entity, parent, depth)
	}
}

// gather resolves an argument list to runtime values. Collection references
// splice: one "_" reference contributes one value per live child that
// carries the attribute, and a child without it is skipped rather than
// contributing null.
func (ev *Evaluator) gather(ctx context.Context, terms []formula.Term, entity, parent *data.Entity, depth int) ([]any, error) {
	var values []any
	for _, t := range terms {
		switch {
		case t.IsLeaf():
			ref, ok := formula.ParseRef(t.Leaf)
			if !ok {
				values = append(values, t.Leaf)
				continue
			}
			fetched, err := ev.fetch(ctx, ref, entity, parent, depth)
			if err != nil {
				return nil, err
			}
			values = append(values, fetched...)

		case t.Call != nil:
			v, err := ev.evalTerm(ctx, t, entity, parent, depth)
			if err != nil {
				return nil, err
			}
			values = append(values, v)

		default:
			return nil, fmt.Errorf("group inside an argument list")
		}
	}
	return values, nil
}

// fetch resolves one tagged reference to zero or more values.
func (ev *Evaluator) fetch(ctx context.Context, ref formula.Ref, entity, parent *data.Entity, depth int) ([]any, error) {
	switch ref.Kind {
	case formula.RefSingle:
		var values []any
		if parent != nil {
			if v, ok := parent.Value(ref.ID); ok {
				values = append(values, v)
			}
		}
		if v, ok := entity.Value(ref.ID); ok {
			values = append(values, v)
		}
		return values, nil

	case formula.RefCollection:
		children, err := ev.Store.Children(ctx, entity.ID)
		if err != nil {
			return nil, fmt.Errorf("listing children of %s: %w", entity.ID, err)
		}
		var values []any
		for _, child := range children {
			if v, ok := child.Value(ref.ID); ok {
				values = append(values, v)
			}
		}
		return values, nil

	case formula.RefCalc:
		calc, _ := schema.FindCalculation(&ev.Template.Trunk, ref.ID)
		if calc == nil {
			return nil, fmt.Errorf("referenced calculation %s not found", ref.ID)
		}
		v, err := ev.evaluate(ctx, calc, entity, parent, depth+1)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil

	case formula.RefCalcCollection:
		calc, _ := schema.FindCalculation(&ev.Template.Trunk, ref.ID)
		if calc == nil {
			return nil, fmt.Errorf("referenced calculation %s not found", ref.ID)
		}
		children, err := ev.Store.Children(ctx, entity.ID)
		if err != nil {
			return nil, fmt.Errorf("listing children of %s: %w", entity.ID, err)
		}
		var values []any
		for _, child := range children {
			v, err := ev.evaluate(ctx, calc, child, entity, depth+1)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, nil

	default:
		return nil, fmt.Errorf("unknown reference kind %d", ref.Kind)
	}
}
