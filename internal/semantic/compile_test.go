package semantic

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/trellishq/trellis/internal/formula"
	"github.com/trellishq/trellis/internal/schema"
)

// Fixture IDs. The tree is trunk -> Task, with an attribute and a
// calculation on each node.
const (
	trunkID     = "e0000000-0000-4000-8000-000000000001"
	taskID      = "e0000000-0000-4000-8000-000000000002"
	baseRateID  = "a0000000-0000-4000-8000-000000000001"
	hoursID     = "a0000000-0000-4000-8000-000000000002"
	totalCalcID = "c0000000-0000-4000-8000-000000000001"
	costCalcID  = "c0000000-0000-4000-8000-000000000002"
)

func testTemplate() *schema.Template {
	return &schema.Template{
		ID:     "f0000000-0000-4000-8000-000000000001",
		Name:   "Projects",
		Status: schema.StatusDraft,
		Trunk: schema.EntityDef{
			ID:   trunkID,
			Name: "Trunk",
			Attributes: []schema.AttributeDef{
				{ID: baseRateID, ParentID: trunkID, Name: "Base Rate", DataType: schema.TypeDecimal},
			},
			Calculations: []schema.CalculationDef{
				{ID: totalCalcID, ParentID: trunkID, Name: "Total Hours", DataType: schema.TypeDecimal,
					Formula: "SUM(.task.hours)"},
			},
			Entities: []schema.EntityDef{
				{
					ID:       taskID,
					ParentID: trunkID,
					Name:     "Task",
					Attributes: []schema.AttributeDef{
						{ID: hoursID, ParentID: taskID, Name: "Hours", DataType: schema.TypeDecimal},
					},
					Calculations: []schema.CalculationDef{
						{ID: costCalcID, ParentID: taskID, Name: "Task Cost", DataType: schema.TypeDecimal,
							Formula: ".hours * ..base_rate"},
					},
				},
			},
		},
	}
}

func codeJSON(t *testing.T, terms []formula.Term) string {
	t.Helper()
	raw, err := json.Marshal(terms)
	if err != nil {
		t.Fatalf("marshal formula code: %v", err)
	}
	return string(raw)
}

func TestCompileResolvesAllFormulas(t *testing.T) {
	tpl := testTemplate()

	compiled, errs := Compile(tpl)
	if len(errs) > 0 {
		t.Fatalf("Compile: %v", errs)
	}

	total, _ := schema.FindCalculation(&compiled.Trunk, totalCalcID)
	want := `[{"SUM":["_` + hoursID + `"]}]`
	if got := codeJSON(t, total.FormulaCode); got != want {
		t.Errorf("total hours code = %s, want %s", got, want)
	}

	cost, _ := schema.FindCalculation(&compiled.Trunk, costCalcID)
	want = `[{"*":["` + hoursID + `","` + baseRateID + `"]}]`
	if got := codeJSON(t, cost.FormulaCode); got != want {
		t.Errorf("task cost code = %s, want %s", got, want)
	}

	// The input template must be untouched.
	original, _ := schema.FindCalculation(&tpl.Trunk, totalCalcID)
	if original.FormulaCode != nil {
		t.Error("Compile mutated its input")
	}
}

func TestCompileNestedCalculationReference(t *testing.T) {
	tpl := testTemplate()
	tpl.Trunk.Calculations = append(tpl.Trunk.Calculations, schema.CalculationDef{
		ID: "c0000000-0000-4000-8000-000000000003", ParentID: trunkID,
		Name: "Grand Total", DataType: schema.TypeDecimal,
		Formula: "SUM(.task.task_cost) + .total_hours",
	})

	compiled, errs := Compile(tpl)
	if len(errs) > 0 {
		t.Fatalf("Compile: %v", errs)
	}

	calc, _ := schema.FindCalculation(&compiled.Trunk, "c0000000-0000-4000-8000-000000000003")
	want := `[{"+":[{"SUM":["_c_` + costCalcID + `"]},"c_` + totalCalcID + `"]}]`
	if got := codeJSON(t, calc.FormulaCode); got != want {
		t.Errorf("grand total code = %s, want %s", got, want)
	}
}

func TestCompileReportsParseErrors(t *testing.T) {
	tpl := testTemplate()
	tpl.Trunk.Calculations[0].Formula = "SUM(.task.hours"

	compiled, errs := Compile(tpl)
	if compiled != nil {
		t.Fatal("Compile returned a template despite errors")
	}
	if len(errs) != 1 {
		t.Fatalf("Compile errors = %v, want exactly one", errs)
	}
	var parseErr *formula.ParseError
	if !errors.As(errs[0], &parseErr) {
		t.Errorf("error %v does not wrap *formula.ParseError", errs[0])
	}
}

func TestCompileGathersEveryError(t *testing.T) {
	tpl := testTemplate()
	tpl.Trunk.Calculations[0].Formula = "SUM(.task.hours" // unbalanced
	tpl.Trunk.Entities[0].Calculations[0].Formula = ".no_such_field + 1"

	compiled, errs := Compile(tpl)
	if compiled != nil {
		t.Fatal("Compile returned a template despite errors")
	}
	if len(errs) != 2 {
		t.Fatalf("Compile errors = %v, want two", errs)
	}
}

func TestCompileUnresolvedNameIsScopeError(t *testing.T) {
	tpl := testTemplate()
	tpl.Trunk.Entities[0].Calculations[0].Formula = ".missing * 2"

	_, errs := Compile(tpl)
	if len(errs) != 1 {
		t.Fatalf("Compile errors = %v, want one", errs)
	}
	var scopeErr *ScopeError
	if !errors.As(errs[0], &scopeErr) {
		t.Fatalf("error %v is not a *ScopeError", errs[0])
	}
	if scopeErr.CalculationID != costCalcID {
		t.Errorf("CalculationID = %s, want %s", scopeErr.CalculationID, costCalcID)
	}
}

func TestCompileRejectsCycle(t *testing.T) {
	tpl := testTemplate()
	tpl.Trunk.Calculations = append(tpl.Trunk.Calculations,
		schema.CalculationDef{
			ID: "c0000000-0000-4000-8000-000000000004", ParentID: trunkID,
			Name: "First Leg", DataType: schema.TypeDecimal, Formula: ".second_leg + 1",
		},
		schema.CalculationDef{
			ID: "c0000000-0000-4000-8000-000000000005", ParentID: trunkID,
			Name: "Second Leg", DataType: schema.TypeDecimal, Formula: ".first_leg + 1",
		},
	)

	compiled, errs := Compile(tpl)
	if compiled != nil {
		t.Fatal("Compile returned a template despite a cycle")
	}
	var cycleErr *CircularReferenceError
	found := false
	for _, err := range errs {
		if errors.As(err, &cycleErr) {
			found = true
		}
	}
	if !found {
		t.Errorf("no *CircularReferenceError among %v", errs)
	}
}

func TestCompileAcceptsDiamondDependency(t *testing.T) {
	// Two calculations both referencing a third is a diamond, not a cycle.
	tpl := testTemplate()
	tpl.Trunk.Calculations = append(tpl.Trunk.Calculations,
		schema.CalculationDef{
			ID: "c0000000-0000-4000-8000-000000000006", ParentID: trunkID,
			Name: "Twice Total", DataType: schema.TypeDecimal, Formula: ".total_hours * 2",
		},
		schema.CalculationDef{
			ID: "c0000000-0000-4000-8000-000000000007", ParentID: trunkID,
			Name: "Thrice Total", DataType: schema.TypeDecimal, Formula: ".total_hours * 3",
		},
	)

	if _, errs := Compile(tpl); len(errs) > 0 {
		t.Fatalf("Compile: %v", errs)
	}
}
