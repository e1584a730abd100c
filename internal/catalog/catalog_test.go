package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellishq/trellis/internal/schema"
)

// buildTemplate assembles a small draft through the public mutation surface:
// trunk with a rate attribute, a Task child with an hours attribute, and a
// cost calculation tying them together.
func buildTemplate(t *testing.T, c *Catalog) (tplID, taskID, hoursID, costID string) {
	t.Helper()

	tpl, err := c.Create("Projects")
	require.NoError(t, err)
	tplID = tpl.ID

	_, err = c.AddAttribute(tplID, tpl.Trunk.ID, schema.AttributeDef{
		Name: "Base Rate", DataType: schema.TypeDecimal,
	})
	require.NoError(t, err)

	taskID, err = c.AddEntity(tplID, tpl.Trunk.ID, "Task", "")
	require.NoError(t, err)

	hoursID, err = c.AddAttribute(tplID, taskID, schema.AttributeDef{
		Name: "Hours", DataType: schema.TypeDecimal,
	})
	require.NoError(t, err)

	costID, err = c.AddCalculation(tplID, taskID, schema.CalculationDef{
		Name: "Task Cost", DataType: schema.TypeDecimal,
		Formula: ".hours * ..base_rate",
	})
	require.NoError(t, err)
	return tplID, taskID, hoursID, costID
}

func TestMutationsCompileFormulaCode(t *testing.T) {
	c := New(nil)
	tplID, _, hoursID, costID := buildTemplate(t, c)

	tpl, err := c.Get(tplID)
	require.NoError(t, err)

	calc, _ := schema.FindCalculation(&tpl.Trunk, costID)
	require.NotNil(t, calc)
	require.NotEmpty(t, calc.FormulaCode, "stored template must carry compiled code")

	call := calc.FormulaCode[0].Call
	require.NotNil(t, call)
	assert.Equal(t, "*", call.Name)
	assert.Equal(t, hoursID, call.Args[0].Leaf)
}

func TestFailedMutationLeavesTemplateUntouched(t *testing.T) {
	c := New(nil)
	tplID, taskID, _, costID := buildTemplate(t, c)
	before, err := c.Get(tplID)
	require.NoError(t, err)

	// An unparsable formula must not land.
	_, err = c.AddCalculation(tplID, taskID, schema.CalculationDef{
		Name: "Broken", DataType: schema.TypeDecimal, Formula: "SUM(.hours",
	})
	require.Error(t, err)

	// Deleting an attribute a formula still references must not land either.
	task, _ := schema.FindEntity(&before.Trunk, taskID)
	require.NotNil(t, task)
	err = c.DeleteElement(tplID, task.Attributes[0].ID)
	require.Error(t, err)

	after, err := c.Get(tplID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed mutations must leave the stored template unchanged")

	calc, _ := schema.FindCalculation(&after.Trunk, costID)
	require.NotNil(t, calc)
}

func TestDuplicateSiblingNameRejected(t *testing.T) {
	c := New(nil)
	tplID, taskID, _, _ := buildTemplate(t, c)

	// "hours" collides with the existing "Hours" after normalization.
	_, err := c.AddAttribute(tplID, taskID, schema.AttributeDef{
		Name: "hours", DataType: schema.TypeDecimal,
	})
	require.Error(t, err)
}

func TestBadNameFormatRejected(t *testing.T) {
	c := New(nil)
	tplID, taskID, _, _ := buildTemplate(t, c)

	_, err := c.AddAttribute(tplID, taskID, schema.AttributeDef{
		Name: "x", DataType: schema.TypeDecimal,
	})
	require.Error(t, err)
}

func TestUpdateCalculationRecompiles(t *testing.T) {
	c := New(nil)
	tplID, _, hoursID, costID := buildTemplate(t, c)

	require.NoError(t, c.UpdateCalculation(tplID, costID, "", ".hours + 1", ""))

	tpl, err := c.Get(tplID)
	require.NoError(t, err)
	calc, _ := schema.FindCalculation(&tpl.Trunk, costID)
	call := calc.FormulaCode[0].Call
	require.NotNil(t, call)
	assert.Equal(t, "+", call.Name)
	assert.Equal(t, hoursID, call.Args[0].Leaf)

	// A formula referencing a missing name must be rejected and keep the
	// previous version.
	require.Error(t, c.UpdateCalculation(tplID, costID, "", ".ghost + 1", ""))
	tpl, err = c.Get(tplID)
	require.NoError(t, err)
	calc, _ = schema.FindCalculation(&tpl.Trunk, costID)
	assert.Equal(t, ".hours + 1", calc.Formula)
}

func TestDeleteEntityWithDependentsRejected(t *testing.T) {
	c := New(nil)
	tplID, _, _, _ := buildTemplate(t, c)

	tpl, err := c.Get(tplID)
	require.NoError(t, err)

	// Trunk-level calc referencing the Task subtree.
	_, err = c.AddCalculation(tplID, tpl.Trunk.ID, schema.CalculationDef{
		Name: "Total Hours", DataType: schema.TypeDecimal, Formula: "SUM(.task.hours)",
	})
	require.NoError(t, err)

	taskID := tpl.Trunk.Entities[0].ID
	require.Error(t, c.DeleteElement(tplID, taskID),
		"removing an entity referenced by a surviving formula must fail")
}

func TestPublishLifecycle(t *testing.T) {
	c := New(nil)
	firstID, _, _, _ := buildTemplate(t, c)

	require.NoError(t, c.Publish(firstID))
	published, err := c.Get(firstID)
	require.NoError(t, err)
	assert.Equal(t, schema.StatusPublished, published.Status)
	require.NotNil(t, published.PublishedDate)

	// Published templates are immutable.
	_, err = c.AddEntity(firstID, published.Trunk.ID, "Late", "")
	assert.ErrorIs(t, err, ErrNotEditable)

	// Publishing a second template deprecates the first.
	secondID, _, _, _ := buildTemplate(t, c)
	require.NoError(t, c.Publish(secondID))

	first, err := c.Get(firstID)
	require.NoError(t, err)
	assert.Equal(t, schema.StatusDeprecated, first.Status)

	// Republishing a deprecated template is not allowed.
	assert.ErrorIs(t, c.Publish(firstID), ErrNotEditable)
}

func TestCopyTemplate(t *testing.T) {
	c := New(nil)
	srcID, _, _, _ := buildTemplate(t, c)
	src, err := c.Get(srcID)
	require.NoError(t, err)

	cp, err := c.CopyTemplate(srcID, "Projects Copy")
	require.NoError(t, err)
	assert.Equal(t, srcID, cp.SourceID)
	assert.Equal(t, schema.StatusDraft, cp.Status)
	assert.NotEqual(t, src.Trunk.ID, cp.Trunk.ID)

	// The copied cost formula resolves against the copy's own fresh IDs.
	copiedTask := cp.Trunk.Entities[0]
	calc := copiedTask.Calculations[0]
	require.NotEmpty(t, calc.FormulaCode)
	call := calc.FormulaCode[0].Call
	require.NotNil(t, call)
	assert.Equal(t, copiedTask.Attributes[0].ID, call.Args[0].Leaf)
	assert.NotEqual(t, src.Trunk.Entities[0].Attributes[0].ID, call.Args[0].Leaf)
}

func TestListOrdersByName(t *testing.T) {
	c := New(nil)
	_, err := c.Create("Zeta Plan")
	require.NoError(t, err)
	_, err = c.Create("Alpha Plan")
	require.NoError(t, err)

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha Plan", list[0].Name)
	assert.Equal(t, "Zeta Plan", list[1].Name)
}

func TestPutCompilesLoadedTemplate(t *testing.T) {
	c := New(nil)
	tpl := &schema.Template{
		ID: "f0000000-0000-4000-8000-000000000010", Name: "Loaded", Status: schema.StatusDraft,
		Trunk: schema.EntityDef{
			ID: "e0000000-0000-4000-8000-000000000010", Name: "Trunk",
			Attributes: []schema.AttributeDef{
				{ID: "a0000000-0000-4000-8000-000000000010", Name: "Score", DataType: schema.TypeDecimal},
			},
			Calculations: []schema.CalculationDef{
				{ID: "c0000000-0000-4000-8000-000000000010", Name: "Doubled",
					DataType: schema.TypeDecimal, Formula: ".score * 2"},
			},
		},
	}

	require.NoError(t, c.Put(tpl))

	stored, err := c.Get(tpl.ID)
	require.NoError(t, err)
	calc, _ := schema.FindCalculation(&stored.Trunk, "c0000000-0000-4000-8000-000000000010")
	require.NotNil(t, calc)
	assert.NotEmpty(t, calc.FormulaCode)

	tpl.Trunk.Calculations[0].Formula = ".ghost * 2"
	require.Error(t, c.Put(tpl), "Put must reject templates that fail compilation")
}

func TestGetUnknownTemplate(t *testing.T) {
	c := New(nil)
	_, err := c.Get("missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
