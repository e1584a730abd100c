// Package catalog stores templates and applies every mutation atomically:
// each edit runs on a clone, triggers a full recompile of the template's
// calculations, and replaces the stored template only when the result is
// valid. A failed edit leaves the catalog exactly as it was.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trellishq/trellis/internal/schema"
	"github.com/trellishq/trellis/internal/semantic"
)

// ErrTemplateNotFound is returned when no template has the requested ID.
var ErrTemplateNotFound = errors.New("template not found")

// ErrNotEditable is returned when a mutation targets a published or
// deprecated template.
var ErrNotEditable = errors.New("template is not editable")

// Catalog is an in-memory template store.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*schema.Template
	logger    *slog.Logger
	now       func() time.Time
}

// New returns an empty catalog. A nil logger disables logging.
func New(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Catalog{
		templates: make(map[string]*schema.Template),
		logger:    logger,
		now:       time.Now,
	}
}

// Create adds a new draft template with an empty trunk node and returns a
// copy of it.
func (c *Catalog) Create(name string) (*schema.Template, error) {
	trunkID := uuid.NewString()
	tpl := &schema.Template{
		ID:     uuid.NewString(),
		Name:   name,
		Status: schema.StatusDraft,
		Trunk: schema.EntityDef{
			ID:           trunkID,
			Name:         "Trunk",
			Attributes:   []schema.AttributeDef{},
			Calculations: []schema.CalculationDef{},
			Entities:     []schema.EntityDef{},
		},
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates[tpl.ID] = tpl
	c.logger.Info("template created", "template", tpl.ID, "name", name)
	return tpl.Clone(), nil
}

// Get returns a copy of the template with the given ID.
func (c *Catalog) Get(id string) (*schema.Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tpl, ok := c.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, ErrTemplateNotFound)
	}
	return tpl.Clone(), nil
}

// List returns copies of every stored template, ordered by name.
func (c *Catalog) List() []*schema.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*schema.Template, 0, len(c.templates))
	for _, tpl := range c.templates {
		out = append(out, tpl.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Put stores a template loaded from elsewhere, compiling it first. The
// stored copy carries fresh formula code.
func (c *Catalog) Put(tpl *schema.Template) error {
	if errs := semantic.CheckNames(tpl); len(errs) > 0 {
		return errors.Join(errs...)
	}
	compiled, errs := semantic.Compile(tpl)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates[compiled.ID] = compiled
	c.logger.Info("template stored", "template", compiled.ID, "name", compiled.Name)
	return nil
}

// CopyTemplate duplicates a template as a fresh draft with all-new element
// IDs. Formulas are re-resolved against the new IDs, which works because
// formula source text uses relative names, not IDs.
func (c *Catalog) CopyTemplate(id, newName string) (*schema.Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	src, ok := c.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, ErrTemplateNotFound)
	}

	cp := src.Clone()
	cp.ID = uuid.NewString()
	cp.Name = newName
	cp.Status = schema.StatusDraft
	cp.PublishedDate = nil
	cp.SourceID = src.ID
	schema.AssignNewIDs(&cp.Trunk)
	schema.UpdateParentIDs(&cp.Trunk)

	compiled, errs := semantic.Compile(cp)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	c.templates[compiled.ID] = compiled
	c.logger.Info("template copied", "source", src.ID, "template", compiled.ID)
	return compiled.Clone(), nil
}

// mutate applies fn to a clone of the template, revalidates names, and
// recompiles every calculation. The clone replaces the stored template only
// when all checks pass. Caller-visible results are copies.
func (c *Catalog) mutate(templateID string, fn func(tpl *schema.Template) error) (*schema.Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tpl, ok := c.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", templateID, ErrTemplateNotFound)
	}
	if !tpl.Editable() {
		return nil, fmt.Errorf("template %s (%s): %w", templateID, tpl.Status, ErrNotEditable)
	}

	next := tpl.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if errs := semantic.CheckNames(next); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	compiled, errs := semantic.Compile(next)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	c.templates[templateID] = compiled
	return compiled.Clone(), nil
}

// AddEntity appends a child entity definition under the given parent node
// and returns its new ID.
func (c *Catalog) AddEntity(templateID, parentID, name, description string) (string, error) {
	id := uuid.NewString()
	_, err := c.mutate(templateID, func(tpl *schema.Template) error {
		parent, _ := schema.FindEntity(&tpl.Trunk, parentID)
		if parent == nil {
			return fmt.Errorf("parent entity %s not found", parentID)
		}
		parent.Entities = append(parent.Entities, schema.EntityDef{
			ID:           id,
			ParentID:     parentID,
			Name:         name,
			Description:  description,
			Attributes:   []schema.AttributeDef{},
			Calculations: []schema.CalculationDef{},
			Entities:     []schema.EntityDef{},
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	c.logger.Info("entity added", "template", templateID, "entity", id)
	return id, nil
}

// AddAttribute appends an attribute definition to the given entity node and
// returns its new ID.
func (c *Catalog) AddAttribute(templateID, entityID string, attr schema.AttributeDef) (string, error) {
	attr.ID = uuid.NewString()
	attr.ParentID = entityID
	_, err := c.mutate(templateID, func(tpl *schema.Template) error {
		node, _ := schema.FindEntity(&tpl.Trunk, entityID)
		if node == nil {
			return fmt.Errorf("entity %s not found", entityID)
		}
		node.Attributes = append(node.Attributes, attr)
		return nil
	})
	if err != nil {
		return "", err
	}
	c.logger.Info("attribute added", "template", templateID, "attribute", attr.ID)
	return attr.ID, nil
}

// AddCalculation appends a calculation definition to the given entity node
// and returns its new ID. The formula is parsed, resolved, and checked as
// part of the commit.
func (c *Catalog) AddCalculation(templateID, entityID string, calc schema.CalculationDef) (string, error) {
	calc.ID = uuid.NewString()
	calc.ParentID = entityID
	calc.FormulaCode = nil
	_, err := c.mutate(templateID, func(tpl *schema.Template) error {
		node, _ := schema.FindEntity(&tpl.Trunk, entityID)
		if node == nil {
			return fmt.Errorf("entity %s not found", entityID)
		}
		node.Calculations = append(node.Calculations, calc)
		return nil
	})
	if err != nil {
		return "", err
	}
	c.logger.Info("calculation added", "template", templateID, "calculation", calc.ID)
	return calc.ID, nil
}

// UpdateCalculation rewrites the name, formula, or data type of an existing
// calculation. Empty fields keep their current value.
func (c *Catalog) UpdateCalculation(templateID, calcID, name, formulaText, dataType string) error {
	_, err := c.mutate(templateID, func(tpl *schema.Template) error {
		calc, _ := schema.FindCalculation(&tpl.Trunk, calcID)
		if calc == nil {
			return fmt.Errorf("calculation %s not found", calcID)
		}
		if name != "" {
			calc.Name = name
		}
		if formulaText != "" {
			calc.Formula = formulaText
			calc.FormulaCode = nil
		}
		if dataType != "" {
			calc.DataType = dataType
		}
		return nil
	})
	if err == nil {
		c.logger.Info("calculation updated", "template", templateID, "calculation", calcID)
	}
	return err
}

// UpdateAttribute rewrites the name or data type of an existing attribute.
// Empty fields keep their current value.
func (c *Catalog) UpdateAttribute(templateID, attrID, name, dataType string) error {
	_, err := c.mutate(templateID, func(tpl *schema.Template) error {
		attr, _ := schema.FindAttribute(&tpl.Trunk, attrID)
		if attr == nil {
			return fmt.Errorf("attribute %s not found", attrID)
		}
		if name != "" {
			attr.Name = name
		}
		if dataType != "" {
			attr.DataType = dataType
		}
		return nil
	})
	if err == nil {
		c.logger.Info("attribute updated", "template", templateID, "attribute", attrID)
	}
	return err
}

// DeleteElement removes an attribute, calculation, or entity subtree. The
// commit fails when a surviving formula still references the removed
// element, keeping the template consistent.
func (c *Catalog) DeleteElement(templateID, elementID string) error {
	_, err := c.mutate(templateID, func(tpl *schema.Template) error {
		if tpl.Trunk.ID == elementID {
			return fmt.Errorf("trunk entity cannot be removed")
		}
		if !schema.DeleteElement(&tpl.Trunk, elementID) {
			return fmt.Errorf("element %s not found", elementID)
		}
		return nil
	})
	if err == nil {
		c.logger.Info("element deleted", "template", templateID, "element", elementID)
	}
	return err
}

// Publish promotes a draft template to published and deprecates whichever
// template was published before it.
func (c *Catalog) Publish(templateID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tpl, ok := c.templates[templateID]
	if !ok {
		return fmt.Errorf("template %s: %w", templateID, ErrTemplateNotFound)
	}
	if tpl.Status != schema.StatusDraft {
		return fmt.Errorf("template %s (%s): %w", templateID, tpl.Status, ErrNotEditable)
	}

	compiled, errs := semantic.Compile(tpl)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, other := range c.templates {
		if other.Status == schema.StatusPublished {
			other.Status = schema.StatusDeprecated
			c.logger.Info("template deprecated", "template", other.ID)
		}
	}

	published := c.now()
	compiled.Status = schema.StatusPublished
	compiled.PublishedDate = &published
	c.templates[templateID] = compiled
	c.logger.Info("template published", "template", templateID)
	return nil
}
