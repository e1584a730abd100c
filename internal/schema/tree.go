package schema

import (
	"github.com/google/uuid"

	"github.com/trellishq/trellis/internal/formula"
)

// FindEntity searches the tree rooted at root for the entity definition with
// the given ID. It returns the node and its parent; the parent is nil when
// the node is root itself. The second return is nil when no node matches.
func FindEntity(root *EntityDef, id string) (*EntityDef, *EntityDef) {
	if root.ID == id {
		return root, nil
	}
	for i := range root.Entities {
		child := &root.Entities[i]
		if found, parent := FindEntity(child, id); found != nil {
			if parent == nil {
				parent = root
			}
			return found, parent
		}
	}
	return nil, nil
}

// FindAttribute searches the tree for the attribute definition with the
// given ID, returning the definition and the entity that owns it.
func FindAttribute(root *EntityDef, id string) (*AttributeDef, *EntityDef) {
	for i := range root.Attributes {
		if root.Attributes[i].ID == id {
			return &root.Attributes[i], root
		}
	}
	for i := range root.Entities {
		if attr, owner := FindAttribute(&root.Entities[i], id); attr != nil {
			return attr, owner
		}
	}
	return nil, nil
}

// FindCalculation searches the tree for the calculation definition with the
// given ID, returning the definition and the entity that owns it.
func FindCalculation(root *EntityDef, id string) (*CalculationDef, *EntityDef) {
	for i := range root.Calculations {
		if root.Calculations[i].ID == id {
			return &root.Calculations[i], root
		}
	}
	for i := range root.Entities {
		if calc, owner := FindCalculation(&root.Entities[i], id); calc != nil {
			return calc, owner
		}
	}
	return nil, nil
}

// Walk visits every entity definition in the tree, parents before children.
// The parent argument is nil for the root.
func Walk(root *EntityDef, visit func(node, parent *EntityDef)) {
	walk(root, nil, visit)
}

func walk(node, parent *EntityDef, visit func(node, parent *EntityDef)) {
	visit(node, parent)
	for i := range node.Entities {
		walk(&node.Entities[i], node, visit)
	}
}

// DeleteElement removes the attribute, calculation, or child entity with the
// given ID from the tree and reports whether anything was removed. The root
// node itself cannot be removed.
func DeleteElement(root *EntityDef, id string) bool {
	for i := range root.Attributes {
		if root.Attributes[i].ID == id {
			root.Attributes = append(root.Attributes[:i], root.Attributes[i+1:]...)
			return true
		}
	}
	for i := range root.Calculations {
		if root.Calculations[i].ID == id {
			root.Calculations = append(root.Calculations[:i], root.Calculations[i+1:]...)
			return true
		}
	}
	for i := range root.Entities {
		if root.Entities[i].ID == id {
			root.Entities = append(root.Entities[:i], root.Entities[i+1:]...)
			return true
		}
		if DeleteElement(&root.Entities[i], id) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the template. Mutating the copy never
// affects the original, which is what makes atomic commits possible.
func (t *Template) Clone() *Template {
	out := *t
	if t.PublishedDate != nil {
		d := *t.PublishedDate
		out.PublishedDate = &d
	}
	out.Trunk = *cloneEntity(&t.Trunk)
	return &out
}

func cloneEntity(e *EntityDef) *EntityDef {
	out := *e
	out.Attributes = make([]AttributeDef, len(e.Attributes))
	for i, a := range e.Attributes {
		out.Attributes[i] = a
		if a.Constraints != nil {
			c := make(map[string]any, len(a.Constraints))
			for k, v := range a.Constraints {
				c[k] = v
			}
			out.Attributes[i].Constraints = c
		}
	}
	out.Calculations = append([]CalculationDef(nil), e.Calculations...)
	for i := range out.Calculations {
		out.Calculations[i].FormulaCode = append([]formula.Term(nil), e.Calculations[i].FormulaCode...)
	}
	out.Entities = make([]EntityDef, len(e.Entities))
	for i := range e.Entities {
		out.Entities[i] = *cloneEntity(&e.Entities[i])
	}
	return &out
}

// AssignNewIDs gives the subtree fresh UUIDs, used when copying entities or
// whole templates so the copy never aliases the source.
func AssignNewIDs(root *EntityDef) {
	root.ID = uuid.NewString()
	for i := range root.Attributes {
		root.Attributes[i].ID = uuid.NewString()
	}
	for i := range root.Calculations {
		root.Calculations[i].ID = uuid.NewString()
	}
	for i := range root.Entities {
		AssignNewIDs(&root.Entities[i])
	}
}

// UpdateParentIDs rewrites the parent-id field of every attribute,
// calculation, and child entity below root to match the tree shape.
func UpdateParentIDs(root *EntityDef) {
	for i := range root.Attributes {
		root.Attributes[i].ParentID = root.ID
	}
	for i := range root.Calculations {
		root.Calculations[i].ParentID = root.ID
	}
	for i := range root.Entities {
		root.Entities[i].ParentID = root.ID
		UpdateParentIDs(&root.Entities[i])
	}
}
