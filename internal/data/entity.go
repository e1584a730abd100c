// Package data holds runtime entity instances: the concrete records created
// from a template's entity definitions, carrying attribute values that
// formula evaluation reads.
package data

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when no entity has the requested ID.
var ErrNotFound = errors.New("entity not found")

// AttributeValue is one stored value, keyed by the attribute definition it
// instantiates.
type AttributeValue struct {
	AttributeID string `json:"attribute_id" yaml:"attribute_id"`
	Value       any    `json:"value" yaml:"value"`
}

// Entity is a runtime instance of a template entity definition.
type Entity struct {
	ID           string           `json:"id" yaml:"id"`
	TemplateID   string           `json:"template_id,omitempty" yaml:"template_id,omitempty"`
	DefinitionID string           `json:"definition_id" yaml:"definition_id"`
	ParentID     string           `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Created      *time.Time       `json:"created,omitempty" yaml:"created,omitempty"`
	Deleted      bool             `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Values       []AttributeValue `json:"values" yaml:"values"`
}

// Value returns the stored value for the given attribute definition ID. The
// second result reports whether the entity carries that attribute at all; a
// stored nil is a present value.
func (e *Entity) Value(attributeID string) (any, bool) {
	for _, v := range e.Values {
		if v.AttributeID == attributeID {
			return v.Value, true
		}
	}
	return nil, false
}

// SetValue stores a value for the given attribute definition ID, replacing
// any prior value.
func (e *Entity) SetValue(attributeID string, value any) {
	for i := range e.Values {
		if e.Values[i].AttributeID == attributeID {
			e.Values[i].Value = value
			return
		}
	}
	e.Values = append(e.Values, AttributeValue{AttributeID: attributeID, Value: value})
}

// Store is the read surface formula evaluation needs: single-entity fetch
// and live-children enumeration.
type Store interface {
	// Entity returns the entity with the given instance ID, or ErrNotFound.
	Entity(ctx context.Context, id string) (*Entity, error)

	// Children returns the live (non-deleted) children of the given parent
	// instance, in insertion order.
	Children(ctx context.Context, parentID string) ([]*Entity, error)
}
