// Package schema defines the template model: a hierarchical definition of
// entity types, their stored attributes, and their computed calculations.
// It also validates template documents against the embedded JSON Schema.
package schema

import (
	"time"

	"github.com/trellishq/trellis/internal/formula"
)

// Template status values. Only one template is published at a time;
// published and deprecated templates are immutable.
const (
	StatusDraft      = "Draft"
	StatusPublished  = "Published"
	StatusDeprecated = "Deprecated"
)

// Attribute and calculation data-type tags.
const (
	TypeShortText   = "short_text"
	TypeLongText    = "long_text"
	TypeRichText    = "rich_text"
	TypeWholeNumber = "whole_number"
	TypeInteger     = "integer"
	TypeDecimal     = "decimal"
	TypePercentage  = "percentage"
	TypeBoolean     = "boolean"
	TypeCategorical = "categorical"
	TypeDateTime    = "datetime"
	TypeTime        = "time"
	TypeTimeSpan    = "time_span"
	TypeRole        = "role"
	TypeGroup       = "group"
	TypeUser        = "user"
)

// DataTypes lists every valid data-type tag.
var DataTypes = []string{
	TypeShortText, TypeLongText, TypeRichText,
	TypeWholeNumber, TypeInteger, TypeDecimal, TypePercentage,
	TypeBoolean, TypeCategorical,
	TypeDateTime, TypeTime, TypeTimeSpan,
	TypeRole, TypeGroup, TypeUser,
}

// IsTextType reports whether the tag is a plain text type (edit-distance
// ranked in nearest-match lookups).
func IsTextType(dataType string) bool {
	return dataType == TypeShortText || dataType == TypeLongText
}

// IsNumericType reports whether the tag is ranked by absolute difference in
// nearest-match lookups: numbers, datetimes, and times.
func IsNumericType(dataType string) bool {
	switch dataType {
	case TypeWholeNumber, TypeInteger, TypeDecimal, TypePercentage, TypeDateTime, TypeTime:
		return true
	}
	return false
}

// IsExactMatchType reports whether the tag requires exact matching in
// nearest-match lookups.
func IsExactMatchType(dataType string) bool {
	return dataType == TypeBoolean || dataType == TypeCategorical
}

// Template is the authored schema: a named, versioned tree of entity
// definitions rooted at a single trunk.
type Template struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	SourceID      string     `json:"source_id,omitempty"`
	Trunk         EntityDef  `json:"trunk"`
}

// EntityDef is one node of the template tree: ordered attribute
// definitions, ordered calculation definitions, and ordered child entity
// definitions.
type EntityDef struct {
	ID           string           `json:"id"`
	ParentID     string           `json:"parent_id,omitempty"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Attributes   []AttributeDef   `json:"attributes"`
	Calculations []CalculationDef `json:"calculations"`
	Entities     []EntityDef      `json:"entities"`
}

// AttributeDef describes one stored value on an entity.
type AttributeDef struct {
	ID           string         `json:"id"`
	ParentID     string         `json:"parent_id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	DataType     string         `json:"data_type"`
	Constraints  map[string]any `json:"data_type_constraints,omitempty"`
	DefaultValue string         `json:"default_value,omitempty"`
}

// CalculationDef describes one computed value. Formula is the author-written
// source text; FormulaCode is the resolved tree derived from it. FormulaCode
// is never edited directly: it is recomputed whenever the source text or the
// template shape changes.
type CalculationDef struct {
	ID          string         `json:"id"`
	ParentID    string         `json:"parent_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	DataType    string         `json:"data_type"`
	Formula     string         `json:"formula"`
	FormulaCode []formula.Term `json:"formula_code,omitempty"`
}

// Editable reports whether the template may be mutated. Published and
// deprecated templates serve as immutable patterns for data entry.
func (t *Template) Editable() bool {
	return t.Status == StatusDraft
}
