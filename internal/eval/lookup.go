package eval

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/agext/levenshtein"

	"github.com/trellishq/trellis/internal/data"
	"github.com/trellishq/trellis/internal/formula"
	"github.com/trellishq/trellis/internal/schema"
)

// candidate pairs a child instance with its source attribute value.
type candidate struct {
	entity *data.Entity
	value  any
}

// lookup implements the LOOKUP special form: LOOKUP(sought, source, target).
// The source and target arguments must be child-collection attribute
// references; the sought argument is an ordinary expression. The match
// policy follows the source attribute's data type:
//
//   - text types: smallest edit distance to the sought value, ties broken
//     by ascending source value
//   - numeric and temporal types: smallest absolute difference, ties broken
//     randomly
//   - boolean and categorical: exact match only; no match yields null, and
//     several matches pick one randomly
func (ev *Evaluator) lookup(ctx context.Context, call *formula.Call, entity, parent *data.Entity, depth int) (any, error) {
	if len(call.Args) != 3 {
		return nil, fmt.Errorf("LOOKUP wants 3 arguments, got %d", len(call.Args))
	}

	sought, err := ev.evalTerm(ctx, call.Args[0], entity, parent, depth)
	if err != nil {
		return nil, err
	}

	sourceRef, err := collectionRef(call.Args[1], "source")
	if err != nil {
		return nil, err
	}
	targetRef, err := collectionRef(call.Args[2], "target")
	if err != nil {
		return nil, err
	}

	sourceAttr, _ := schema.FindAttribute(&ev.Template.Trunk, sourceRef.ID)
	if sourceAttr == nil {
		return nil, fmt.Errorf("LOOKUP: source attribute %s not found in template", sourceRef.ID)
	}

	children, err := ev.Store.Children(ctx, entity.ID)
	if err != nil {
		return nil, fmt.Errorf("LOOKUP: listing children of %s: %w", entity.ID, err)
	}
	var candidates []candidate
	for _, child := range children {
		if v, ok := child.Value(sourceRef.ID); ok {
			candidates = append(candidates, candidate{entity: child, value: v})
		}
	}

	var match *data.Entity
	switch {
	case schema.IsTextType(sourceAttr.DataType):
		match, err = ev.matchByDistance(sought, candidates)
	case schema.IsNumericType(sourceAttr.DataType):
		match, err = ev.matchByDifference(sought, candidates, sourceAttr.DataType)
	case schema.IsExactMatchType(sourceAttr.DataType):
		match, err = ev.matchExact(sought, candidates)
	default:
		return nil, fmt.Errorf("LOOKUP: source attribute type %q is not supported", sourceAttr.DataType)
	}
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, nil
	}

	v, _ := match.Value(targetRef.ID)
	return v, nil
}

// collectionRef requires the argument to be a child-collection attribute
// reference leaf.
func collectionRef(t formula.Term, role string) (formula.Ref, error) {
	if !t.IsLeaf() {
		return formula.Ref{}, fmt.Errorf("LOOKUP: %s must be a child attribute reference", role)
	}
	ref, ok := formula.ParseRef(t.Leaf)
	if !ok || ref.Kind != formula.RefCollection {
		return formula.Ref{}, fmt.Errorf("LOOKUP: %s must be a child attribute reference, got %q", role, t.Leaf)
	}
	return ref, nil
}

// matchByDistance picks the candidate with the smallest edit distance from
// the sought text, breaking ties by ascending source value.
func (ev *Evaluator) matchByDistance(sought any, candidates []candidate) (*data.Entity, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	soughtText, err := toString(sought)
	if err != nil {
		return nil, fmt.Errorf("LOOKUP: sought value: %w", err)
	}

	type scored struct {
		candidate
		distance int
		text     string
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		text, err := toString(c.value)
		if err != nil {
			return nil, fmt.Errorf("LOOKUP: source value on entity %s: %w", c.entity.ID, err)
		}
		ranked = append(ranked, scored{
			candidate: c,
			distance:  levenshtein.Distance(soughtText, text, nil),
			text:      text,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].text < ranked[j].text
	})
	return ranked[0].entity, nil
}

// matchByDifference picks the candidate whose numeric (or temporal) value
// lies closest to the sought value. Ties are broken randomly.
func (ev *Evaluator) matchByDifference(sought any, candidates []candidate, dataType string) (*data.Entity, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	soughtNum, err := numericValue(sought, dataType)
	if err != nil {
		return nil, fmt.Errorf("LOOKUP: sought value: %w", err)
	}

	var best []*data.Entity
	bestDiff := math.Inf(1)
	for _, c := range candidates {
		n, err := numericValue(c.value, dataType)
		if err != nil {
			return nil, fmt.Errorf("LOOKUP: source value on entity %s: %w", c.entity.ID, err)
		}
		diff := math.Abs(n - soughtNum)
		switch {
		case diff < bestDiff:
			bestDiff = diff
			best = []*data.Entity{c.entity}
		case diff == bestDiff:
			best = append(best, c.entity)
		}
	}
	return ev.pick(best), nil
}

// matchExact picks a candidate whose value equals the sought value exactly.
// No match yields nil; several matches pick one randomly.
func (ev *Evaluator) matchExact(sought any, candidates []candidate) (*data.Entity, error) {
	soughtText, err := toString(sought)
	if err != nil {
		return nil, fmt.Errorf("LOOKUP: sought value: %w", err)
	}
	var matches []*data.Entity
	for _, c := range candidates {
		text, err := toString(c.value)
		if err != nil {
			return nil, fmt.Errorf("LOOKUP: source value on entity %s: %w", c.entity.ID, err)
		}
		if text == soughtText {
			matches = append(matches, c.entity)
		}
	}
	return ev.pick(matches), nil
}

func (ev *Evaluator) pick(entities []*data.Entity) *data.Entity {
	switch len(entities) {
	case 0:
		return nil
	case 1:
		return entities[0]
	}
	if ev.Rand == nil {
		ev.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return entities[ev.Rand.Intn(len(entities))]
}

// numericValue coerces a lookup operand to a comparable number. Temporal
// types map onto the number line: datetimes as Unix seconds and times of
// day as seconds since midnight.
func numericValue(v any, dataType string) (float64, error) {
	switch dataType {
	case schema.TypeDateTime:
		s, err := toString(v)
		if err != nil {
			return 0, err
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return 0, fmt.Errorf("%q is not an RFC 3339 datetime", s)
		}
		return float64(t.Unix()), nil

	case schema.TypeTime:
		s, err := toString(v)
		if err != nil {
			return 0, err
		}
		t, err := time.Parse("15:04:05", s)
		if err != nil {
			t, err = time.Parse("15:04", s)
		}
		if err != nil {
			return 0, fmt.Errorf("%q is not a time of day", s)
		}
		return float64(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil

	default:
		return toNumber(v)
	}
}
