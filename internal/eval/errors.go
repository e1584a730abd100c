// Package eval executes compiled calculation formulas against stored entity
// instances. Evaluation walks the formula code tree, fetching referenced
// attribute values from a data.Store, fanning out over live child entities,
// and recursing into nested calculations under a depth guard.
package eval

import "fmt"

// EvalError reports a runtime failure while evaluating a calculation.
type EvalError struct {
	CalculationID string
	Reason        string
	Err           error // underlying cause, may be nil
}

func (e *EvalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evaluating calculation %s: %s: %v", e.CalculationID, e.Reason, e.Err)
	}
	return fmt.Sprintf("evaluating calculation %s: %s", e.CalculationID, e.Reason)
}

func (e *EvalError) Unwrap() error { return e.Err }

// RecursionError reports that nested calculation references exceeded the
// evaluator's depth limit. Compile-time cycle checks make this unreachable
// for compiled templates, but the guard stays as a runtime backstop.
type RecursionError struct {
	CalculationID string
	Depth         int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("calculation %s: nesting depth %d exceeds the limit", e.CalculationID, e.Depth)
}
