// Package checker orchestrates schema validation and formula compilation for
// template files, producing a consolidated report.
package checker

import (
	"errors"
	"fmt"
	"os"

	"github.com/trellishq/trellis/internal/formula"
	"github.com/trellishq/trellis/internal/report"
	"github.com/trellishq/trellis/internal/schema"
	"github.com/trellishq/trellis/internal/semantic"
)

// CheckOptions controls which phases to run.
type CheckOptions struct {
	SchemaOnly bool // Only run JSON Schema validation, skip compilation.
	Strict     bool // Treat warnings as errors for exit-code purposes.
}

// Checker validates template JSON files.
type Checker struct {
	validator *schema.Validator
}

// NewChecker creates a Checker with the embedded JSON Schema validator.
func NewChecker() (*Checker, error) {
	v, err := schema.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("initialize schema validator: %w", err)
	}
	return &Checker{validator: v}, nil
}

// Check validates the template file at path and returns a report. It runs
// schema validation first, then loads the template, checks element names,
// and compiles every formula.
func (c *Checker) Check(path string, opts CheckOptions) *report.Report {
	r := report.NewReport(path)

	// Verify the file is accessible before attempting validation.
	if _, err := os.Stat(path); err != nil {
		r.AddFinding(report.NewError(report.CodeInput, fmt.Sprintf("cannot access file: %v", err),
			report.Location{File: path}))
		return r
	}

	// --- Phase 1: JSON Schema validation ---
	schemaErrors := c.validator.Validate(path)
	r.SchemaValid = len(schemaErrors) == 0

	for _, se := range schemaErrors {
		code := report.CodeSchema
		if se.ParseError {
			code = report.CodeInput
		}
		r.AddFinding(report.NewError(code, se.String(), report.Location{File: path}))
	}

	if !r.SchemaValid || opts.SchemaOnly {
		return r
	}

	// --- Phase 2: Load template ---
	tpl, err := schema.LoadTemplate(path)
	if err != nil {
		r.AddFinding(report.NewError(report.CodeInput, fmt.Sprintf("failed to load template: %v", err),
			report.Location{File: path}))
		return r
	}

	// --- Phase 3: Element name rules ---
	for _, err := range semantic.CheckNames(tpl) {
		r.AddFinding(toFinding(path, err))
	}

	// --- Phase 4: Formula compilation (parse, resolve, scope, functions, cycles) ---
	if _, errs := semantic.Compile(tpl); len(errs) > 0 {
		for _, err := range errs {
			r.AddFinding(toFinding(path, err))
		}
	}

	return r
}

// toFinding classifies a compile or name error into a coded finding.
func toFinding(path string, err error) report.Finding {
	loc := report.Location{File: path}

	var parseErr *formula.ParseError
	if errors.As(err, &parseErr) {
		return report.NewError(report.CodeParse, err.Error(), loc)
	}
	var scopeErr *semantic.ScopeError
	if errors.As(err, &scopeErr) {
		loc.Element = scopeErr.CalculationID
		return report.NewError(report.CodeScope, err.Error(), loc)
	}
	var funcErr *semantic.UnsupportedFunctionError
	if errors.As(err, &funcErr) {
		loc.Element = funcErr.CalculationID
		return report.NewError(report.CodeFunction, err.Error(), loc)
	}
	var cycleErr *semantic.CircularReferenceError
	if errors.As(err, &cycleErr) {
		loc.Element = cycleErr.CalculationID
		return report.NewError(report.CodeCycle, err.Error(), loc)
	}
	var nameErr *semantic.NameError
	if errors.As(err, &nameErr) {
		loc.Element = nameErr.ElementID
		return report.NewError(report.CodeName, err.Error(), loc)
	}

	return report.NewError(report.CodeInput, err.Error(), loc)
}
