// Package report defines types for template check findings and the report
// structure used to collect and present check results.
package report

import "fmt"

// Severity indicates whether a finding is an error or a warning.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns "error" or "warning".
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler so JSON output uses the string form.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON round-tripping.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Check codes, one per check phase.
const (
	CodeInput    = "INPUT"
	CodeSchema   = "SCHEMA"
	CodeName     = "NAME"
	CodeParse    = "PARSE"
	CodeScope    = "SCOPE"
	CodeFunction = "FUNC"
	CodeCycle    = "CYCLE"
)

// Location identifies where in a template a finding occurred.
type Location struct {
	File    string `json:"file"`
	Element string `json:"element,omitempty"` // element ID, when known
}

// Finding represents a single check error or warning.
type Finding struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Location Location `json:"location"`
}

// NewFinding creates a Finding with the given parameters.
func NewFinding(code string, severity Severity, message string, loc Location) Finding {
	return Finding{
		Code:     code,
		Severity: severity,
		Message:  message,
		Location: loc,
	}
}

// NewError creates an error-severity Finding.
func NewError(code string, message string, loc Location) Finding {
	return NewFinding(code, SeverityError, message, loc)
}

// NewWarning creates a warning-severity Finding.
func NewWarning(code string, message string, loc Location) Finding {
	return NewFinding(code, SeverityWarning, message, loc)
}

// Summary holds aggregate counts for a report.
type Summary struct {
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
}

// Report collects all check findings for a single template file.
type Report struct {
	File        string    `json:"file"`
	SchemaValid bool      `json:"schema_valid"`
	Errors      []Finding `json:"errors"`
	Warnings    []Finding `json:"warnings"`
	Summary     Summary   `json:"summary"`
}

// NewReport creates a Report for the given file with empty finding slices.
func NewReport(file string) *Report {
	return &Report{
		File:     file,
		Errors:   []Finding{},
		Warnings: []Finding{},
	}
}

// AddFinding appends a finding to the appropriate slice (Errors or Warnings)
// and updates the summary counts.
func (r *Report) AddFinding(f Finding) {
	switch f.Severity {
	case SeverityError:
		r.Errors = append(r.Errors, f)
		r.Summary.ErrorCount++
	case SeverityWarning:
		r.Warnings = append(r.Warnings, f)
		r.Summary.WarningCount++
	}
}

// HasErrors returns true if the report contains any error-severity findings.
func (r *Report) HasErrors() bool {
	return r.Summary.ErrorCount > 0
}

// HasWarnings returns true if the report contains any warning findings.
func (r *Report) HasWarnings() bool {
	return r.Summary.WarningCount > 0
}
