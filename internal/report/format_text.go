package report

import (
	"fmt"
	"strings"
)

// FormatText returns a human-readable string representation of the report.
// Each finding is on its own line with check code, severity, message, and
// the element it concerns. A summary line is appended at the end.
func FormatText(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "File: %s\n", r.File)

	for _, f := range r.Errors {
		writeFinding(&b, f)
	}
	for _, f := range r.Warnings {
		writeFinding(&b, f)
	}

	fmt.Fprintf(&b, "\n%d errors, %d warnings\n", r.Summary.ErrorCount, r.Summary.WarningCount)
	return b.String()
}

func writeFinding(b *strings.Builder, f Finding) {
	if f.Location.Element != "" {
		fmt.Fprintf(b, "  [%s] %s: %s (element %s)\n", f.Code, f.Severity, f.Message, f.Location.Element)
		return
	}
	fmt.Fprintf(b, "  [%s] %s: %s\n", f.Code, f.Severity, f.Message)
}
