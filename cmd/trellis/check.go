package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trellishq/trellis/internal/checker"
	"github.com/trellishq/trellis/internal/report"
)

func newCheckCmd() *cobra.Command {
	var (
		format     string
		quiet      bool
		strict     bool
		schemaOnly bool
	)

	cmd := &cobra.Command{
		Use:   "check file.json [file2.json ...]",
		Short: "Validate template files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return exitError{code: 2, message: fmt.Sprintf("invalid format %q (use text or json)", format)}
			}

			c, err := checker.NewChecker()
			if err != nil {
				return exitError{code: 2, message: err.Error()}
			}

			opts := checker.CheckOptions{SchemaOnly: schemaOnly, Strict: strict}
			exitCode := 0
			for _, path := range args {
				r := c.Check(path, opts)

				switch {
				case hasInputError(r):
					exitCode = max(exitCode, 2)
				case r.HasErrors():
					exitCode = max(exitCode, 1)
				case strict && r.HasWarnings():
					exitCode = max(exitCode, 1)
				}

				if !quiet {
					if err := printReport(cmd, r, format); err != nil {
						return exitError{code: 2, message: err.Error()}
					}
				}
			}

			if exitCode != 0 {
				return exitError{code: exitCode}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress output (exit code only)")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	cmd.Flags().BoolVar(&schemaOnly, "schema-only", false, "run schema validation only, skip formula compilation")
	return cmd
}

// hasInputError returns true if the report contains an INPUT error.
func hasInputError(r *report.Report) bool {
	for _, e := range r.Errors {
		if e.Code == report.CodeInput {
			return true
		}
	}
	return false
}

// printReport outputs the report in the specified format.
func printReport(cmd *cobra.Command, r *report.Report, format string) error {
	switch format {
	case "json":
		data, err := report.FormatJSON(r)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	case "text":
		fmt.Fprint(cmd.OutOrStdout(), report.FormatText(r))
	}
	return nil
}
