// Command trellis works with template files: it checks them (JSON Schema,
// naming rules, formula compilation) and evaluates compiled calculations
// against entity datasets.
//
// Exit codes:
//
//	0  Success (no errors; warnings may be present unless --strict)
//	1  Validation errors (or warnings with --strict)
//	2  Input or usage error (missing file, invalid JSON, bad flags)
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var verbose bool

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var exit exitError
		if ok := asExitError(err, &exit); ok {
			if exit.message != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exit.message)
			}
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trellis",
		Short:         "Check template files and evaluate calculations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newEvalCmd())
	return root
}

// exitError carries an explicit exit code through cobra's error return.
type exitError struct {
	code    int
	message string
}

func (e exitError) Error() string { return e.message }

func asExitError(err error, out *exitError) bool {
	e, ok := err.(exitError)
	if ok {
		*out = e
	}
	return ok
}
