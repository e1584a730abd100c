package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the root command with the given arguments and returns stdout
// and the resulting error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheckCommandValidFile(t *testing.T) {
	out, err := execute(t, "check", filepath.Join("testdata", "template.json"))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "0 errors, 0 warnings") {
		t.Errorf("output missing clean summary:\n%s", out)
	}
}

func TestCheckCommandMissingFile(t *testing.T) {
	_, err := execute(t, "check", filepath.Join("testdata", "no_such.json"))
	var exit exitError
	if !asExitError(err, &exit) {
		t.Fatalf("error %v is not an exitError", err)
	}
	if exit.code != 2 {
		t.Errorf("exit code = %d, want 2", exit.code)
	}
}

func TestCheckCommandBadFormat(t *testing.T) {
	_, err := execute(t, "check", "--format", "xml", filepath.Join("testdata", "template.json"))
	var exit exitError
	if !asExitError(err, &exit) || exit.code != 2 {
		t.Fatalf("error = %v, want exit code 2", err)
	}
}

func TestCheckCommandJSONOutput(t *testing.T) {
	out, err := execute(t, "check", "--format", "json", filepath.Join("testdata", "template.json"))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, `"schema_valid": true`) {
		t.Errorf("output is not the JSON report:\n%s", out)
	}
}

func TestEvalCommandSingleCalculation(t *testing.T) {
	out, err := execute(t, "eval",
		"--template", filepath.Join("testdata", "template.json"),
		"--data", filepath.Join("testdata", "data.yaml"),
		"--entity", "10000000-0000-4000-8000-000000000001",
		"--calc", "c0000000-0000-4000-8000-000000000001")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if strings.TrimSpace(out) != "5" {
		t.Errorf("eval output = %q, want 5", strings.TrimSpace(out))
	}
}

func TestEvalCommandAllCalculations(t *testing.T) {
	out, err := execute(t, "eval",
		"--template", filepath.Join("testdata", "template.json"),
		"--data", filepath.Join("testdata", "data.yaml"),
		"--entity", "10000000-0000-4000-8000-000000000002")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !strings.Contains(out, "c0000000-0000-4000-8000-000000000002") {
		t.Errorf("eval output missing task cost entry:\n%s", out)
	}
	if !strings.Contains(out, "200") {
		t.Errorf("eval output missing computed value:\n%s", out)
	}
}
