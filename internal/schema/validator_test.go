package schema

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNewValidator(t *testing.T) {
	if _, err := NewValidator(); err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
}

func TestValidateValidTemplate(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	errs := v.Validate(filepath.Join("testdata", "valid_template.json"))
	for _, e := range errs {
		t.Errorf("unexpected schema error: %s", e)
	}
}

func TestValidateInvalidTemplate(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	errs := v.Validate(filepath.Join("testdata", "invalid_template.json"))
	if len(errs) == 0 {
		t.Fatal("expected schema errors, got none")
	}
	for _, e := range errs {
		if e.ParseError {
			t.Errorf("unexpected parse error: %s", e)
		}
	}
}

func TestValidateMissingFile(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	errs := v.Validate(filepath.Join("testdata", "no_such_file.json"))
	if len(errs) != 1 || !errs[0].ParseError {
		t.Fatalf("expected a single parse error, got %v", errs)
	}
}

func TestValidateDocumentRejectsBadStatus(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	doc := map[string]any{
		"id":     "f0000000-0000-4000-8000-000000000003",
		"name":   "Bad Status",
		"status": "Retired",
		"trunk": map[string]any{
			"id":   "e0000000-0000-4000-8000-000000000003",
			"name": "Trunk",
		},
	}
	errs := v.ValidateDocument(doc)
	if len(errs) == 0 {
		t.Fatal("expected a schema error for unknown status, got none")
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e.Path, "status") || strings.Contains(e.Message, "status") {
			found = true
		}
	}
	if !found {
		t.Errorf("no error mentions status: %v", errs)
	}
}
