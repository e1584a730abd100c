package report

import (
	"encoding/json"
	"testing"
)

func TestSeverityString(t *testing.T) {
	if SeverityError.String() != "error" {
		t.Errorf("SeverityError.String() = %q", SeverityError.String())
	}
	if SeverityWarning.String() != "warning" {
		t.Errorf("SeverityWarning.String() = %q", SeverityWarning.String())
	}
}

func TestSeverityTextRoundTrip(t *testing.T) {
	raw, err := json.Marshal(SeverityWarning)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `"warning"` {
		t.Errorf("marshal = %s, want \"warning\"", raw)
	}

	var s Severity
	if err := json.Unmarshal([]byte(`"error"`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s != SeverityError {
		t.Errorf("unmarshal = %v, want SeverityError", s)
	}

	if err := json.Unmarshal([]byte(`"fatal"`), &s); err == nil {
		t.Error("unmarshal accepted unknown severity")
	}
}

func TestAddFindingUpdatesSummary(t *testing.T) {
	r := NewReport("tpl.json")
	r.AddFinding(NewError(CodeScope, "out of scope", Location{File: "tpl.json", Element: "c1"}))
	r.AddFinding(NewWarning(CodeName, "name is odd", Location{File: "tpl.json"}))

	if r.Summary.ErrorCount != 1 || r.Summary.WarningCount != 1 {
		t.Errorf("summary = %+v, want 1 error 1 warning", r.Summary)
	}
	if !r.HasErrors() || !r.HasWarnings() {
		t.Error("HasErrors/HasWarnings disagree with summary")
	}
	if len(r.Errors) != 1 || r.Errors[0].Code != CodeScope {
		t.Errorf("errors = %v", r.Errors)
	}
}

func TestNewReportMarshalsEmptySlices(t *testing.T) {
	raw, err := FormatJSON(NewReport("tpl.json"))
	if err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	var decoded struct {
		Errors   []Finding `json:"errors"`
		Warnings []Finding `json:"warnings"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Errors == nil || decoded.Warnings == nil {
		t.Error("empty report must marshal errors and warnings as [], not null")
	}
}
