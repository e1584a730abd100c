package report

import (
	"strings"
	"testing"
)

func TestFormatText(t *testing.T) {
	r := NewReport("tpl.json")
	r.AddFinding(NewError(CodeCycle, "circular reference involving calculation c1",
		Location{File: "tpl.json", Element: "c1"}))
	r.AddFinding(NewWarning(CodeName, "name is close to a sibling", Location{File: "tpl.json"}))

	out := FormatText(r)

	for _, want := range []string{
		"File: tpl.json",
		"[CYCLE] error: circular reference involving calculation c1 (element c1)",
		"[NAME] warning: name is close to a sibling",
		"1 errors, 1 warnings",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatText output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTextEmptyReport(t *testing.T) {
	out := FormatText(NewReport("tpl.json"))
	if !strings.Contains(out, "0 errors, 0 warnings") {
		t.Errorf("FormatText output missing summary:\n%s", out)
	}
}
