package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	yaml := `
name: flood-response
description: Riverine flooding across two districts.
phases:
  - name: Warning
    description: Forecast crosses the alert threshold.
  - name: Impact
  - name: Recovery
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if s.Name != "flood-response" || len(s.Phases) != 3 {
		t.Errorf("unexpected scenario: %+v", s)
	}
	names := s.PhaseNames()
	if len(names) != 3 || names[0] != "Warning" || names[2] != "Recovery" {
		t.Errorf("phase names = %v", names)
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Errorf("missing file must be an error")
	}
}

func TestBuiltInScenarios(t *testing.T) {
	builtins := BuiltIn()
	if len(builtins) == 0 {
		t.Fatalf("expected built-in scenarios")
	}
	for name, s := range builtins {
		if len(s.Phases) == 0 {
			t.Errorf("scenario %s has no phases", name)
		}
		if s.Name == "" || s.Description == "" {
			t.Errorf("scenario %s missing name or description", name)
		}
		for i, p := range s.PhaseNames() {
			if p == "" {
				t.Errorf("scenario %s phase %d is blank", name, i)
			}
		}
	}
}
