package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a reusable exercise storyline: an ordered phase structure plus
// a description facilitators can build a master inject list around.
type Scenario struct {
	Name        string  `yaml:"name,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Phases      []Phase `yaml:"phases"`
}

// Phase is one stage of the exercise.
type Phase struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &s, nil
}

// PhaseNames returns the phase labels in order, for State.SetPhases.
func (s *Scenario) PhaseNames() []string {
	out := make([]string, 0, len(s.Phases))
	for _, p := range s.Phases {
		out = append(out, p.Name)
	}
	return out
}
