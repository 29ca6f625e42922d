// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"simexerciser/internal/exercise"
)

// Definition mirrors the exercise definition block.
type Definition struct {
	Name              string `yaml:"name"`
	Type              string `yaml:"type"`
	Overview          string `yaml:"overview"`
	PrimaryObjectives string `yaml:"primary_objectives"`
}

// World mirrors the starting world-state block.
type World struct {
	EpiTrend      string `yaml:"epi_trend"`
	CommsPressure int    `yaml:"comms_pressure"`
	LabBacklog    int    `yaml:"lab_backlog"`
	PublicAnxiety int    `yaml:"public_anxiety"`
}

// Duration wraps time.Duration so YAML can carry values like "5m" or "90s".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// PreparedInject is a master-list entry scheduled relative to exercise start.
type PreparedInject struct {
	Title        string   `yaml:"title"`
	Body         string   `yaml:"body"`
	Teams        []string `yaml:"teams"`
	Offset       Duration `yaml:"offset"`
	Objectives   []string `yaml:"objectives"`
	Capabilities []string `yaml:"capabilities"`
	Phase        string   `yaml:"phase"`
}

// ExerciseConfig is the root configuration: teams, phases, defaults, and the
// prepared inject list.
type ExerciseConfig struct {
	Exercise Definition       `yaml:"exercise"`
	Teams    []exercise.Team  `yaml:"teams"`
	Phases   []string         `yaml:"phases"`
	World    *World           `yaml:"world"`
	Injects  []PreparedInject `yaml:"injects"`
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*ExerciseConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg ExerciseConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ExerciseConfig) check() error {
	known := make(map[string]bool, len(c.Teams))
	for _, t := range c.Teams {
		if t.ID == "" || t.Name == "" {
			return fmt.Errorf("team entries need both id and name: %+v", t)
		}
		if known[t.ID] {
			return fmt.Errorf("duplicate team id %q", t.ID)
		}
		known[t.ID] = true
	}
	for i, inj := range c.Injects {
		if inj.Title == "" {
			return fmt.Errorf("inject %d has no title", i)
		}
		if len(inj.Teams) == 0 {
			return fmt.Errorf("inject %q targets no teams", inj.Title)
		}
		for _, tid := range inj.Teams {
			if len(c.Teams) > 0 && !known[tid] {
				return fmt.Errorf("inject %q targets unknown team %q", inj.Title, tid)
			}
		}
	}
	return nil
}

// TeamList returns the configured teams, or the built-in registry when the
// config names none.
func (c *ExerciseConfig) TeamList() []exercise.Team {
	if len(c.Teams) == 0 {
		return exercise.DefaultTeams()
	}
	return c.Teams
}

// ApplyDefaults pushes configured definition, phases, and world state into a
// fresh state. Only meaningful while the exercise is in draft.
func (c *ExerciseConfig) ApplyDefaults(s *exercise.State) {
	if c.Exercise.Name != "" || c.Exercise.Overview != "" || c.Exercise.PrimaryObjectives != "" {
		d := exercise.DefinitionPatch{}
		if c.Exercise.Name != "" {
			d.Name = &c.Exercise.Name
		}
		if c.Exercise.Type != "" {
			t := exercise.ExerciseType(c.Exercise.Type)
			d.Type = &t
		}
		d.Overview = &c.Exercise.Overview
		d.PrimaryObjectives = &c.Exercise.PrimaryObjectives
		s.UpdateDefinition(d)
	}
	if len(c.Phases) > 0 {
		s.SetPhases(c.Phases)
	}
	if c.World != nil {
		trend := exercise.EpiTrend(c.World.EpiTrend)
		s.UpdateWorldState(exercise.WorldStatePatch{
			EpiTrend:      &trend,
			CommsPressure: &c.World.CommsPressure,
			LabBacklog:    &c.World.LabBacklog,
			PublicAnxiety: &c.World.PublicAnxiety,
		})
	}
}
