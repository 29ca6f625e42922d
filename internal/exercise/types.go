// Domain types for the exercise-injection simulator
package exercise

import "time"

// Team is a fixed participant group in the exercise.
type Team struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// DefaultTeams is the built-in registry used when no configuration overrides it.
func DefaultTeams() []Team {
	return []Team{
		{ID: "team_eoc", Name: "EOC"},
		{ID: "team_lab", Name: "Lab"},
		{ID: "team_comm", Name: "Comms"},
		{ID: "team_field", Name: "Field"},
	}
}

// InjectStatus tracks the lifecycle of a single inject variant.
type InjectStatus string

const (
	StatusQueued   InjectStatus = "queued"
	StatusSent     InjectStatus = "sent"
	StatusRecalled InjectStatus = "recalled"
)

// EvaluationRating grades how a team handled an inject.
type EvaluationRating string

const (
	RatingNotObserved EvaluationRating = "not_observed"
	RatingPartially   EvaluationRating = "partially"
	RatingAchieved    EvaluationRating = "achieved"
	RatingExceeded    EvaluationRating = "exceeded"
)

// ValidRating reports whether r is one of the known ratings.
func ValidRating(r EvaluationRating) bool {
	switch r {
	case RatingNotObserved, RatingPartially, RatingAchieved, RatingExceeded:
		return true
	}
	return false
}

// Inject is one scripted message instance per recipient team. A multi-team
// send creates one variant per target team, correlated by GroupID with
// identical Recipients; single-team sends have no GroupID.
//
// Timestamps are RFC3339 strings on the wire. Malformed values are tolerated
// everywhere they are read: a scheduled time that does not parse is never due,
// and an unparseable sent time sorts earliest.
type Inject struct {
	ID               string           `json:"id"`
	GroupID          string           `json:"groupId,omitempty"`
	Title            string           `json:"title"`
	Body             string           `json:"body"`
	TeamID           string           `json:"teamId"`
	Status           InjectStatus     `json:"status"`
	Ts               string           `json:"ts"`
	All              bool             `json:"all,omitempty"`
	GroupMaster      bool             `json:"groupMaster,omitempty"`
	Recipients       []string         `json:"recipients,omitempty"`
	ScheduledFor     string           `json:"scheduledFor,omitempty"`
	Objectives       []string         `json:"objectives,omitempty"`
	Capabilities     []string         `json:"capabilities,omitempty"`
	EvaluationRating EvaluationRating `json:"evaluationRating,omitempty"`
	EvaluationNotes  string           `json:"evaluationNotes,omitempty"`
	Phase            string           `json:"phase,omitempty"`
}

// ParticipantActionType identifies a participant action. Only acknowledgement
// exists today; the type keeps the ledger open for more.
type ParticipantActionType string

const ActionAcknowledged ParticipantActionType = "acknowledged"

// ParticipantAction is one ledger row. Uniqueness per
// (InjectID, TeamID, Type) is enforced at write time.
type ParticipantAction struct {
	ID        string                `json:"id"`
	Ts        string                `json:"ts"`
	InjectID  string                `json:"injectId"`
	TeamID    string                `json:"teamId"`
	ActorName string                `json:"actorName,omitempty"`
	Type      ParticipantActionType `json:"type"`
}

// EpiTrend describes the scenario's epidemiological direction.
type EpiTrend string

const (
	TrendStable    EpiTrend = "stable"
	TrendWorsening EpiTrend = "worsening"
	TrendImproving EpiTrend = "improving"
)

// WorldState holds facilitator-adjustable scenario context. The pressure
// values are clamped to [0,10]. Not consulted by any business logic.
type WorldState struct {
	EpiTrend      EpiTrend `json:"epiTrend"`
	CommsPressure int      `json:"commsPressure"`
	LabBacklog    int      `json:"labBacklog"`
	PublicAnxiety int      `json:"publicAnxiety"`
}

// DefaultWorldState is the starting scenario context.
func DefaultWorldState() WorldState {
	return WorldState{
		EpiTrend:      TrendStable,
		CommsPressure: 2,
		LabBacklog:    1,
		PublicAnxiety: 2,
	}
}

// ClampPressure bounds a pressure slider value to [0,10].
func ClampPressure(v int) int {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// ExerciseType classifies the exercise format.
type ExerciseType string

const (
	TypeTabletop   ExerciseType = "tabletop"
	TypeDrill      ExerciseType = "drill"
	TypeFunctional ExerciseType = "functional"
	TypeFullScale  ExerciseType = "full-scale"
)

// ExerciseDefinition describes the exercise. Editable only while the
// exercise is in draft.
type ExerciseDefinition struct {
	Name              string       `json:"name"`
	Type              ExerciseType `json:"type"`
	Overview          string       `json:"overview"`
	PrimaryObjectives string       `json:"primaryObjectives"`
}

// DefaultExercise is the unconfigured definition.
func DefaultExercise() ExerciseDefinition {
	return ExerciseDefinition{Name: "Untitled exercise", Type: TypeTabletop}
}

// ExerciseStatus is the lifecycle state: draft -> live -> ended, monotonic.
type ExerciseStatus string

const (
	StatusDraft ExerciseStatus = "draft"
	StatusLive  ExerciseStatus = "live"
	StatusEnded ExerciseStatus = "ended"
)

// TimelineMode controls what participants see of the timeline.
type TimelineMode string

const (
	ModeTeam   TimelineMode = "team"
	ModeGlobal TimelineMode = "global"
	ModeHidden TimelineMode = "hidden"
)

// DefaultPhases is the phase list a fresh exercise starts with.
func DefaultPhases() []string {
	return []string{"Phase 1", "Phase 2", "Phase 3"}
}

// RecallWindow is how long after sending an inject the recall control stays
// visible. The store itself accepts a recall at any time; the window is a
// display gate evaluated against the clock.
const RecallWindow = 30 * time.Second

// WithinRecallWindow reports whether a sent inject can still be offered for
// recall at now. Unparseable sent timestamps close the window.
func WithinRecallWindow(inj Inject, now time.Time) bool {
	if inj.Status != StatusSent {
		return false
	}
	ts, ok := ParseTime(inj.Ts)
	if !ok {
		return false
	}
	return now.Sub(ts) <= RecallWindow
}

// ParseTime parses an RFC3339 timestamp, reporting ok=false on malformed
// input instead of surfacing an error.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatTime renders a timestamp the way every record in the system stores
// one.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
