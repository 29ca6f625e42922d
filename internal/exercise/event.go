package exercise

import (
	"encoding/json"
	"fmt"
)

// EventType identifies a timeline event kind. The strings are a stable wire
// taxonomy and must round-trip exactly.
type EventType string

const (
	EventInjectSent         EventType = "inject.sent"
	EventInjectSentGroup    EventType = "inject.sent.group"
	EventInjectQueued       EventType = "inject.queued"
	EventInjectQueuedGroup  EventType = "inject.queued.group"
	EventInjectRecalled     EventType = "inject.recalled"
	EventInjectAcknowledged EventType = "inject.acknowledged"
	EventExerciseStarted    EventType = "exercise.started"
	EventExerciseEnded      EventType = "exercise.ended"
	EventExercisePaused     EventType = "exercise.paused"
	EventExerciseResumed    EventType = "exercise.resumed"
)

// EventData is the payload of a timeline event, one variant per event kind.
type EventData interface {
	EventType() EventType
}

// InjectSent records a single-team inject delivery.
type InjectSent struct {
	Title        string
	TeamID       string
	Objectives   []string
	Capabilities []string
}

// InjectSentGroup records a multi-team inject delivery, logged once per group
// using the master variant as representative.
type InjectSentGroup struct {
	Title        string
	Recipients   []string
	All          bool
	Objectives   []string
	Capabilities []string
}

// InjectQueued records a single-team inject being scheduled.
type InjectQueued struct {
	Title        string
	TeamID       string
	ScheduledAt  string
	Objectives   []string
	Capabilities []string
}

// InjectQueuedGroup records a multi-team inject being scheduled.
type InjectQueuedGroup struct {
	Title        string
	Recipients   []string
	All          bool
	ScheduledAt  string
	Objectives   []string
	Capabilities []string
}

// InjectRecalled records a recall, carrying the ids of every recalled variant
// and the title of the representative one.
type InjectRecalled struct {
	InjectIDs []string
	Title     string
}

// InjectAcknowledged records a participant acknowledging receipt.
type InjectAcknowledged struct {
	InjectID   string
	TeamID     string
	Title      string
	ActorName  string
	ActionType ParticipantActionType
}

// ExerciseStarted marks the draft -> live transition.
type ExerciseStarted struct{}

// ExerciseEnded marks the live -> ended transition.
type ExerciseEnded struct{}

// ExercisePaused marks dispatch being suspended.
type ExercisePaused struct{}

// ExerciseResumed marks dispatch picking back up.
type ExerciseResumed struct{}

func (InjectSent) EventType() EventType         { return EventInjectSent }
func (InjectSentGroup) EventType() EventType    { return EventInjectSentGroup }
func (InjectQueued) EventType() EventType       { return EventInjectQueued }
func (InjectQueuedGroup) EventType() EventType  { return EventInjectQueuedGroup }
func (InjectRecalled) EventType() EventType     { return EventInjectRecalled }
func (InjectAcknowledged) EventType() EventType { return EventInjectAcknowledged }
func (ExerciseStarted) EventType() EventType    { return EventExerciseStarted }
func (ExerciseEnded) EventType() EventType      { return EventExerciseEnded }
func (ExercisePaused) EventType() EventType     { return EventExercisePaused }
func (ExerciseResumed) EventType() EventType    { return EventExerciseResumed }

// TimelineEvent is one immutable log entry. Data carries the typed payload;
// the flat legacy wire shape is preserved through custom JSON marshalling.
type TimelineEvent struct {
	ID   string
	Ts   string
	Data EventData
}

// Type returns the taxonomy string of the payload.
func (e TimelineEvent) Type() EventType {
	if e.Data == nil {
		return ""
	}
	return e.Data.EventType()
}

// Title returns the inject title the event refers to, if any.
func (e TimelineEvent) Title() string {
	switch d := e.Data.(type) {
	case InjectSent:
		return d.Title
	case InjectSentGroup:
		return d.Title
	case InjectQueued:
		return d.Title
	case InjectQueuedGroup:
		return d.Title
	case InjectRecalled:
		return d.Title
	case InjectAcknowledged:
		return d.Title
	}
	return ""
}

// TeamID returns the directly targeted team, if any.
func (e TimelineEvent) TeamID() string {
	switch d := e.Data.(type) {
	case InjectSent:
		return d.TeamID
	case InjectQueued:
		return d.TeamID
	case InjectAcknowledged:
		return d.TeamID
	}
	return ""
}

// Recipients returns the full recipient list for group events.
func (e TimelineEvent) Recipients() []string {
	switch d := e.Data.(type) {
	case InjectSentGroup:
		return d.Recipients
	case InjectQueuedGroup:
		return d.Recipients
	}
	return nil
}

// All reports whether the event targeted every team.
func (e TimelineEvent) All() bool {
	switch d := e.Data.(type) {
	case InjectSentGroup:
		return d.All
	case InjectQueuedGroup:
		return d.All
	}
	return false
}

// wireEvent is the flat JSON representation shared by the persisted snapshot
// and the export log.
type wireEvent struct {
	ID           string                `json:"id"`
	Ts           string                `json:"ts"`
	Type         EventType             `json:"type"`
	Title        string                `json:"title,omitempty"`
	TeamID       string                `json:"teamId,omitempty"`
	Recipients   []string              `json:"recipients,omitempty"`
	All          bool                  `json:"all,omitempty"`
	ScheduledAt  string                `json:"scheduledAt,omitempty"`
	InjectID     string                `json:"injectId,omitempty"`
	InjectIDs    []string              `json:"injectIds,omitempty"`
	ActorName    string                `json:"actorName,omitempty"`
	ActionType   ParticipantActionType `json:"actionType,omitempty"`
	Objectives   []string              `json:"objectives,omitempty"`
	Capabilities []string              `json:"capabilities,omitempty"`
}

// MarshalJSON flattens the typed payload into the legacy wire shape.
func (e TimelineEvent) MarshalJSON() ([]byte, error) {
	w := wireEvent{ID: e.ID, Ts: e.Ts, Type: e.Type()}
	switch d := e.Data.(type) {
	case InjectSent:
		w.Title, w.TeamID = d.Title, d.TeamID
		w.Objectives, w.Capabilities = d.Objectives, d.Capabilities
	case InjectSentGroup:
		w.Title, w.Recipients, w.All = d.Title, d.Recipients, d.All
		w.Objectives, w.Capabilities = d.Objectives, d.Capabilities
	case InjectQueued:
		w.Title, w.TeamID, w.ScheduledAt = d.Title, d.TeamID, d.ScheduledAt
		w.Objectives, w.Capabilities = d.Objectives, d.Capabilities
	case InjectQueuedGroup:
		w.Title, w.Recipients, w.All, w.ScheduledAt = d.Title, d.Recipients, d.All, d.ScheduledAt
		w.Objectives, w.Capabilities = d.Objectives, d.Capabilities
	case InjectRecalled:
		w.InjectIDs, w.Title = d.InjectIDs, d.Title
	case InjectAcknowledged:
		w.InjectID, w.TeamID, w.Title = d.InjectID, d.TeamID, d.Title
		w.ActorName, w.ActionType = d.ActorName, d.ActionType
	case ExerciseStarted, ExerciseEnded, ExercisePaused, ExerciseResumed:
	case nil:
		return nil, fmt.Errorf("timeline event %s has no payload", e.ID)
	}
	return json.Marshal(w)
}

// UnmarshalJSON rebuilds the typed payload from the flat wire shape.
func (e *TimelineEvent) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	data, err := w.payload()
	if err != nil {
		return err
	}
	e.ID = w.ID
	e.Ts = w.Ts
	e.Data = data
	return nil
}

func (w wireEvent) payload() (EventData, error) {
	switch w.Type {
	case EventInjectSent:
		return InjectSent{Title: w.Title, TeamID: w.TeamID, Objectives: w.Objectives, Capabilities: w.Capabilities}, nil
	case EventInjectSentGroup:
		return InjectSentGroup{Title: w.Title, Recipients: w.Recipients, All: w.All, Objectives: w.Objectives, Capabilities: w.Capabilities}, nil
	case EventInjectQueued:
		return InjectQueued{Title: w.Title, TeamID: w.TeamID, ScheduledAt: w.ScheduledAt, Objectives: w.Objectives, Capabilities: w.Capabilities}, nil
	case EventInjectQueuedGroup:
		return InjectQueuedGroup{Title: w.Title, Recipients: w.Recipients, All: w.All, ScheduledAt: w.ScheduledAt, Objectives: w.Objectives, Capabilities: w.Capabilities}, nil
	case EventInjectRecalled:
		ids := w.InjectIDs
		if len(ids) == 0 && w.InjectID != "" {
			ids = []string{w.InjectID}
		}
		return InjectRecalled{InjectIDs: ids, Title: w.Title}, nil
	case EventInjectAcknowledged:
		return InjectAcknowledged{InjectID: w.InjectID, TeamID: w.TeamID, Title: w.Title, ActorName: w.ActorName, ActionType: w.ActionType}, nil
	case EventExerciseStarted:
		return ExerciseStarted{}, nil
	case EventExerciseEnded:
		return ExerciseEnded{}, nil
	case EventExercisePaused:
		return ExercisePaused{}, nil
	case EventExerciseResumed:
		return ExerciseResumed{}, nil
	}
	return nil, fmt.Errorf("unknown timeline event type %q", w.Type)
}
