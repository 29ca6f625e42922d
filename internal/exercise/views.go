package exercise

import (
	"sort"
	"strings"
)

// MeltRow is one line of the Master Events List/Timeline: a per-send summary
// joining inject status, targets, acknowledgements, evaluation, and phase.
type MeltRow struct {
	ID               string           `json:"id"`
	InjectID         string           `json:"injectId"`
	WhenLabel        string           `json:"whenLabel"`
	WhenMs           int64            `json:"whenMs"`
	Title            string           `json:"title"`
	Targets          string           `json:"targets"`
	Status           InjectStatus     `json:"status"`
	AckCount         int              `json:"ackCount"`
	TotalTargets     int              `json:"totalTargets"`
	EvaluationRating EvaluationRating `json:"evaluationRating,omitempty"`
	Objectives       []string         `json:"objectives,omitempty"`
	Capabilities     []string         `json:"capabilities,omitempty"`
	Phase            string           `json:"phase,omitempty"`
}

const meltTimeLayout = "02 Jan 15:04"

func meltWhen(inj Inject) (label string, ms int64) {
	iso := inj.ScheduledFor
	if iso == "" {
		iso = inj.Ts
	}
	t, ok := ParseTime(iso)
	if !ok {
		return "-", 0
	}
	return t.Format(meltTimeLayout), t.UnixMilli()
}

// MeltRows builds one row per send (group-deduplicated, first seen wins),
// sorted ascending by effective time. Unparseable times sort earliest.
func (s *State) MeltRows() []MeltRow {
	if len(s.injects) == 0 {
		return nil
	}

	ackedTeams := func(members []Inject) map[string]bool {
		byID := make(map[string]string, len(members))
		for _, m := range members {
			byID[m.ID] = m.TeamID
		}
		teams := make(map[string]bool)
		for _, a := range s.actions {
			if a.Type != ActionAcknowledged {
				continue
			}
			// An acknowledgement only counts for the variant's own team.
			if tid, ok := byID[a.InjectID]; ok && tid == a.TeamID {
				teams[tid] = true
			}
		}
		return teams
	}

	rows := make([]MeltRow, 0, len(s.injects))
	for _, g := range Groups(s.injects) {
		m := g.Master
		label, ms := meltWhen(m)
		recips := g.Recipients()

		targets := "Multiple teams"
		switch {
		case m.GroupID == "":
			targets = s.TeamName(m.TeamID)
		case m.All && len(recips) == len(s.teams):
			targets = "All teams"
		case len(recips) > 0:
			names := make([]string, 0, len(recips))
			for _, tid := range recips {
				names = append(names, s.TeamName(tid))
			}
			targets = strings.Join(names, ", ")
		}

		total := len(recips)
		if total == 0 {
			total = len(g.Members)
		}

		rows = append(rows, MeltRow{
			ID:               g.Key,
			InjectID:         m.ID,
			WhenLabel:        label,
			WhenMs:           ms,
			Title:            m.Title,
			Targets:          targets,
			Status:           m.Status,
			AckCount:         len(ackedTeams(g.Members)),
			TotalTargets:     total,
			EvaluationRating: m.EvaluationRating,
			Objectives:       m.Objectives,
			Capabilities:     m.Capabilities,
			Phase:            m.Phase,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].WhenMs < rows[j].WhenMs })
	return rows
}

// AckSummary counts, for one team, how many delivered injects it owns and
// how many of those it has acknowledged. Only sent injects count.
type AckSummary struct {
	Total int `json:"total"`
	Ack   int `json:"ack"`
}

// TeamAckSummaries computes the per-team acknowledgement summary used for the
// ratio bars.
func (s *State) TeamAckSummaries() map[string]AckSummary {
	out := make(map[string]AckSummary, len(s.teams))
	for _, t := range s.teams {
		out[t.ID] = AckSummary{}
	}
	acked := make(map[[2]string]bool, len(s.actions))
	for _, a := range s.actions {
		if a.Type == ActionAcknowledged {
			acked[[2]string{a.InjectID, a.TeamID}] = true
		}
	}
	for _, inj := range s.injects {
		if inj.Status != StatusSent {
			continue
		}
		sum, ok := out[inj.TeamID]
		if !ok {
			continue
		}
		sum.Total++
		if acked[[2]string{inj.ID, inj.TeamID}] {
			sum.Ack++
		}
		out[inj.TeamID] = sum
	}
	return out
}

// globalEvent reports whether an event type bypasses team filtering: every
// participant and every facilitator team filter sees these.
func globalEvent(t EventType) bool {
	switch t {
	case EventExerciseStarted, EventExerciseEnded, EventExercisePaused,
		EventExerciseResumed, EventInjectRecalled:
		return true
	}
	return false
}

// ParticipantTimeline returns the event feed as seen from the participant
// console in the configured visibility mode.
func (s *State) ParticipantTimeline() []TimelineEvent {
	switch s.participantMode {
	case ModeHidden:
		return nil
	case ModeGlobal:
		return s.Timeline()
	}

	teamID := s.participantTeamID
	var out []TimelineEvent
	for _, e := range s.timeline {
		switch d := e.Data.(type) {
		case InjectSentGroup:
			if d.All || contains(d.Recipients, teamID) {
				out = append(out, e)
			}
		case InjectSent:
			if d.TeamID == teamID {
				out = append(out, e)
			}
		case InjectRecalled, InjectAcknowledged, ExerciseStarted, ExerciseEnded,
			ExercisePaused, ExerciseResumed:
			out = append(out, e)
		}
	}
	return out
}

// TimelineFilter is the facilitator-side filter: three independently
// composable predicates over team, event category, and free text.
type TimelineFilter struct {
	TeamID   string // "" or "all" disables
	Category string // "injects", "exercise", "actions", anything else disables
	Text     string // case-insensitive substring over title/actor/tags
}

// FilteredTimeline applies a facilitator filter to the full event log.
func (s *State) FilteredTimeline(f TimelineFilter) []TimelineEvent {
	query := strings.ToLower(strings.TrimSpace(f.Text))
	var out []TimelineEvent
	for _, e := range s.timeline {
		if f.TeamID != "" && f.TeamID != "all" && !globalEvent(e.Type()) {
			if e.TeamID() != f.TeamID && !contains(e.Recipients(), f.TeamID) {
				continue
			}
		}

		switch f.Category {
		case "injects":
			if !strings.HasPrefix(string(e.Type()), "inject.") {
				continue
			}
		case "exercise":
			if !strings.HasPrefix(string(e.Type()), "exercise.") {
				continue
			}
		case "actions":
			if e.Type() != EventInjectAcknowledged {
				continue
			}
		}

		if query != "" && !strings.Contains(eventHaystack(e), query) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// eventHaystack joins the searchable text of an event, lowercased.
func eventHaystack(e TimelineEvent) string {
	var pieces []string
	if t := e.Title(); t != "" {
		pieces = append(pieces, t)
	}
	switch d := e.Data.(type) {
	case InjectAcknowledged:
		if d.ActorName != "" {
			pieces = append(pieces, d.ActorName)
		}
	case InjectSent:
		pieces = append(pieces, strings.Join(d.Objectives, " "), strings.Join(d.Capabilities, " "))
	case InjectSentGroup:
		pieces = append(pieces, strings.Join(d.Objectives, " "), strings.Join(d.Capabilities, " "))
	case InjectQueued:
		pieces = append(pieces, strings.Join(d.Objectives, " "), strings.Join(d.Capabilities, " "))
	case InjectQueuedGroup:
		pieces = append(pieces, strings.Join(d.Objectives, " "), strings.Join(d.Capabilities, " "))
	}
	return strings.ToLower(strings.Join(pieces, " "))
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
