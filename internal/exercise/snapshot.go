package exercise

import "sort"

// Snapshot is the persisted representation of the whole exercise state, a
// single JSON document. Field names are the stable wire contract.
type Snapshot struct {
	Injects            []Inject            `json:"injects"`
	Inboxes            map[string][]Inject `json:"inboxes"`
	Timeline           []TimelineEvent     `json:"timeline"`
	Paused             bool                `json:"paused"`
	ParticipantTeamID  string              `json:"participantTeamId"`
	ParticipantMode    TimelineMode        `json:"participantTimelineMode"`
	ParticipantName    string              `json:"participantName"`
	ParticipantRole    string              `json:"participantRole"`
	ParticipantLocked  bool                `json:"participantLocked"`
	World              WorldState          `json:"worldState"`
	ParticipantActions []ParticipantAction `json:"participantActions"`
	Definition         ExerciseDefinition  `json:"exerciseDef"`
	Status             ExerciseStatus      `json:"exerciseStatus"`
	StartAt            string              `json:"exerciseStartAt,omitempty"`
	EndAt              string              `json:"exerciseEndAt,omitempty"`
	Phases             []string            `json:"exercisePhases"`
}

// Snapshot captures the current state for persistence.
func (s *State) Snapshot() Snapshot {
	inboxes := make(map[string][]Inject, len(s.inboxes))
	for tid := range s.inboxes {
		inboxes[tid] = s.Inbox(tid)
	}
	return Snapshot{
		Injects:            s.Injects(),
		Inboxes:            inboxes,
		Timeline:           s.Timeline(),
		Paused:             s.paused,
		ParticipantTeamID:  s.participantTeamID,
		ParticipantMode:    s.participantMode,
		ParticipantName:    s.participantName,
		ParticipantRole:    s.participantRole,
		ParticipantLocked:  s.participantLocked,
		World:              s.world,
		ParticipantActions: s.Actions(),
		Definition:         s.def,
		Status:             s.status,
		StartAt:            s.startAt,
		EndAt:              s.endAt,
		Phases:             s.Phases(),
	}
}

// TeamsFromSnapshot reconstructs the team registry a snapshot was written
// under: the union of inbox keys, inject targets, and the participant team.
// Ids from the default registry keep their display names; anything else
// carries the id as its name. Use this when restoring a session without the
// configuration it ran with, Restore drops inboxes for unknown teams.
func TeamsFromSnapshot(snap Snapshot) []Team {
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" {
			seen[id] = true
		}
	}
	for tid := range snap.Inboxes {
		add(tid)
	}
	for _, inj := range snap.Injects {
		add(inj.TeamID)
		for _, r := range inj.Recipients {
			add(r)
		}
	}
	add(snap.ParticipantTeamID)
	if len(seen) == 0 {
		return nil
	}

	names := make(map[string]string)
	for _, t := range DefaultTeams() {
		names[t.ID] = t.Name
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	teams := make([]Team, 0, len(ids))
	for _, id := range ids {
		name := names[id]
		if name == "" {
			name = id
		}
		teams = append(teams, Team{ID: id, Name: name})
	}
	return teams
}

// Restore applies a snapshot on top of a fresh default state. Fields are
// validated individually: an out-of-range or unknown value falls back to its
// default instead of rejecting the whole snapshot.
func (s *State) Restore(snap Snapshot) {
	s.resetCollections()

	for _, inj := range snap.Injects {
		switch inj.Status {
		case StatusQueued, StatusSent, StatusRecalled:
			s.injects = append(s.injects, inj)
		}
	}
	for tid := range s.inboxes {
		if box, ok := snap.Inboxes[tid]; ok {
			s.inboxes[tid] = append([]Inject(nil), box...)
		}
	}
	s.timeline = append([]TimelineEvent(nil), snap.Timeline...)
	s.actions = append([]ParticipantAction(nil), snap.ParticipantActions...)
	s.paused = snap.Paused

	if s.knownTeam(snap.ParticipantTeamID) {
		s.participantTeamID = snap.ParticipantTeamID
	}
	switch snap.ParticipantMode {
	case ModeTeam, ModeGlobal, ModeHidden:
		s.participantMode = snap.ParticipantMode
	}
	s.participantName = snap.ParticipantName
	s.participantRole = snap.ParticipantRole
	s.participantLocked = snap.ParticipantLocked

	switch snap.World.EpiTrend {
	case TrendStable, TrendWorsening, TrendImproving:
		s.world.EpiTrend = snap.World.EpiTrend
	}
	s.world.CommsPressure = ClampPressure(snap.World.CommsPressure)
	s.world.LabBacklog = ClampPressure(snap.World.LabBacklog)
	s.world.PublicAnxiety = ClampPressure(snap.World.PublicAnxiety)

	if snap.Definition.Name != "" {
		s.def.Name = snap.Definition.Name
	}
	switch snap.Definition.Type {
	case TypeTabletop, TypeDrill, TypeFunctional, TypeFullScale:
		s.def.Type = snap.Definition.Type
	}
	s.def.Overview = snap.Definition.Overview
	s.def.PrimaryObjectives = snap.Definition.PrimaryObjectives

	switch snap.Status {
	case StatusDraft, StatusLive, StatusEnded:
		s.status = snap.Status
	}
	s.startAt = snap.StartAt
	s.endAt = snap.EndAt

	if len(snap.Phases) > 0 {
		s.SetPhases(snap.Phases)
	}
}
