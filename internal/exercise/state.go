package exercise

import (
	"time"

	"github.com/google/uuid"
)

// State owns every collection in the simulator. All mutation goes through
// operations; accessors hand out copies so observers never alias live slices.
// State is not safe for concurrent use on its own, callers serialize access
// (the engine holds one mutex around every tick and operation).
type State struct {
	// Now supplies the clock and can be swapped in tests.
	Now func() time.Time

	teams []Team

	injects  []Inject            // most-recent-first
	inboxes  map[string][]Inject // teamID -> delivered injects, most-recent-first
	timeline []TimelineEvent     // most-recent-first
	actions  []ParticipantAction // most-recent-first

	paused  bool
	status  ExerciseStatus
	startAt string
	endAt   string

	def    ExerciseDefinition
	world  WorldState
	phases []string

	participantTeamID string
	participantMode   TimelineMode
	participantName   string
	participantRole   string
	participantLocked bool
}

// NewState returns a fresh draft exercise over the given team registry.
// An empty registry falls back to the default teams.
func NewState(teams []Team) *State {
	if len(teams) == 0 {
		teams = DefaultTeams()
	}
	s := &State{Now: time.Now, teams: teams}
	s.resetCollections()
	return s
}

func (s *State) resetCollections() {
	s.injects = nil
	s.inboxes = make(map[string][]Inject, len(s.teams))
	for _, t := range s.teams {
		s.inboxes[t.ID] = nil
	}
	s.timeline = nil
	s.actions = nil
	s.paused = false
	s.status = StatusDraft
	s.startAt = ""
	s.endAt = ""
	s.def = DefaultExercise()
	s.world = DefaultWorldState()
	s.phases = DefaultPhases()
	s.participantTeamID = s.teams[0].ID
	s.participantMode = ModeTeam
	s.participantName = ""
	s.participantRole = ""
	s.participantLocked = false
}

// Reset reinitializes everything to defaults. The caller is responsible for
// clearing the persisted snapshot alongside.
func (s *State) Reset() {
	s.resetCollections()
}

func (s *State) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Clock returns the current instant from the state's clock source.
func (s *State) Clock() time.Time { return s.now() }

func newID() string { return uuid.NewString() }

// appendEvent stamps and prepends a timeline event, returning it for fanout.
func (s *State) appendEvent(data EventData) TimelineEvent {
	return s.appendEventAt(data, FormatTime(s.now()))
}

func (s *State) appendEventAt(data EventData, ts string) TimelineEvent {
	evt := TimelineEvent{ID: newID(), Ts: ts, Data: data}
	s.timeline = append([]TimelineEvent{evt}, s.timeline...)
	return evt
}

// InjectRequest carries the facilitator input for a hot or scheduled send.
type InjectRequest struct {
	Title        string
	Body         string
	TeamIDs      []string
	ScheduledFor string // required by Schedule, ignored by SendHot
	Objectives   []string
	Capabilities []string
	Phase        string
}

func (r InjectRequest) valid() bool {
	if len(r.TeamIDs) == 0 {
		return false
	}
	for _, c := range r.Title {
		if c != ' ' && c != '\t' && c != '\n' {
			return true
		}
	}
	return false
}

// buildInjects creates one variant per target team. Multi-team sends share a
// fresh group id, identical recipients, and exactly one group master.
func (s *State) buildInjects(r InjectRequest, status InjectStatus, ts string) []Inject {
	isAll := len(r.TeamIDs) == len(s.teams)
	groupID := ""
	if len(r.TeamIDs) > 1 {
		groupID = newID()
	}
	out := make([]Inject, 0, len(r.TeamIDs))
	for i, tid := range r.TeamIDs {
		inj := Inject{
			ID:           newID(),
			GroupID:      groupID,
			Title:        r.Title,
			Body:         r.Body,
			TeamID:       tid,
			Status:       status,
			Ts:           ts,
			All:          isAll,
			GroupMaster:  groupID != "" && i == 0,
			Recipients:   append([]string(nil), r.TeamIDs...),
			Objectives:   r.Objectives,
			Capabilities: r.Capabilities,
			Phase:        r.Phase,
		}
		if status == StatusQueued {
			inj.ScheduledFor = r.ScheduledFor
		}
		out = append(out, inj)
	}
	return out
}

// SendHot dispatches an inject immediately to every target team. Invalid
// input or a non-live exercise is a silent no-op. Returns the emitted
// timeline events.
func (s *State) SendHot(r InjectRequest) []TimelineEvent {
	if s.status != StatusLive || !r.valid() {
		return nil
	}
	ts := FormatTime(s.now())
	created := s.buildInjects(r, StatusSent, ts)
	s.injects = append(created, s.injects...)
	for _, inj := range created {
		s.inboxes[inj.TeamID] = append([]Inject{inj}, s.inboxes[inj.TeamID]...)
	}

	master := created[0]
	var evt TimelineEvent
	if master.GroupID != "" {
		evt = s.appendEvent(InjectSentGroup{
			Title:        master.Title,
			Recipients:   master.Recipients,
			All:          master.All,
			Objectives:   master.Objectives,
			Capabilities: master.Capabilities,
		})
	} else {
		evt = s.appendEvent(InjectSent{
			Title:        master.Title,
			TeamID:       master.TeamID,
			Objectives:   master.Objectives,
			Capabilities: master.Capabilities,
		})
	}
	return []TimelineEvent{evt}
}

// Schedule queues an inject for future dispatch. The scheduled time is stored
// as given; the dispatcher treats a value that fails to parse as never due.
func (s *State) Schedule(r InjectRequest) []TimelineEvent {
	if s.status != StatusLive || !r.valid() || r.ScheduledFor == "" {
		return nil
	}
	ts := FormatTime(s.now())
	created := s.buildInjects(r, StatusQueued, ts)
	s.injects = append(created, s.injects...)

	master := created[0]
	var evt TimelineEvent
	if master.GroupID != "" {
		evt = s.appendEvent(InjectQueuedGroup{
			Title:        master.Title,
			Recipients:   master.Recipients,
			All:          master.All,
			ScheduledAt:  r.ScheduledFor,
			Objectives:   master.Objectives,
			Capabilities: master.Capabilities,
		})
	} else {
		evt = s.appendEvent(InjectQueued{
			Title:        master.Title,
			TeamID:       master.TeamID,
			ScheduledAt:  r.ScheduledFor,
			Objectives:   master.Objectives,
			Capabilities: master.Capabilities,
		})
	}
	return []TimelineEvent{evt}
}

// Recall withdraws an inject or a whole group. The argument may be an inject
// id or a group id; group recalls cascade to every variant. Matched injects
// leave every inbox and end up recalled regardless of prior status. The store
// accepts a recall at any time; the 30s window is a display gate only.
func (s *State) Recall(idOrGroupID string) []TimelineEvent {
	ids, title := s.resolveRecall(idOrGroupID)
	if len(ids) == 0 {
		return nil
	}
	member := make(map[string]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}

	for tid, box := range s.inboxes {
		kept := box[:0]
		for _, inj := range box {
			if !member[inj.ID] {
				kept = append(kept, inj)
			}
		}
		s.inboxes[tid] = kept
	}

	ts := FormatTime(s.now())
	for i := range s.injects {
		if member[s.injects[i].ID] {
			s.injects[i].Status = StatusRecalled
			s.injects[i].Ts = ts
		}
	}

	evt := s.appendEvent(InjectRecalled{InjectIDs: ids, Title: title})
	return []TimelineEvent{evt}
}

// Start moves the exercise from draft to live.
func (s *State) Start() []TimelineEvent {
	if s.status != StatusDraft {
		return nil
	}
	s.status = StatusLive
	s.startAt = FormatTime(s.now())
	s.endAt = ""
	return []TimelineEvent{s.appendEvent(ExerciseStarted{})}
}

// End moves the exercise from live to ended. Ended is terminal.
func (s *State) End() []TimelineEvent {
	if s.status != StatusLive {
		return nil
	}
	s.status = StatusEnded
	s.endAt = FormatTime(s.now())
	return []TimelineEvent{s.appendEvent(ExerciseEnded{})}
}

// Pause suspends dispatch. Only meaningful while live.
func (s *State) Pause() []TimelineEvent {
	if s.paused || s.status != StatusLive {
		return nil
	}
	s.paused = true
	return []TimelineEvent{s.appendEvent(ExercisePaused{})}
}

// Resume lifts a pause.
func (s *State) Resume() []TimelineEvent {
	if !s.paused || s.status != StatusLive {
		return nil
	}
	s.paused = false
	return []TimelineEvent{s.appendEvent(ExerciseResumed{})}
}

// Acknowledge records a participant acknowledgement. Duplicate calls for the
// same (inject, team) pair add no ledger row and emit no timeline event.
// Acknowledgements are rejected once the exercise has ended.
func (s *State) Acknowledge(injectID, teamID, actorName, title string) []TimelineEvent {
	if s.status == StatusEnded || injectID == "" || teamID == "" {
		return nil
	}
	for _, a := range s.actions {
		if a.InjectID == injectID && a.TeamID == teamID && a.Type == ActionAcknowledged {
			return nil
		}
	}
	action := ParticipantAction{
		ID:        newID(),
		Ts:        FormatTime(s.now()),
		InjectID:  injectID,
		TeamID:    teamID,
		ActorName: actorName,
		Type:      ActionAcknowledged,
	}
	s.actions = append([]ParticipantAction{action}, s.actions...)

	evt := s.appendEvent(InjectAcknowledged{
		InjectID:   injectID,
		TeamID:     teamID,
		Title:      title,
		ActorName:  actorName,
		ActionType: ActionAcknowledged,
	})
	return []TimelineEvent{evt}
}

// SetEvaluation stores a facilitator evaluation on one inject.
func (s *State) SetEvaluation(injectID string, rating EvaluationRating, notes string) bool {
	if rating != "" && !ValidRating(rating) {
		return false
	}
	for i := range s.injects {
		if s.injects[i].ID == injectID {
			s.injects[i].EvaluationRating = rating
			s.injects[i].EvaluationNotes = notes
			return true
		}
	}
	return false
}

// WorldStatePatch updates a subset of the world state sliders.
type WorldStatePatch struct {
	EpiTrend      *EpiTrend
	CommsPressure *int
	LabBacklog    *int
	PublicAnxiety *int
}

// UpdateWorldState applies a patch, clamping pressures to [0,10]. The world
// state freezes once the exercise has ended.
func (s *State) UpdateWorldState(p WorldStatePatch) bool {
	if s.status == StatusEnded {
		return false
	}
	if p.EpiTrend != nil {
		s.world.EpiTrend = *p.EpiTrend
	}
	if p.CommsPressure != nil {
		s.world.CommsPressure = ClampPressure(*p.CommsPressure)
	}
	if p.LabBacklog != nil {
		s.world.LabBacklog = ClampPressure(*p.LabBacklog)
	}
	if p.PublicAnxiety != nil {
		s.world.PublicAnxiety = ClampPressure(*p.PublicAnxiety)
	}
	return true
}

// DefinitionPatch updates a subset of the exercise definition.
type DefinitionPatch struct {
	Name              *string
	Type              *ExerciseType
	Overview          *string
	PrimaryObjectives *string
}

// UpdateDefinition applies a patch. The definition locks as soon as the
// exercise leaves draft.
func (s *State) UpdateDefinition(p DefinitionPatch) bool {
	if s.status != StatusDraft {
		return false
	}
	if p.Name != nil {
		s.def.Name = *p.Name
	}
	if p.Type != nil {
		s.def.Type = *p.Type
	}
	if p.Overview != nil {
		s.def.Overview = *p.Overview
	}
	if p.PrimaryObjectives != nil {
		s.def.PrimaryObjectives = *p.PrimaryObjectives
	}
	return true
}

// SetPhases replaces the exercise phase list, dropping blank entries.
func (s *State) SetPhases(phases []string) {
	out := make([]string, 0, len(phases))
	for _, p := range phases {
		if p != "" {
			out = append(out, p)
		}
	}
	s.phases = out
}

// SetParticipantTeam switches the participant view to a known team.
func (s *State) SetParticipantTeam(teamID string) bool {
	if !s.knownTeam(teamID) {
		return false
	}
	s.participantTeamID = teamID
	return true
}

// SetParticipantMode sets the participant timeline visibility mode.
func (s *State) SetParticipantMode(mode TimelineMode) bool {
	switch mode {
	case ModeTeam, ModeGlobal, ModeHidden:
		s.participantMode = mode
		return true
	}
	return false
}

// SetParticipantIdentity records who is playing at the participant console.
func (s *State) SetParticipantIdentity(name, role string, locked bool) {
	s.participantName = name
	s.participantRole = role
	s.participantLocked = locked
}

func (s *State) knownTeam(id string) bool {
	for _, t := range s.teams {
		if t.ID == id {
			return true
		}
	}
	return false
}

// --- Read accessors ---

// Teams returns the team registry.
func (s *State) Teams() []Team {
	return append([]Team(nil), s.teams...)
}

// TeamName resolves a team id to its display name, falling back to the id.
func (s *State) TeamName(id string) string {
	for _, t := range s.teams {
		if t.ID == id {
			return t.Name
		}
	}
	return id
}

// Injects returns every inject ever created, most recent first.
func (s *State) Injects() []Inject {
	return append([]Inject(nil), s.injects...)
}

// SentInjects returns injects currently in sent status.
func (s *State) SentInjects() []Inject {
	return s.filterInjects(StatusSent)
}

// QueuedInjects returns injects awaiting dispatch.
func (s *State) QueuedInjects() []Inject {
	return s.filterInjects(StatusQueued)
}

func (s *State) filterInjects(status InjectStatus) []Inject {
	var out []Inject
	for _, inj := range s.injects {
		if inj.Status == status {
			out = append(out, inj)
		}
	}
	return out
}

// Inject looks up a single inject by id.
func (s *State) Inject(id string) (Inject, bool) {
	for _, inj := range s.injects {
		if inj.ID == id {
			return inj, true
		}
	}
	return Inject{}, false
}

// Inbox returns the delivered injects for one team, most recent first.
func (s *State) Inbox(teamID string) []Inject {
	return append([]Inject(nil), s.inboxes[teamID]...)
}

// Timeline returns the full event log, most recent first.
func (s *State) Timeline() []TimelineEvent {
	return append([]TimelineEvent(nil), s.timeline...)
}

// Actions returns the participant action ledger, most recent first.
func (s *State) Actions() []ParticipantAction {
	return append([]ParticipantAction(nil), s.actions...)
}

// Status returns the lifecycle state.
func (s *State) Status() ExerciseStatus { return s.status }

// Paused reports whether dispatch is suspended.
func (s *State) Paused() bool { return s.paused }

// StartAt returns the live transition timestamp, empty before start.
func (s *State) StartAt() string { return s.startAt }

// EndAt returns the ended transition timestamp, empty before end.
func (s *State) EndAt() string { return s.endAt }

// Definition returns the exercise definition.
func (s *State) Definition() ExerciseDefinition { return s.def }

// World returns the scenario world state.
func (s *State) World() WorldState { return s.world }

// Phases returns the exercise phase labels.
func (s *State) Phases() []string {
	return append([]string(nil), s.phases...)
}

// ParticipantTeam returns the team selected at the participant console.
func (s *State) ParticipantTeam() string { return s.participantTeamID }

// ParticipantMode returns the participant timeline visibility mode.
func (s *State) ParticipantMode() TimelineMode { return s.participantMode }

// ParticipantIdentity returns the participant name, role, and lock flag.
func (s *State) ParticipantIdentity() (name, role string, locked bool) {
	return s.participantName, s.participantRole, s.participantLocked
}
