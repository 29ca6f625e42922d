package exercise

import (
	"testing"
	"time"
)

// fixedClock pins the state clock so timestamps are predictable.
func fixedClock(s *State, at time.Time) {
	s.Now = func() time.Time { return at }
}

func liveState(t *testing.T) *State {
	t.Helper()
	s := NewState(nil)
	fixedClock(s, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	if got := s.Start(); len(got) != 1 {
		t.Fatalf("expected one start event, got %d", len(got))
	}
	return s
}

func TestSendHotSingleTeam(t *testing.T) {
	s := liveState(t)

	events := s.SendHot(InjectRequest{Title: "Hospital surge", Body: "ED at capacity", TeamIDs: []string{"team_eoc"}})
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].Type() != EventInjectSent {
		t.Errorf("expected inject.sent, got %s", events[0].Type())
	}

	injects := s.Injects()
	if len(injects) != 1 {
		t.Fatalf("expected one inject, got %d", len(injects))
	}
	inj := injects[0]
	if inj.Status != StatusSent || inj.TeamID != "team_eoc" || inj.GroupID != "" {
		t.Errorf("unexpected inject: %+v", inj)
	}
	if inj.All {
		t.Errorf("single-team send must not carry the all flag")
	}

	box := s.Inbox("team_eoc")
	if len(box) != 1 || box[0].ID != inj.ID {
		t.Errorf("expected inject delivered to EOC inbox, got %+v", box)
	}
	if len(s.Inbox("team_lab")) != 0 {
		t.Errorf("lab inbox should be empty")
	}
}

func TestSendHotGroup(t *testing.T) {
	s := liveState(t)

	events := s.SendHot(InjectRequest{Title: "Joint briefing", TeamIDs: []string{"team_eoc", "team_lab", "team_comm"}})
	if len(events) != 1 {
		t.Fatalf("expected one group event, got %d", len(events))
	}
	if events[0].Type() != EventInjectSentGroup {
		t.Errorf("expected inject.sent.group, got %s", events[0].Type())
	}

	injects := s.Injects()
	if len(injects) != 3 {
		t.Fatalf("expected three variants, got %d", len(injects))
	}
	groupID := injects[0].GroupID
	if groupID == "" {
		t.Fatalf("group send must assign a group id")
	}
	masters := 0
	for _, inj := range injects {
		if inj.GroupID != groupID {
			t.Errorf("variant %s has group id %q, want %q", inj.ID, inj.GroupID, groupID)
		}
		if len(inj.Recipients) != 3 {
			t.Errorf("variant %s recipients = %v", inj.ID, inj.Recipients)
		}
		if inj.All {
			t.Errorf("three of four teams must not set the all flag")
		}
		if inj.GroupMaster {
			masters++
		}
	}
	if masters != 1 {
		t.Errorf("expected exactly one group master, got %d", masters)
	}

	for _, tid := range []string{"team_eoc", "team_lab", "team_comm"} {
		if len(s.Inbox(tid)) != 1 {
			t.Errorf("expected delivery to %s", tid)
		}
	}
	if len(s.Inbox("team_field")) != 0 {
		t.Errorf("field inbox should be empty")
	}
}

func TestSendHotAllTeams(t *testing.T) {
	s := liveState(t)

	s.SendHot(InjectRequest{Title: "Sitrep", TeamIDs: []string{"team_eoc", "team_lab", "team_comm", "team_field"}})
	for _, inj := range s.Injects() {
		if !inj.All {
			t.Errorf("targeting every team must set the all flag on %s", inj.ID)
		}
	}
}

func TestSendHotRejectsInvalid(t *testing.T) {
	s := liveState(t)

	if got := s.SendHot(InjectRequest{Title: "   ", TeamIDs: []string{"team_eoc"}}); got != nil {
		t.Errorf("blank title must be a no-op")
	}
	if got := s.SendHot(InjectRequest{Title: "No targets"}); got != nil {
		t.Errorf("empty team list must be a no-op")
	}
	if len(s.Injects()) != 0 {
		t.Errorf("no injects should exist after rejected sends")
	}
}

func TestSendHotRequiresLive(t *testing.T) {
	s := NewState(nil)
	if got := s.SendHot(InjectRequest{Title: "Too early", TeamIDs: []string{"team_eoc"}}); got != nil {
		t.Errorf("sending in draft must be a no-op")
	}
	s.Start()
	s.End()
	if got := s.SendHot(InjectRequest{Title: "Too late", TeamIDs: []string{"team_eoc"}}); got != nil {
		t.Errorf("sending after end must be a no-op")
	}
}

func TestScheduleQueuesWithoutDelivery(t *testing.T) {
	s := liveState(t)

	due := FormatTime(time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC))
	events := s.Schedule(InjectRequest{Title: "Press conference", TeamIDs: []string{"team_comm"}, ScheduledFor: due})
	if len(events) != 1 || events[0].Type() != EventInjectQueued {
		t.Fatalf("expected one inject.queued event, got %+v", events)
	}

	queued := s.QueuedInjects()
	if len(queued) != 1 {
		t.Fatalf("expected one queued inject, got %d", len(queued))
	}
	if queued[0].ScheduledFor != due {
		t.Errorf("scheduled time = %q, want %q", queued[0].ScheduledFor, due)
	}
	if len(s.Inbox("team_comm")) != 0 {
		t.Errorf("queued injects must not reach an inbox before dispatch")
	}
}

func TestScheduleRequiresTime(t *testing.T) {
	s := liveState(t)
	if got := s.Schedule(InjectRequest{Title: "No time", TeamIDs: []string{"team_eoc"}}); got != nil {
		t.Errorf("schedule without a time must be a no-op")
	}
}

func TestScheduleGroupEvent(t *testing.T) {
	s := liveState(t)
	due := FormatTime(time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC))
	events := s.Schedule(InjectRequest{Title: "Joint drill", TeamIDs: []string{"team_eoc", "team_field"}, ScheduledFor: due})
	if len(events) != 1 || events[0].Type() != EventInjectQueuedGroup {
		t.Fatalf("expected inject.queued.group, got %+v", events)
	}
}

func TestRecallSingleInject(t *testing.T) {
	s := liveState(t)
	s.SendHot(InjectRequest{Title: "Wrong inject", TeamIDs: []string{"team_lab"}})
	id := s.Injects()[0].ID

	events := s.Recall(id)
	if len(events) != 1 || events[0].Type() != EventInjectRecalled {
		t.Fatalf("expected inject.recalled, got %+v", events)
	}
	data := events[0].Data.(InjectRecalled)
	if len(data.InjectIDs) != 1 || data.InjectIDs[0] != id {
		t.Errorf("recall event ids = %v, want [%s]", data.InjectIDs, id)
	}
	if data.Title != "Wrong inject" {
		t.Errorf("recall event title = %q", data.Title)
	}

	inj, _ := s.Inject(id)
	if inj.Status != StatusRecalled {
		t.Errorf("status = %s, want recalled", inj.Status)
	}
	if len(s.Inbox("team_lab")) != 0 {
		t.Errorf("recalled inject must leave the inbox")
	}
}

func TestRecallGroupCascades(t *testing.T) {
	s := liveState(t)
	s.SendHot(InjectRequest{Title: "Group send", TeamIDs: []string{"team_eoc", "team_lab"}})
	groupID := s.Injects()[0].GroupID

	events := s.Recall(groupID)
	if len(events) != 1 {
		t.Fatalf("expected one recall event, got %d", len(events))
	}
	data := events[0].Data.(InjectRecalled)
	if len(data.InjectIDs) != 2 {
		t.Errorf("expected both variants recalled, got %v", data.InjectIDs)
	}
	for _, inj := range s.Injects() {
		if inj.Status != StatusRecalled {
			t.Errorf("variant %s still %s", inj.ID, inj.Status)
		}
	}
	for _, tid := range []string{"team_eoc", "team_lab"} {
		if len(s.Inbox(tid)) != 0 {
			t.Errorf("inbox %s still holds the recalled inject", tid)
		}
	}
}

func TestRecallUnknownID(t *testing.T) {
	s := liveState(t)
	if got := s.Recall("nope"); got != nil {
		t.Errorf("recalling an unknown id must be a no-op")
	}
	if len(s.Timeline()) != 1 { // only exercise.started
		t.Errorf("no event should be logged for an unknown recall")
	}
}

func TestLifecycleGating(t *testing.T) {
	s := NewState(nil)
	if got := s.End(); got != nil {
		t.Errorf("ending a draft must be a no-op")
	}
	if got := s.Pause(); got != nil {
		t.Errorf("pausing a draft must be a no-op")
	}
	if got := s.Resume(); got != nil {
		t.Errorf("resuming a draft must be a no-op")
	}

	if got := s.Start(); len(got) != 1 {
		t.Fatalf("start from draft should emit one event")
	}
	if s.Status() != StatusLive || s.StartAt() == "" {
		t.Errorf("expected live with a start timestamp")
	}
	if got := s.Start(); got != nil {
		t.Errorf("starting twice must be a no-op")
	}

	if got := s.Pause(); len(got) != 1 {
		t.Errorf("pause while live should emit one event")
	}
	if got := s.Pause(); got != nil {
		t.Errorf("pausing twice must be a no-op")
	}
	if got := s.Resume(); len(got) != 1 {
		t.Errorf("resume should emit one event")
	}

	if got := s.End(); len(got) != 1 {
		t.Errorf("end while live should emit one event")
	}
	if s.Status() != StatusEnded || s.EndAt() == "" {
		t.Errorf("expected ended with an end timestamp")
	}
	if got := s.Start(); got != nil {
		t.Errorf("ended is terminal, restart must be a no-op")
	}
	if got := s.Pause(); got != nil {
		t.Errorf("pausing an ended exercise must be a no-op")
	}
}

func TestAcknowledgeOncePerTeam(t *testing.T) {
	s := liveState(t)
	s.SendHot(InjectRequest{Title: "Sample backlog", TeamIDs: []string{"team_lab"}})
	id := s.Injects()[0].ID

	events := s.Acknowledge(id, "team_lab", "Dana", "Sample backlog")
	if len(events) != 1 || events[0].Type() != EventInjectAcknowledged {
		t.Fatalf("expected inject.acknowledged, got %+v", events)
	}
	if len(s.Actions()) != 1 {
		t.Fatalf("expected one ledger row")
	}

	// Same pair again: no new row, no new event.
	before := len(s.Timeline())
	if got := s.Acknowledge(id, "team_lab", "Someone else", "Sample backlog"); got != nil {
		t.Errorf("duplicate acknowledgement must be suppressed")
	}
	if len(s.Actions()) != 1 {
		t.Errorf("duplicate acknowledgement must not add a ledger row")
	}
	if len(s.Timeline()) != before {
		t.Errorf("duplicate acknowledgement must not add a timeline event")
	}

	// Another team acknowledging the same inject id is a distinct pair.
	if got := s.Acknowledge(id, "team_eoc", "Alex", "Sample backlog"); len(got) != 1 {
		t.Errorf("different team should be allowed to acknowledge")
	}
}

func TestAcknowledgeAfterEnd(t *testing.T) {
	s := liveState(t)
	s.SendHot(InjectRequest{Title: "Late ack", TeamIDs: []string{"team_eoc"}})
	id := s.Injects()[0].ID
	s.End()
	if got := s.Acknowledge(id, "team_eoc", "Alex", "Late ack"); got != nil {
		t.Errorf("acknowledgements must be rejected once ended")
	}
}

func TestSetEvaluation(t *testing.T) {
	s := liveState(t)
	s.SendHot(InjectRequest{Title: "Eval target", TeamIDs: []string{"team_eoc"}})
	id := s.Injects()[0].ID

	if !s.SetEvaluation(id, RatingAchieved, "solid response") {
		t.Fatalf("expected evaluation to apply")
	}
	inj, _ := s.Inject(id)
	if inj.EvaluationRating != RatingAchieved || inj.EvaluationNotes != "solid response" {
		t.Errorf("evaluation not stored: %+v", inj)
	}

	if s.SetEvaluation(id, "amazing", "") {
		t.Errorf("unknown rating must be rejected")
	}
	if s.SetEvaluation("missing", RatingAchieved, "") {
		t.Errorf("unknown inject must be rejected")
	}
	if !s.SetEvaluation(id, "", "notes only") {
		t.Errorf("clearing the rating with notes should be allowed")
	}
}

func TestUpdateWorldState(t *testing.T) {
	s := liveState(t)
	trend := TrendWorsening
	high := 42
	if !s.UpdateWorldState(WorldStatePatch{EpiTrend: &trend, CommsPressure: &high}) {
		t.Fatalf("expected world update to apply")
	}
	w := s.World()
	if w.EpiTrend != TrendWorsening {
		t.Errorf("trend = %s", w.EpiTrend)
	}
	if w.CommsPressure != 10 {
		t.Errorf("pressure must clamp to 10, got %d", w.CommsPressure)
	}

	neg := -3
	s.UpdateWorldState(WorldStatePatch{LabBacklog: &neg})
	if got := s.World().LabBacklog; got != 0 {
		t.Errorf("pressure must clamp to 0, got %d", got)
	}

	s.End()
	if s.UpdateWorldState(WorldStatePatch{EpiTrend: &trend}) {
		t.Errorf("world state must freeze after end")
	}
}

func TestUpdateDefinitionDraftOnly(t *testing.T) {
	s := NewState(nil)
	name := "District outbreak tabletop"
	typ := TypeFunctional
	if !s.UpdateDefinition(DefinitionPatch{Name: &name, Type: &typ}) {
		t.Fatalf("expected definition update in draft")
	}
	def := s.Definition()
	if def.Name != name || def.Type != typ {
		t.Errorf("definition not applied: %+v", def)
	}

	s.Start()
	other := "Renamed"
	if s.UpdateDefinition(DefinitionPatch{Name: &other}) {
		t.Errorf("definition must lock once live")
	}
}

func TestSetPhasesDropsBlanks(t *testing.T) {
	s := NewState(nil)
	s.SetPhases([]string{"Detection", "", "Response"})
	got := s.Phases()
	if len(got) != 2 || got[0] != "Detection" || got[1] != "Response" {
		t.Errorf("phases = %v", got)
	}
}

func TestParticipantControls(t *testing.T) {
	s := NewState(nil)
	if s.SetParticipantTeam("team_ghost") {
		t.Errorf("unknown team must be rejected")
	}
	if !s.SetParticipantTeam("team_field") {
		t.Fatalf("known team must be accepted")
	}
	if got := s.ParticipantTeam(); got != "team_field" {
		t.Errorf("participant team = %s", got)
	}

	if s.SetParticipantMode("invisible") {
		t.Errorf("unknown mode must be rejected")
	}
	if !s.SetParticipantMode(ModeGlobal) {
		t.Errorf("global mode must be accepted")
	}

	s.SetParticipantIdentity("Dana", "Lab lead", true)
	name, role, locked := s.ParticipantIdentity()
	if name != "Dana" || role != "Lab lead" || !locked {
		t.Errorf("identity = %q %q %v", name, role, locked)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	s := liveState(t)
	s.SendHot(InjectRequest{Title: "Before reset", TeamIDs: []string{"team_eoc"}})
	s.SetParticipantIdentity("Dana", "Lab", true)

	s.Reset()
	if s.Status() != StatusDraft || s.Paused() {
		t.Errorf("reset must return to a fresh draft")
	}
	if len(s.Injects()) != 0 || len(s.Timeline()) != 0 || len(s.Actions()) != 0 {
		t.Errorf("reset must clear every collection")
	}
	if len(s.Inbox("team_eoc")) != 0 {
		t.Errorf("reset must clear inboxes")
	}
	name, _, locked := s.ParticipantIdentity()
	if name != "" || locked {
		t.Errorf("reset must clear the participant identity")
	}
	if s.Definition() != DefaultExercise() {
		t.Errorf("reset must restore the default definition")
	}
}

func TestTimestampsUseStateClock(t *testing.T) {
	s := NewState(nil)
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	fixedClock(s, at)
	s.Start()
	s.SendHot(InjectRequest{Title: "Clock check", TeamIDs: []string{"team_eoc"}})

	want := FormatTime(at)
	if got := s.StartAt(); got != want {
		t.Errorf("startAt = %q, want %q", got, want)
	}
	if got := s.Injects()[0].Ts; got != want {
		t.Errorf("inject ts = %q, want %q", got, want)
	}
	if got := s.Timeline()[0].Ts; got != want {
		t.Errorf("event ts = %q, want %q", got, want)
	}
}
