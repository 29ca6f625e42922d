package exercise

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTimelineEventWireShape(t *testing.T) {
	evt := TimelineEvent{
		ID: "e1",
		Ts: "2026-03-01T10:00:00Z",
		Data: InjectSentGroup{
			Title:      "Joint drill",
			Recipients: []string{"team_eoc", "team_lab"},
			All:        false,
			Objectives: []string{"triage"},
		},
	}
	b, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"type":"inject.sent.group"`, `"title":"Joint drill"`, `"recipients":["team_eoc","team_lab"]`} {
		if !strings.Contains(s, want) {
			t.Errorf("wire shape missing %s in %s", want, s)
		}
	}
	if strings.Contains(s, `"all"`) {
		t.Errorf("false all flag should be omitted: %s", s)
	}

	var back TimelineEvent
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	d, ok := back.Data.(InjectSentGroup)
	if !ok {
		t.Fatalf("payload decoded as %T", back.Data)
	}
	if d.Title != "Joint drill" || len(d.Recipients) != 2 || len(d.Objectives) != 1 {
		t.Errorf("round trip lost fields: %+v", d)
	}
}

func TestTimelineEventAcknowledgedRoundTrip(t *testing.T) {
	evt := TimelineEvent{
		ID: "e2",
		Ts: "2026-03-01T10:05:00Z",
		Data: InjectAcknowledged{
			InjectID:   "i1",
			TeamID:     "team_lab",
			Title:      "Sample backlog",
			ActorName:  "Dana",
			ActionType: ActionAcknowledged,
		},
	}
	b, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back TimelineEvent
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	d, ok := back.Data.(InjectAcknowledged)
	if !ok {
		t.Fatalf("payload decoded as %T", back.Data)
	}
	if d != evt.Data.(InjectAcknowledged) {
		t.Errorf("round trip mismatch: %+v", d)
	}
}

func TestTimelineEventLifecycleRoundTrip(t *testing.T) {
	evt := TimelineEvent{ID: "e3", Ts: "2026-03-01T10:10:00Z", Data: ExercisePaused{}}
	b, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back TimelineEvent
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Type() != EventExercisePaused || back.ID != "e3" {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestTimelineEventRecalledLegacySingleID(t *testing.T) {
	// Older logs carried a single injectId instead of injectIds.
	var evt TimelineEvent
	raw := `{"id":"e4","ts":"2026-03-01T10:15:00Z","type":"inject.recalled","injectId":"i9","title":"Oops"}`
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	d, ok := evt.Data.(InjectRecalled)
	if !ok {
		t.Fatalf("payload decoded as %T", evt.Data)
	}
	if len(d.InjectIDs) != 1 || d.InjectIDs[0] != "i9" {
		t.Errorf("legacy injectId not lifted: %+v", d)
	}
}

func TestTimelineEventUnknownType(t *testing.T) {
	var evt TimelineEvent
	err := json.Unmarshal([]byte(`{"id":"e5","ts":"x","type":"inject.exploded"}`), &evt)
	if err == nil {
		t.Fatalf("unknown event type must fail to decode")
	}
}

func TestTimelineEventNilPayload(t *testing.T) {
	if _, err := json.Marshal(TimelineEvent{ID: "e6"}); err == nil {
		t.Errorf("marshalling an event without payload must fail")
	}
}
