package sim

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"simexerciser/internal/exercise"
)

func sampleEvents() []exercise.TimelineEvent {
	return []exercise.TimelineEvent{
		{
			ID: "e1",
			Ts: "2026-03-01T10:00:00Z",
			Data: exercise.InjectSentGroup{
				Title:      "Joint drill",
				Recipients: []string{"team_eoc", "team_lab"},
			},
		},
		{
			ID:   "e2",
			Ts:   "2026-03-01T10:00:30Z",
			Data: exercise.InjectAcknowledged{InjectID: "i1", TeamID: "team_lab", Title: "Joint drill", ActorName: "Dana"},
		},
	}
}

func TestFileWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.log")
	fw, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := fw.WriteEvents(sampleEvents()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSONL lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"type":"inject.sent.group"`) {
		t.Errorf("first line = %s", lines[0])
	}
}

func TestMultiWriterFanout(t *testing.T) {
	a := &MockWriter{}
	b := &MockWriter{}
	mw := NewMultiWriter(a, nil, b)

	events := sampleEvents()
	if err := mw.WriteEvents(events); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(a.Events) != 2 || len(b.Events) != 2 {
		t.Errorf("fanout = %d/%d, want 2/2", len(a.Events), len(b.Events))
	}
}

func TestMultiWriterContinuesPastFailure(t *testing.T) {
	failing := &MockWriter{Err: errors.New("sink down")}
	ok := &MockWriter{}
	mw := NewMultiWriter(failing, ok)

	err := mw.WriteEvent(sampleEvents()[0])
	if err == nil {
		t.Fatalf("expected the failure to surface")
	}
	if len(ok.Events) != 1 {
		t.Errorf("healthy sink must still receive the event")
	}
}

func TestFormatEventLine(t *testing.T) {
	cases := []struct {
		evt  exercise.TimelineEvent
		want string
	}{
		{
			evt:  exercise.TimelineEvent{Ts: "t", Data: exercise.InjectSent{Title: "Surge", TeamID: "team_eoc"}},
			want: `"Surge" -> team_eoc`,
		},
		{
			evt:  exercise.TimelineEvent{Ts: "t", Data: exercise.InjectSentGroup{Title: "Drill", All: true}},
			want: `"Drill" -> all teams`,
		},
		{
			evt:  exercise.TimelineEvent{Ts: "t", Data: exercise.InjectRecalled{Title: "Oops", InjectIDs: []string{"a", "b"}}},
			want: `"Oops" (2 variant(s))`,
		},
		{
			evt:  exercise.TimelineEvent{Ts: "t", Data: exercise.InjectAcknowledged{Title: "Surge", TeamID: "team_lab", ActorName: "Dana"}},
			want: `"Surge" by team_lab (Dana)`,
		},
		{
			evt:  exercise.TimelineEvent{Ts: "t", Data: exercise.ExerciseStarted{}},
			want: "exercise.started",
		},
	}
	for _, c := range cases {
		got := FormatEventLine(c.evt)
		if !strings.Contains(got, c.want) {
			t.Errorf("line %q missing %q", got, c.want)
		}
	}
}
