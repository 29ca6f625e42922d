// Persisted snapshot contract: stores hold a single JSON document under a
// fixed key; loads are defensive so a damaged snapshot degrades to defaults
// instead of failing the session.
package snapshot

import (
	"encoding/json"

	"simexerciser/internal/exercise"
)

// Key is the fixed storage key for the one snapshot every store holds.
const Key = "simexit_mvp_state_v1"

// Store persists and retrieves the exercise snapshot. Load returns (nil,
// nil) when no snapshot exists yet.
type Store interface {
	Load() (*exercise.Snapshot, error)
	Save(exercise.Snapshot) error
	Clear() error
}

// Decode parses a snapshot document field by field. A field that fails to
// decode is dropped (its default applies on Restore); only a document that
// is not a JSON object at all is an error. Timeline entries are decoded
// individually so one unknown event type does not take the log down.
func Decode(data []byte) (*exercise.Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	var snap exercise.Snapshot
	field := func(key string, dst any) {
		raw, ok := fields[key]
		if !ok {
			return
		}
		// Best effort: a malformed field keeps its zero value.
		_ = json.Unmarshal(raw, dst)
	}

	field("injects", &snap.Injects)
	field("inboxes", &snap.Inboxes)
	field("paused", &snap.Paused)
	field("participantTeamId", &snap.ParticipantTeamID)
	field("participantTimelineMode", &snap.ParticipantMode)
	field("participantName", &snap.ParticipantName)
	field("participantRole", &snap.ParticipantRole)
	field("participantLocked", &snap.ParticipantLocked)
	field("worldState", &snap.World)
	field("participantActions", &snap.ParticipantActions)
	field("exerciseDef", &snap.Definition)
	field("exerciseStatus", &snap.Status)
	field("exerciseStartAt", &snap.StartAt)
	field("exerciseEndAt", &snap.EndAt)
	field("exercisePhases", &snap.Phases)

	if raw, ok := fields["timeline"]; ok {
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err == nil {
			for _, entry := range entries {
				var evt exercise.TimelineEvent
				if err := json.Unmarshal(entry, &evt); err == nil {
					snap.Timeline = append(snap.Timeline, evt)
				}
			}
		}
	}

	return &snap, nil
}

// Encode renders the snapshot document.
func Encode(snap exercise.Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}
