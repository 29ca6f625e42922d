package exercise

import "time"

// AdvanceResult reports what one dispatch pass changed.
type AdvanceResult struct {
	Promoted []Inject        // injects that transitioned queued -> sent, in scan order
	Events   []TimelineEvent // emitted timeline events, one per single, one per group
}

// Changed reports whether the pass touched the store at all.
func (r AdvanceResult) Changed() bool { return len(r.Promoted) > 0 }

// Advance runs one dispatch pass at the given instant: every queued inject
// whose scheduled time is due is promoted to sent, delivered to its team
// inbox, and logged. A scheduled time that fails to parse is never due. The
// pass is a no-op unless the exercise is live and not paused, and it is
// deterministic in now, which is what the tests feed with synthetic clocks.
func (s *State) Advance(now time.Time) AdvanceResult {
	if s.status != StatusLive || s.paused {
		return AdvanceResult{}
	}

	ts := FormatTime(now)
	var staged []Inject
	for i := range s.injects {
		inj := &s.injects[i]
		if inj.Status != StatusQueued || inj.ScheduledFor == "" {
			continue
		}
		due, ok := ParseTime(inj.ScheduledFor)
		if !ok || now.Before(due) {
			continue
		}
		inj.Status = StatusSent
		inj.Ts = ts
		staged = append(staged, *inj)
	}
	if len(staged) == 0 {
		return AdvanceResult{}
	}

	for _, inj := range staged {
		s.inboxes[inj.TeamID] = append([]Inject{inj}, s.inboxes[inj.TeamID]...)
	}

	res := AdvanceResult{Promoted: staged}
	for _, g := range Groups(staged) {
		m := g.Master
		if m.GroupID == "" {
			res.Events = append(res.Events, s.appendEventAt(InjectSent{
				Title:        m.Title,
				TeamID:       m.TeamID,
				Objectives:   m.Objectives,
				Capabilities: m.Capabilities,
			}, ts))
			continue
		}
		res.Events = append(res.Events, s.appendEventAt(InjectSentGroup{
			Title:        m.Title,
			Recipients:   m.Recipients,
			All:          m.All,
			Objectives:   m.Objectives,
			Capabilities: m.Capabilities,
		}, ts))
	}
	return res
}
