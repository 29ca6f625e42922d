package sim

import (
	"fmt"
	"strings"

	"simexerciser/internal/exercise"
)

// StdoutWriter prints one human-readable line per timeline event.
type StdoutWriter struct{}

// WriteEvent prints the event.
func (w *StdoutWriter) WriteEvent(evt exercise.TimelineEvent) error {
	fmt.Println(FormatEventLine(evt))
	return nil
}

// FormatEventLine renders the one-line summary used by the stdout and TUI
// sinks.
func FormatEventLine(evt exercise.TimelineEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", evt.Ts, evt.Type())
	switch d := evt.Data.(type) {
	case exercise.InjectSent:
		fmt.Fprintf(&b, " %q -> %s", d.Title, d.TeamID)
	case exercise.InjectSentGroup:
		fmt.Fprintf(&b, " %q -> %s", d.Title, recipientsLabel(d.Recipients, d.All))
	case exercise.InjectQueued:
		fmt.Fprintf(&b, " %q -> %s at %s", d.Title, d.TeamID, d.ScheduledAt)
	case exercise.InjectQueuedGroup:
		fmt.Fprintf(&b, " %q -> %s at %s", d.Title, recipientsLabel(d.Recipients, d.All), d.ScheduledAt)
	case exercise.InjectRecalled:
		fmt.Fprintf(&b, " %q (%d variant(s))", d.Title, len(d.InjectIDs))
	case exercise.InjectAcknowledged:
		fmt.Fprintf(&b, " %q by %s", d.Title, d.TeamID)
		if d.ActorName != "" {
			fmt.Fprintf(&b, " (%s)", d.ActorName)
		}
	}
	return b.String()
}

func recipientsLabel(recipients []string, all bool) string {
	if all {
		return "all teams"
	}
	return strings.Join(recipients, ",")
}
