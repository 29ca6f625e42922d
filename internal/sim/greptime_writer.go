package sim

import (
	"context"
	"log"
	"strings"
	"time"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"simexerciser/internal/exercise"
)

// GreptimeDBWriter exports timeline events to GreptimeDB for after-action
// analytics.
type GreptimeDBWriter struct {
	client greptime.Client
	db     string
	table  string
}

// NewGreptimeDBWriter creates the writer and auto-creates the table if needed.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	ctx := ingesterContext.NewContext(context.Background())
	client, err := greptime.NewClient(ctx, &greptime.Config{
		Endpoint: endpoint,
	})
	if err != nil {
		return nil, err
	}

	ddl := `
CREATE TABLE IF NOT EXISTS exercise_timeline (
  event_type STRING TAG,
  team_id STRING TAG,
  event_id STRING,
  title STRING,
  recipients STRING,
  inject_ids STRING,
  actor_name STRING,
  scheduled_at STRING,
  ts TIMESTAMP TIME INDEX
) WITH (ttl='90d')
`
	if _, err := client.SQL(ctx, ddl); err != nil {
		return nil, err
	}

	return &GreptimeDBWriter{
		client: client,
		db:     database,
		table:  "exercise_timeline",
	}, nil
}

// WriteEvent inserts a single timeline event.
func (w *GreptimeDBWriter) WriteEvent(evt exercise.TimelineEvent) error {
	return w.WriteEvents([]exercise.TimelineEvent{evt})
}

// WriteEvents inserts multiple timeline events.
func (w *GreptimeDBWriter) WriteEvents(events []exercise.TimelineEvent) error {
	if len(events) == 0 {
		return nil
	}

	ctx := ingesterContext.NewContext(context.Background())

	tbl := table.New(w.table)
	tbl.AddTagColumn("event_type", types.StringType, 0)
	tbl.AddTagColumn("team_id", types.StringType, 0)
	tbl.AddFieldColumn("event_id", types.StringType)
	tbl.AddFieldColumn("title", types.StringType)
	tbl.AddFieldColumn("recipients", types.StringType)
	tbl.AddFieldColumn("inject_ids", types.StringType)
	tbl.AddFieldColumn("actor_name", types.StringType)
	tbl.AddFieldColumn("scheduled_at", types.StringType)
	tbl.SetTimeIndex("ts", types.TimestampType)

	for _, evt := range events {
		ts, ok := exercise.ParseTime(evt.Ts)
		if !ok {
			ts = time.Now()
		}
		var scheduledAt, actorName string
		var injectIDs []string
		switch d := evt.Data.(type) {
		case exercise.InjectQueued:
			scheduledAt = d.ScheduledAt
		case exercise.InjectQueuedGroup:
			scheduledAt = d.ScheduledAt
		case exercise.InjectRecalled:
			injectIDs = d.InjectIDs
		case exercise.InjectAcknowledged:
			actorName = d.ActorName
		}
		tbl.AppendTagValue("event_type", string(evt.Type()))
		tbl.AppendTagValue("team_id", evt.TeamID())
		tbl.AppendFieldValue("event_id", evt.ID)
		tbl.AppendFieldValue("title", evt.Title())
		tbl.AppendFieldValue("recipients", strings.Join(evt.Recipients(), ","))
		tbl.AppendFieldValue("inject_ids", strings.Join(injectIDs, ","))
		tbl.AppendFieldValue("actor_name", actorName)
		tbl.AppendFieldValue("scheduled_at", scheduledAt)
		tbl.AppendTimeIndex(ts)
	}

	if err := w.client.Write(ctx, w.db, []*table.Table{tbl}); err != nil {
		log.Printf("[GreptimeDBWriter] Write failed: %v", err)
		return err
	}
	return nil
}
