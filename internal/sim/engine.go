// Engine orchestrating the exercise state, dispatch ticks, and event fanout
package sim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"simexerciser/internal/exercise"
	"simexerciser/internal/logging"
	"simexerciser/internal/snapshot"
)

// TimelineWriter receives committed timeline events, one sink per output.
type TimelineWriter interface {
	WriteEvent(exercise.TimelineEvent) error
}

// Optional: writers can also support batch mode.
type batchTimelineWriter interface {
	WriteEvents([]exercise.TimelineEvent) error
}

// PlanItem is a prepared inject from the exercise configuration, scheduled
// relative to exercise start when autoplay is on.
type PlanItem struct {
	Request exercise.InjectRequest
	Offset  time.Duration
}

// Engine owns the exercise state. Every operation and the dispatch tick run
// under one mutex, so observers never see a partially applied mutation.
// Committed events fan out to the configured writer; snapshots persist
// best-effort after every change.
type Engine struct {
	mu           sync.Mutex
	state        *exercise.State
	writer       TimelineWriter
	store        snapshot.Store
	tickInterval time.Duration
	plan         []PlanItem
	drift        *Drift
	log          *slog.Logger
}

// NewEngine wires the engine. writer and store may be nil; a nil logger
// falls back to slog.Default.
func NewEngine(state *exercise.State, writer TimelineWriter, store snapshot.Store, tickInterval time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &Engine{
		state:        state,
		writer:       writer,
		store:        store,
		tickInterval: tickInterval,
		log:          logger,
	}
}

// SetPlan installs prepared injects to schedule when the exercise starts.
func (e *Engine) SetPlan(items []PlanItem) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plan = items
}

// EnableDrift turns on the world-state random walk.
func (e *Engine) EnableDrift(seed int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drift = NewDrift(seed)
}

// Restore loads the persisted snapshot into the state, if one exists.
// A missing or unreadable snapshot leaves the fresh defaults in place.
func (e *Engine) Restore() {
	if e.store == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, err := e.store.Load()
	if err != nil {
		e.log.Warn("snapshot load failed, starting fresh", "error", err)
		return
	}
	if snap == nil {
		return
	}
	e.state.Restore(*snap)
	e.log.Info("snapshot restored",
		"injects", len(snap.Injects),
		"timeline", len(snap.Timeline),
		"status", e.state.Status())
}

// Run drives the dispatch ticker until ctx is cancelled. The loop logs
// through the context logger so callers can scope the run.
func (e *Engine) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("engine starting", "tick", e.tickInterval)
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.Tick(time.Now())
		case <-ctx.Done():
			log.Info("engine stopping")
			return
		}
	}
}

// Tick runs one dispatch pass at the given instant. Exposed so tests can
// drive the engine with synthetic clocks instead of waiting on timers.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := e.state.Advance(now)
	drifted := false
	if e.drift != nil {
		drifted = e.drift.Step(e.state)
	}
	if !res.Changed() && !drifted {
		return
	}
	if len(res.Promoted) > 0 {
		e.log.Info("dispatched scheduled injects", "count", len(res.Promoted))
	}
	e.emit(res.Events)
	e.persist()
}

// emit fans events to the writer. Export failures are logged, never fatal.
func (e *Engine) emit(events []exercise.TimelineEvent) {
	if e.writer == nil || len(events) == 0 {
		return
	}
	if bw, ok := e.writer.(batchTimelineWriter); ok {
		if err := bw.WriteEvents(events); err != nil {
			e.log.Error("event export failed", "error", err)
		}
		return
	}
	for _, evt := range events {
		if err := e.writer.WriteEvent(evt); err != nil {
			e.log.Error("event export failed", "type", evt.Type(), "error", err)
		}
	}
}

// persist saves a snapshot. Failures are logged and the session continues
// in memory.
func (e *Engine) persist() {
	if e.store == nil {
		return
	}
	if err := e.store.Save(e.state.Snapshot()); err != nil {
		e.log.Error("snapshot save failed", "error", err)
	}
}

// apply runs an operation under the lock, fans out whatever it emitted, and
// persists when anything changed.
func (e *Engine) apply(op func(*exercise.State) []exercise.TimelineEvent) []exercise.TimelineEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	events := op(e.state)
	if len(events) == 0 {
		return nil
	}
	e.emit(events)
	e.persist()
	return events
}

// SendHot dispatches an inject immediately.
func (e *Engine) SendHot(r exercise.InjectRequest) bool {
	return len(e.apply(func(s *exercise.State) []exercise.TimelineEvent { return s.SendHot(r) })) > 0
}

// Schedule queues an inject for future dispatch.
func (e *Engine) Schedule(r exercise.InjectRequest) bool {
	return len(e.apply(func(s *exercise.State) []exercise.TimelineEvent { return s.Schedule(r) })) > 0
}

// Recall withdraws an inject or group.
func (e *Engine) Recall(idOrGroupID string) bool {
	return len(e.apply(func(s *exercise.State) []exercise.TimelineEvent { return s.Recall(idOrGroupID) })) > 0
}

// Start moves the exercise live and schedules any prepared plan items
// relative to the start instant.
func (e *Engine) Start() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	events := e.state.Start()
	if len(events) == 0 {
		return false
	}
	now := e.state.Clock()
	for _, item := range e.plan {
		r := item.Request
		r.ScheduledFor = exercise.FormatTime(now.Add(item.Offset))
		events = append(events, e.state.Schedule(r)...)
	}
	if len(e.plan) > 0 {
		e.log.Info("scheduled prepared injects", "count", len(e.plan))
	}
	e.emit(events)
	e.persist()
	return true
}

// End closes the exercise.
func (e *Engine) End() bool {
	return len(e.apply(func(s *exercise.State) []exercise.TimelineEvent { return s.End() })) > 0
}

// Pause suspends dispatch.
func (e *Engine) Pause() bool {
	return len(e.apply(func(s *exercise.State) []exercise.TimelineEvent { return s.Pause() })) > 0
}

// Resume lifts a pause.
func (e *Engine) Resume() bool {
	return len(e.apply(func(s *exercise.State) []exercise.TimelineEvent { return s.Resume() })) > 0
}

// Acknowledge records a participant acknowledgement.
func (e *Engine) Acknowledge(injectID, teamID, actorName, title string) bool {
	return len(e.apply(func(s *exercise.State) []exercise.TimelineEvent {
		return s.Acknowledge(injectID, teamID, actorName, title)
	})) > 0
}

// SetEvaluation stores an evaluation on one inject.
func (e *Engine) SetEvaluation(injectID string, rating exercise.EvaluationRating, notes string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.SetEvaluation(injectID, rating, notes) {
		return false
	}
	e.persist()
	return true
}

// UpdateWorldState applies a world-state patch.
func (e *Engine) UpdateWorldState(p exercise.WorldStatePatch) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.UpdateWorldState(p) {
		return false
	}
	e.persist()
	return true
}

// UpdateDefinition applies a definition patch while in draft.
func (e *Engine) UpdateDefinition(p exercise.DefinitionPatch) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.UpdateDefinition(p) {
		return false
	}
	e.persist()
	return true
}

// SetPhases replaces the phase list.
func (e *Engine) SetPhases(phases []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SetPhases(phases)
	e.persist()
}

// SetParticipantTeam switches the participant console to a team.
func (e *Engine) SetParticipantTeam(teamID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.SetParticipantTeam(teamID) {
		return false
	}
	e.persist()
	return true
}

// SetParticipantMode sets the participant timeline visibility.
func (e *Engine) SetParticipantMode(mode exercise.TimelineMode) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.SetParticipantMode(mode) {
		return false
	}
	e.persist()
	return true
}

// SetParticipantIdentity records the participant identity.
func (e *Engine) SetParticipantIdentity(name, role string, locked bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SetParticipantIdentity(name, role, locked)
	e.persist()
}

// Reset wipes state and the persisted snapshot. Destructive; confirmation
// happens at the caller.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Reset()
	if e.store != nil {
		if err := e.store.Clear(); err != nil {
			e.log.Error("snapshot clear failed", "error", err)
		}
	}
}

// View runs a read-only function against the state under the lock. The
// state's accessors hand out copies, so results stay valid after return.
func (e *Engine) View(fn func(*exercise.State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
}
