package admin

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"simexerciser/internal/exercise"
	"simexerciser/internal/sim"
)

// Server is the facilitator console: an HTML front page plus JSON endpoints
// for every operation and derived view.
type Server struct {
	Engine *sim.Engine
	tpl    *template.Template
	srv    *http.Server
}

//go:embed templates/index.html
var content embed.FS

// NewServer wires the console around an engine.
func NewServer(engine *sim.Engine) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{Engine: engine, tpl: tpl}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)

	mux.HandleFunc("/send", s.handleSend)
	mux.HandleFunc("/schedule", s.handleSchedule)
	mux.HandleFunc("/recall", s.handleRecall)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/end", s.handleEnd)
	mux.HandleFunc("/pause", s.handlePause)
	mux.HandleFunc("/resume", s.handleResume)
	mux.HandleFunc("/ack", s.handleAcknowledge)
	mux.HandleFunc("/evaluate", s.handleEvaluate)
	mux.HandleFunc("/world", s.handleWorld)
	mux.HandleFunc("/definition", s.handleDefinition)
	mux.HandleFunc("/phases", s.handlePhases)
	mux.HandleFunc("/participant", s.handleParticipant)
	mux.HandleFunc("/reset", s.handleReset)

	mux.HandleFunc("/timeline", s.handleTimeline)
	mux.HandleFunc("/melt", s.handleMelt)
	mux.HandleFunc("/inbox", s.handleInbox)
	mux.HandleFunc("/summary", s.handleSummary)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Start serves the console until ctx-independent shutdown via Stop.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.Handler()}
	return s.srv.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

type indexData struct {
	Name     string
	Type     exercise.ExerciseType
	Status   exercise.ExerciseStatus
	Paused   bool
	Teams    []exercise.Team
	Phases   []string
	World    exercise.WorldState
	Melt     []exercise.MeltRow
	Timeline []timelineRow
	Recall   []recallRow
}

type timelineRow struct {
	Ts   string
	Type string
	Line string
}

type recallRow struct {
	ID    string
	Key   string // group id for grouped sends
	Title string
	Left  int // seconds left in the recall window
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var data indexData
	now := time.Now()
	s.Engine.View(func(st *exercise.State) {
		def := st.Definition()
		data = indexData{
			Name:   def.Name,
			Type:   def.Type,
			Status: st.Status(),
			Paused: st.Paused(),
			Teams:  st.Teams(),
			Phases: st.Phases(),
			World:  st.World(),
			Melt:   st.MeltRows(),
		}
		for _, evt := range st.Timeline() {
			data.Timeline = append(data.Timeline, timelineRow{
				Ts:   evt.Ts,
				Type: string(evt.Type()),
				Line: sim.FormatEventLine(evt),
			})
		}
		// Recall buttons only render while the 30s window is open.
		for _, g := range exercise.Groups(st.SentInjects()) {
			if !exercise.WithinRecallWindow(g.Master, now) {
				continue
			}
			ts, _ := exercise.ParseTime(g.Master.Ts)
			left := int((exercise.RecallWindow - now.Sub(ts)).Seconds())
			data.Recall = append(data.Recall, recallRow{
				ID:    g.Master.ID,
				Key:   g.Key,
				Title: g.Master.Title,
				Left:  left,
			})
		}
	})
	s.tpl.Execute(w, data)
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func injectRequest(r *http.Request) exercise.InjectRequest {
	return exercise.InjectRequest{
		Title:        r.FormValue("title"),
		Body:         r.FormValue("body"),
		TeamIDs:      r.Form["team"],
		ScheduledFor: r.FormValue("scheduledFor"),
		Objectives:   splitTags(r.FormValue("objectives")),
		Capabilities: splitTags(r.FormValue("capabilities")),
		Phase:        r.FormValue("phase"),
	}
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	r.ParseForm()
	ok := s.Engine.SendHot(injectRequest(r))
	writeJSON(w, map[string]any{"sent": ok})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	r.ParseForm()
	ok := s.Engine.Schedule(injectRequest(r))
	writeJSON(w, map[string]any{"scheduled": ok})
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	ok := s.Engine.Recall(r.FormValue("id"))
	writeJSON(w, map[string]any{"recalled": ok})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	writeJSON(w, map[string]any{"started": s.Engine.Start()})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	writeJSON(w, map[string]any{"ended": s.Engine.End()})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	writeJSON(w, map[string]any{"paused": s.Engine.Pause()})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	writeJSON(w, map[string]any{"resumed": s.Engine.Resume()})
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	ok := s.Engine.Acknowledge(
		r.FormValue("injectId"),
		r.FormValue("teamId"),
		r.FormValue("actorName"),
		r.FormValue("title"),
	)
	writeJSON(w, map[string]any{"acknowledged": ok})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	ok := s.Engine.SetEvaluation(
		r.FormValue("injectId"),
		exercise.EvaluationRating(r.FormValue("rating")),
		r.FormValue("notes"),
	)
	writeJSON(w, map[string]any{"evaluated": ok})
}

func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var patch exercise.WorldStatePatch
	if v := r.FormValue("epiTrend"); v != "" {
		t := exercise.EpiTrend(v)
		patch.EpiTrend = &t
	}
	intField := func(name string) *int {
		v := r.FormValue(name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil
		}
		return &n
	}
	patch.CommsPressure = intField("commsPressure")
	patch.LabBacklog = intField("labBacklog")
	patch.PublicAnxiety = intField("publicAnxiety")
	writeJSON(w, map[string]any{"updated": s.Engine.UpdateWorldState(patch)})
}

func (s *Server) handleDefinition(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	r.ParseForm()
	var patch exercise.DefinitionPatch
	strField := func(name string) *string {
		if !r.Form.Has(name) {
			return nil
		}
		v := r.FormValue(name)
		return &v
	}
	patch.Name = strField("name")
	patch.Overview = strField("overview")
	patch.PrimaryObjectives = strField("primaryObjectives")
	if v := r.FormValue("type"); v != "" {
		t := exercise.ExerciseType(v)
		patch.Type = &t
	}
	writeJSON(w, map[string]any{"updated": s.Engine.UpdateDefinition(patch)})
}

func (s *Server) handlePhases(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s.Engine.SetPhases(splitTags(r.FormValue("phases")))
	writeJSON(w, map[string]any{"updated": true})
}

func (s *Server) handleParticipant(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	r.ParseForm()
	ok := true
	if v := r.FormValue("teamId"); v != "" {
		ok = s.Engine.SetParticipantTeam(v) && ok
	}
	if v := r.FormValue("mode"); v != "" {
		ok = s.Engine.SetParticipantMode(exercise.TimelineMode(v)) && ok
	}
	if r.Form.Has("name") || r.Form.Has("role") || r.Form.Has("locked") {
		locked := r.FormValue("locked") == "true"
		s.Engine.SetParticipantIdentity(r.FormValue("name"), r.FormValue("role"), locked)
	}
	writeJSON(w, map[string]any{"updated": ok})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if r.FormValue("confirm") != "true" {
		http.Error(w, "reset requires confirm=true", http.StatusBadRequest)
		return
	}
	s.Engine.Reset()
	writeJSON(w, map[string]any{"reset": true})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filter := exercise.TimelineFilter{
		TeamID:   r.URL.Query().Get("team"),
		Category: r.URL.Query().Get("category"),
		Text:     r.URL.Query().Get("q"),
	}
	participant := r.URL.Query().Get("view") == "participant"
	var events []exercise.TimelineEvent
	s.Engine.View(func(st *exercise.State) {
		if participant {
			events = st.ParticipantTimeline()
		} else {
			events = st.FilteredTimeline(filter)
		}
	})
	writeJSON(w, events)
}

func (s *Server) handleMelt(w http.ResponseWriter, r *http.Request) {
	var rows []exercise.MeltRow
	s.Engine.View(func(st *exercise.State) { rows = st.MeltRows() })
	writeJSON(w, rows)
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("team")
	if teamID == "" {
		http.Error(w, "team query parameter required", http.StatusBadRequest)
		return
	}
	var box []exercise.Inject
	s.Engine.View(func(st *exercise.State) { box = st.Inbox(teamID) })
	writeJSON(w, box)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var sum map[string]exercise.AckSummary
	s.Engine.View(func(st *exercise.State) { sum = st.TeamAckSummaries() })
	writeJSON(w, sum)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type status struct {
		Status  exercise.ExerciseStatus     `json:"status"`
		Paused  bool                        `json:"paused"`
		StartAt string                      `json:"startAt,omitempty"`
		EndAt   string                      `json:"endAt,omitempty"`
		World   exercise.WorldState         `json:"worldState"`
		Def     exercise.ExerciseDefinition `json:"exerciseDef"`
		Phases  []string                    `json:"phases"`
	}
	var st status
	s.Engine.View(func(s *exercise.State) {
		st = status{
			Status:  s.Status(),
			Paused:  s.Paused(),
			StartAt: s.StartAt(),
			EndAt:   s.EndAt(),
			World:   s.World(),
			Def:     s.Definition(),
			Phases:  s.Phases(),
		}
	})
	writeJSON(w, st)
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}
