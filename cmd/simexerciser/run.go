package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"simexerciser/internal/admin"
	"simexerciser/internal/config"
	"simexerciser/internal/exercise"
	"simexerciser/internal/logging"
	"simexerciser/internal/scenario"
	"simexerciser/internal/sim"
)

var (
	runPrintOnly  bool
	runConfigPath string
	runSchemaPath string
	runTick       time.Duration
	runLogFile    string
	runAddr       string
	runDataDir    string
	runStore      string
	runScenario   string
	runAutoplay   bool
	runAutostart  bool
	runDrift      bool
	runDriftSeed  int64
	runTUI        bool
	runLogFormat  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the real-time exercise engine",
	Long:  "run starts the exercise engine with its dispatch ticker, the facilitator web console, and the configured event sinks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var log *slog.Logger
		switch runLogFormat {
		case "json":
			log = logging.NewJSON(os.Stdout)
		case "text":
			log = logging.New()
		default:
			return fmt.Errorf("unknown log format %q", runLogFormat)
		}

		cfg, err := config.Load(runConfigPath, runSchemaPath)
		if err != nil {
			return err
		}

		writer, cleanup, err := newWriters(runPrintOnly || runTUI, runLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		store, storeCleanup, err := newStore(runStore, runDataDir)
		if err != nil {
			return err
		}
		defer storeCleanup()

		state := exercise.NewState(cfg.TeamList())
		cfg.ApplyDefaults(state)
		if runScenario != "" {
			sc, ok := scenario.BuiltIn()[runScenario]
			if !ok {
				return fmt.Errorf("unknown scenario %q", runScenario)
			}
			state.SetPhases(sc.PhaseNames())
			log.Info("scenario applied", "name", sc.Name, "phases", len(sc.Phases))
		}

		tickInterval := runTick
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return err
			}
			tickInterval = d
		}

		var tui *sim.TUIWriter
		if runTUI {
			tui = sim.NewTUIWriter()
			writer = sim.NewMultiWriter(writer, tui)
		}

		engine := sim.NewEngine(state, writer, store, tickInterval, log)
		engine.Restore()
		if runDrift {
			seed := runDriftSeed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			engine.EnableDrift(seed)
		}
		if runAutoplay {
			var plan []sim.PlanItem
			for _, inj := range cfg.Injects {
				plan = append(plan, sim.PlanItem{
					Request: exercise.InjectRequest{
						Title:        inj.Title,
						Body:         inj.Body,
						TeamIDs:      inj.Teams,
						Objectives:   inj.Objectives,
						Capabilities: inj.Capabilities,
						Phase:        inj.Phase,
					},
					Offset: time.Duration(inj.Offset),
				})
			}
			engine.SetPlan(plan)
		}
		if runAutostart {
			engine.Start()
		}

		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()

		srv := admin.NewServer(engine)
		go func() {
			log.Info("facilitator console listening", "addr", runAddr)
			if err := srv.Start(runAddr); err != nil && err != http.ErrServerClosed {
				log.Error("console server failed", "error", err)
			}
		}()
		defer srv.Stop()

		go engine.Run(ctx)

		if tui != nil {
			go func() {
				ticker := time.NewTicker(time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						tui.UpdateViews(engine)
					case <-ctx.Done():
						return
					}
				}
			}()
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		cancel()
		if tui != nil {
			tui.Close()
		}
		log.Info("exercise engine stopped")
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runPrintOnly, "print-only", false, "Print timeline events to STDOUT instead of writing to DB")
	runCmd.Flags().StringVar(&runConfigPath, "config", "config/exercise.yaml", "Path to exercise configuration YAML")
	runCmd.Flags().StringVar(&runSchemaPath, "schema", "schemas/exercise.cue", "Path to CUE schema file")
	runCmd.Flags().DurationVar(&runTick, "tick", time.Second, "Dispatch tick interval (e.g. 500ms, 2s)")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "Path to export timeline events (JSONL)")
	runCmd.Flags().StringVar(&runAddr, "addr", ":8080", "Facilitator console listen address")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "data", "Directory for persisted session snapshots (empty disables persistence)")
	runCmd.Flags().StringVar(&runStore, "store", "file", "Snapshot backend: file or sqlite")
	runCmd.Flags().StringVar(&runScenario, "scenario", "", "Built-in scenario template to preload phases from")
	runCmd.Flags().BoolVar(&runAutoplay, "autoplay", false, "Schedule configured injects relative to exercise start")
	runCmd.Flags().BoolVar(&runAutostart, "autostart", false, "Move the exercise live immediately")
	runCmd.Flags().BoolVar(&runDrift, "drift", false, "Enable the world-state random walk")
	runCmd.Flags().Int64Var(&runDriftSeed, "drift-seed", 0, "Seed for the world-state random walk (0 uses current time)")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Render the terminal facilitator console")
	runCmd.Flags().StringVar(&runLogFormat, "log-format", "text", "Log output format: text or json")
}
