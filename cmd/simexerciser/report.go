package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"simexerciser/internal/exercise"
)

var (
	reportDataDir string
	reportStore   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print an after-action report from the persisted session",
	Long:  "report loads the persisted session snapshot and prints the master events list, per-team acknowledgement ratios, and evaluation notes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cleanup, err := newStore(reportStore, reportDataDir)
		if err != nil {
			return err
		}
		defer cleanup()
		if store == nil {
			return fmt.Errorf("data directory required")
		}

		snap, err := store.Load()
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("no persisted session found in %s", reportDataDir)
		}

		// The report runs without the config the session was started with,
		// so the registry has to come out of the snapshot itself.
		state := exercise.NewState(exercise.TeamsFromSnapshot(*snap))
		state.Restore(*snap)

		def := state.Definition()
		fmt.Printf("%s (%s)\n", def.Name, def.Type)
		fmt.Printf("status: %s", state.Status())
		if start := state.StartAt(); start != "" {
			fmt.Printf("  started: %s", start)
		}
		if end := state.EndAt(); end != "" {
			fmt.Printf("  ended: %s", end)
		}
		fmt.Println()
		if def.Overview != "" {
			fmt.Println(def.Overview)
		}
		fmt.Println()

		fmt.Println("Master events list")
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"When", "Title", "Targets", "Status", "Ack", "Rating", "Phase"})
		for _, row := range state.MeltRows() {
			tw.AppendRow(table.Row{
				row.WhenLabel,
				row.Title,
				row.Targets,
				row.Status,
				fmt.Sprintf("%d/%d", row.AckCount, row.TotalTargets),
				row.EvaluationRating,
				row.Phase,
			})
		}
		tw.Render()
		fmt.Println()

		fmt.Println("Acknowledgements by team")
		aw := table.NewWriter()
		aw.SetOutputMirror(os.Stdout)
		aw.AppendHeader(table.Row{"Team", "Acked", "Sent"})
		summaries := state.TeamAckSummaries()
		teamIDs := make([]string, 0, len(summaries))
		for id := range summaries {
			teamIDs = append(teamIDs, id)
		}
		sort.Strings(teamIDs)
		for _, id := range teamIDs {
			s := summaries[id]
			aw.AppendRow(table.Row{state.TeamName(id), s.Ack, s.Total})
		}
		aw.Render()

		notes := evaluationNotes(state)
		if len(notes) > 0 {
			fmt.Println()
			fmt.Println("Evaluation notes")
			for _, line := range notes {
				fmt.Println(" -", line)
			}
		}
		return nil
	},
}

// evaluationNotes collects rated injects, one line per group.
func evaluationNotes(state *exercise.State) []string {
	var lines []string
	for _, g := range exercise.Groups(state.Injects()) {
		inj := g.Master
		if inj.EvaluationRating == "" && inj.EvaluationNotes == "" {
			continue
		}
		var b strings.Builder
		b.WriteString(inj.Title)
		if inj.EvaluationRating != "" {
			fmt.Fprintf(&b, " [%s]", inj.EvaluationRating)
		}
		if inj.EvaluationNotes != "" {
			b.WriteString(": ")
			b.WriteString(inj.EvaluationNotes)
		}
		lines = append(lines, b.String())
	}
	return lines
}

func init() {
	reportCmd.Flags().StringVar(&reportDataDir, "data-dir", "data", "Directory holding the persisted session snapshot")
	reportCmd.Flags().StringVar(&reportStore, "store", "file", "Snapshot backend: file or sqlite")
}
