package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/coverage-sim/sim/store"
)

var (
	runsDB    string // SQLite database written by run --db
	runsRunID string // Run to inspect, all runs when empty
	runsAgent int    // Agent whose track is printed, none when negative
)

// runsCmd inspects runs recorded with run --db
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs or inspect one of them",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(logLevel)
		if runsDB == "" {
			logrus.Fatalf("--db not provided.")
		}
		db, err := store.Open(runsDB)
		if err != nil {
			logrus.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		if runsRunID == "" {
			err = listRuns(db, os.Stdout)
		} else {
			err = showRun(db, runsRunID, runsAgent, os.Stdout)
		}
		if err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func listRuns(db *store.DB, w io.Writer) error {
	runs, err := db.Runs()
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	for _, r := range runs {
		status := "unfinished"
		if r.TicksRun.Valid {
			status = fmt.Sprintf("%d ticks, %d alive", r.TicksRun.Int64, r.FinalAlive.Int64)
		}
		fmt.Fprintf(w, "%s  %s  seed=%d  agents=%d  sources=%d  %s\n",
			r.ID, r.StartedAt, r.Seed, r.Agents, r.Sources, status)
	}
	return nil
}

func showRun(db *store.DB, id string, agent int, w io.Writer) error {
	r, err := db.GetRun(id)
	if err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}
	fmt.Fprintf(w, "=== Run %s ===\n", r.ID)
	fmt.Fprintf(w, "Domain               : %gx%g\n", r.Width, r.Height)
	fmt.Fprintf(w, "Seed                 : %d\n", r.Seed)
	fmt.Fprintf(w, "Agents               : %d\n", r.Agents)
	fmt.Fprintf(w, "Sources              : %d\n", r.Sources)
	if r.TicksRun.Valid {
		fmt.Fprintf(w, "Ticks Run            : %d\n", r.TicksRun.Int64)
		fmt.Fprintf(w, "Agent Failures       : %d\n", r.Deaths.Int64)
		fmt.Fprintf(w, "Agents Alive         : %d\n", r.FinalAlive.Int64)
	}

	stats, err := db.TickStats(id)
	if err != nil {
		return fmt.Errorf("tick stats of %s: %w", id, err)
	}
	fmt.Fprintf(w, "Stored Ticks         : %d\n", len(stats))
	if n := len(stats); n > 0 && stats[n-1].CoverageCost.Valid {
		fmt.Fprintf(w, "Last Coverage Cost   : %.3f\n", stats[n-1].CoverageCost.Float64)
	}

	diags, err := db.Diagnostics(id)
	if err != nil {
		return fmt.Errorf("diagnostics of %s: %w", id, err)
	}
	fmt.Fprintf(w, "Diagnostics          : %d\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(w, "  tick %d agent %d %s: %s\n", d.Tick, d.AgentID, d.Kind, d.Detail)
	}

	if agent < 0 {
		return nil
	}
	track, err := db.AgentTrack(id, agent)
	if err != nil {
		return fmt.Errorf("track of agent %d: %w", agent, err)
	}
	fmt.Fprintf(w, "=== Agent %d ===\n", agent)
	for _, t := range track {
		target := "-"
		if t.TargetX.Valid {
			target = fmt.Sprintf("(%.3f, %.3f)", t.TargetX.Float64, t.TargetY.Float64)
		}
		fmt.Fprintf(w, "tick %5d  alive=%-5t  pos=(%.3f, %.3f)  target=%s  contributors=%d\n",
			t.Tick, t.Alive, t.X, t.Y, target, t.Contributors)
	}
	return nil
}

func init() {
	runsCmd.Flags().StringVar(&runsDB, "db", "", "SQLite database written by run --db")
	runsCmd.Flags().StringVar(&runsRunID, "run", "", "Run id to inspect (lists all runs when empty)")
	runsCmd.Flags().IntVar(&runsAgent, "agent", -1, "Also print this agent's stored track")
	runsCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(runsCmd)
}
