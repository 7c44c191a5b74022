package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/coverage-sim/sim/scenario"
)

// validateCmd checks a scenario file without running it
var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>",
	Short: "Validate a coverage scenario",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateScenario(args[0], os.Stdout); err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
	},
}

// validateScenario loads and builds the scenario at path and reports its
// contents to w.
func validateScenario(path string, w io.Writer) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	s, err := sc.Build()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: ok (%d agents, %d points, %d areas, %gx%g, %d ticks, seed %d)\n",
		path, len(s.Agents), len(s.Points), len(s.Areas),
		sc.Bounds.Width, sc.Bounds.Height, s.Config.Ticks, sc.Seed)
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
