package main

import (
	"fmt"

	"github.com/mrorigo/pearls/internal/compact"
	"github.com/spf13/cobra"
)

var (
	compactThreshold int
	compactDryRun    bool
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Archive closed issues older than the configured threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newStore()
		threshold := compactThreshold
		if !cmd.Flags().Changed("threshold-days") {
			threshold = cfg.CompactThresholdDays
		}
		now := nowUnix()

		var plan compact.Plan
		var err error
		if compactDryRun {
			plan, err = compact.DryRun(s, threshold, now)
		} else {
			plan, err = compact.Compact(cmd.Context(), s, threshold, now)
		}
		if err != nil {
			return err
		}

		verb := "archived"
		if compactDryRun {
			verb = "would archive"
		}
		fmt.Printf("%s %d record(s), kept %d\n", verb, len(plan.Archive), len(plan.Keep))
		return nil
	},
}

func init() {
	compactCmd.Flags().IntVar(&compactThreshold, "threshold-days", 30, "Age in days after which a closed record archives")
	compactCmd.Flags().BoolVar(&compactDryRun, "dry-run", false, "Report what would move without writing")
}
