package main

import (
	"fmt"
	"os"

	"github.com/mrorigo/pearls/internal/importer"
	"github.com/spf13/cobra"
)

var (
	importInput        string
	importSkipExisting bool
	importDryRun       bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-load records from a JSONL file or stdin",
	Long: `Reads JSON Lines (one record per line) from --input or, if omitted,
from stdin. Existing IDs update in place; new IDs are appended. Use
--dry-run to preview the plan without writing, and --skip-existing to
leave already-known IDs untouched instead of overwriting them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := os.Stdin
		if importInput != "" {
			// #nosec G304 -- user-provided file path is the entire point of --input
			f, err := os.Open(importInput)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		s := newStore()
		plan, err := importer.Run(cmd.Context(), s, in, importer.Options{
			SkipExisting: importSkipExisting,
			DryRun:       importDryRun,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created %d, updated %d, skipped %d\n", len(plan.Created), len(plan.Updated), len(plan.Skipped))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "Input file (default: stdin)")
	importCmd.Flags().BoolVar(&importSkipExisting, "skip-existing", false, "Leave already-known IDs untouched")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Preview changes without writing")
}
