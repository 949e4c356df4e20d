package main

import (
	"fmt"
	"os"

	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/merge"
	"github.com/mrorigo/pearls/internal/store"
	"github.com/spf13/cobra"
)

// mergeDriverCmd implements the `%O %A %B %L` contract Git invokes a merge
// driver with: ancestor, ours, theirs paths, and the conflict marker size
// (unused here since we never emit textual conflict markers). It writes the
// merged result back over the "ours" path in place, as Git expects of a
// merge driver. Field conflicts are recorded in-band via the "__conflict"
// metadata key rather than failing the merge outright, but the command
// still exits non-zero so Git reports the merge as needing a look rather
// than as clean.
var mergeDriverCmd = &cobra.Command{
	Use:    "merge [ancestor] [ours] [theirs] [marker-size]",
	Short:  "Git merge driver entry point for .pearls/issues.jsonl",
	Hidden: true,
	Args:   cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := merge.Merge3Way(args[0], args[1], args[2])
		if err != nil {
			return err
		}
		if err := store.WriteFile(args[1], result.Records); err != nil {
			return err
		}
		if len(result.Conflicts) > 0 {
			ids := make([]string, 0, len(result.Conflicts))
			fmt.Fprintf(os.Stderr, "pearls: merged with %d field conflict(s) flagged in metadata.__conflict\n", len(result.Conflicts))
			for _, c := range result.Conflicts {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", c.ID, c.Field)
				ids = append(ids, c.ID)
			}
			return errs.MergeConflictErr(ids)
		}
		return nil
	},
}
