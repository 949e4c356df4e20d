package main

import (
	"fmt"
	"os"

	"github.com/mrorigo/pearls/internal/hooks"
	"github.com/spf13/cobra"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Run a Git hook subcommand (invoked by the hook scripts pearls init installs)",
	// `pearls hooks pre-commit` is accepted as well as `pearls hooks run pre-commit`.
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return hooksRunCmd.RunE(cmd, args)
	},
}

var hooksRunCmd = &cobra.Command{
	Use:   "run [pre-commit|post-merge]",
	Short: "Dispatch to the named hook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newStore()
		switch args[0] {
		case "pre-commit":
			msg := commitMessage()
			result, err := hooks.PreCommit(cmd.Context(), s, msg, cfg.AutoCloseOnCommit)
			if err != nil {
				return err
			}
			for _, id := range result.ClosedIDs {
				fmt.Println(render(passStyle, "auto-closed "+id))
			}
			return nil
		case "post-merge":
			report, err := hooks.PostMerge(s)
			if err != nil {
				return err
			}
			for _, o := range report.Orphans {
				fmt.Println(render(mutedStyle, "orphan dependency target: "+o))
			}
			for _, cyc := range report.Cycles {
				fmt.Println(render(failStyle, fmt.Sprintf("blocks cycle: %v", cyc)))
			}
			return nil
		default:
			return fmt.Errorf("unknown hook %q", args[0])
		}
	},
}

// commitMessage reads the commit message Git passes pre-commit hooks via
// .git/COMMIT_EDITMSG; pearls is invoked with no arguments carrying it, so
// this mirrors how a thin pre-commit hook script would read it itself.
func commitMessage() string {
	b, err := os.ReadFile(".git/COMMIT_EDITMSG")
	if err != nil {
		return ""
	}
	return string(b)
}

func init() {
	hooksCmd.AddCommand(hooksRunCmd)
}
