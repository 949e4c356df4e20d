package main

import (
	"github.com/mrorigo/pearls/internal/model"
	"github.com/spf13/cobra"
)

var unlinkType string

var unlinkCmd = &cobra.Command{
	Use:   "unlink [from] [to]",
	Short: "Remove a dependency edge between two issues",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newStore()
		fromID, err := resolveID(s, args[0])
		if err != nil {
			return err
		}
		toID, err := resolveID(s, args[1])
		if err != nil {
			return err
		}

		return s.SaveAll(cmd.Context(), func(current []model.Record) ([]model.Record, error) {
			for i, r := range current {
				if r.ID != fromID {
					continue
				}
				out := r.Deps[:0]
				for _, d := range r.Deps {
					if d.TargetID == toID && (unlinkType == "" || string(d.Type) == unlinkType) {
						continue
					}
					out = append(out, d)
				}
				current[i].Deps = out
				current[i].UpdatedAt = nowUnix()
			}
			return current, nil
		})
	},
}

func init() {
	unlinkCmd.Flags().StringVar(&unlinkType, "type", "", "Restrict removal to this dependency type; default removes all types")
}
