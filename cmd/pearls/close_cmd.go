package main

import (
	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/fsm"
	"github.com/mrorigo/pearls/internal/graph"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/spf13/cobra"
)

var closeCmd = &cobra.Command{
	Use:   "close [id]",
	Short: "Close an issue, if its dependencies allow it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newStore()
		id, err := resolveID(s, args[0])
		if err != nil {
			return err
		}

		var updated model.Record
		err = s.SaveAll(cmd.Context(), func(current []model.Record) ([]model.Record, error) {
			idx := -1
			for i, r := range current {
				if r.ID == id {
					idx = i
				}
			}
			if idx < 0 {
				return nil, errs.New(errs.NotFound, "no record matches %q", id)
			}
			archived, err := s.LoadArchived()
			if err != nil {
				return nil, err
			}
			g := graph.FromRecords(current, archived)
			rec := current[idx]
			if err := fsm.ValidateTransition(rec, model.StatusClosed, g); err != nil {
				return nil, err
			}
			rec.Status = model.StatusClosed
			rec.UpdatedAt = nowUnix()
			current[idx] = rec
			updated = rec
			return current, nil
		})
		if err != nil {
			return err
		}
		printRecord(updated)
		return nil
	},
}
