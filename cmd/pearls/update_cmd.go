package main

import (
	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/fsm"
	"github.com/mrorigo/pearls/internal/graph"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/spf13/cobra"
)

var (
	updateTitle       string
	updateDescription string
	updatePriority    int
	updateStatus      string
	updateAddLabel    []string
	updateRemoveLabel []string
)

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update fields on an existing issue",
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
			rec := current[idx]

			if cmd.Flags().Changed("title") {
				rec.Title = updateTitle
			}
			if cmd.Flags().Changed("description") {
				rec.Description = updateDescription
			}
			if cmd.Flags().Changed("priority") {
				rec.Priority = updatePriority
			}
			for _, l := range updateAddLabel {
				rec.AddLabel(l)
			}
			for _, l := range updateRemoveLabel {
				rec.RemoveLabel(l)
			}
			if cmd.Flags().Changed("status") {
				archived, err := s.LoadArchived()
				if err != nil {
					return nil, err
				}
				g := graph.FromRecords(current, archived)
				target := model.Status(updateStatus)
				if err := fsm.ValidateTransition(rec, target, g); err != nil {
					return nil, err
				}
				rec.Status = target
			}

			rec.UpdatedAt = nowUnix()
			if err := rec.Validate(); err != nil {
				return nil, err
			}
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

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "New title")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "New description")
	updateCmd.Flags().IntVar(&updatePriority, "priority", 0, "New priority (0-4)")
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "New status (open|in_progress|blocked|deferred|closed)")
	updateCmd.Flags().StringSliceVar(&updateAddLabel, "add-label", nil, "Label to add (repeatable)")
	updateCmd.Flags().StringSliceVar(&updateRemoveLabel, "remove-label", nil, "Label to remove (repeatable)")
}
