package main

import (
	"github.com/mrorigo/pearls/internal/model"
	"github.com/spf13/cobra"
)

var (
	listStatus string
	listLabel  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues, optionally filtered by status or label",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newStore()
		records, err := s.LoadAll()
		if err != nil {
			return err
		}
		if includeArchived {
			archived, err := s.LoadArchived()
			if err != nil {
				return err
			}
			records = append(records, archived...)
		}

		var filtered []model.Record
		for _, r := range records {
			if listStatus != "" && string(r.Status) != listStatus {
				continue
			}
			if listLabel != "" && !r.HasLabel(listLabel) {
				continue
			}
			filtered = append(filtered, r)
		}
		printRecords(filtered)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status")
	listCmd.Flags().StringVar(&listLabel, "label", "", "Filter by label")
}
