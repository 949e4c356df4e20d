package main

import (
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one issue by full or partial ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newStore()
		id, err := resolveID(s, args[0])
		if err != nil {
			return err
		}
		rec, err := s.LoadByID(id)
		if err != nil {
			return err
		}
		printRecord(rec)
		return nil
	},
}
