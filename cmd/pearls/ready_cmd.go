package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mrorigo/pearls/internal/graph"
	"github.com/spf13/cobra"
)

var readyWatch bool

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List open, unblocked issues ready to work on",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newStore()
		printReadyQueue := func() error {
			active, err := s.LoadAll()
			if err != nil {
				return err
			}
			archived, err := s.LoadArchived()
			if err != nil {
				return err
			}
			g := graph.FromRecords(active, archived)
			printRecords(g.ReadyQueue(active))
			return nil
		}

		if err := printReadyQueue(); err != nil {
			return err
		}
		if !readyWatch {
			return nil
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		var watchErr error
		err := s.Watch(ctx, func() {
			if watchErr != nil {
				return
			}
			watchErr = printReadyQueue()
		})
		if err != nil {
			return err
		}
		return watchErr
	},
}

func init() {
	readyCmd.Flags().BoolVar(&readyWatch, "watch", false, "Reprint the ready queue each time the store changes, until interrupted")
}
