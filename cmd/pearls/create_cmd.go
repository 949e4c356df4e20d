package main

import (
	"os"

	"github.com/mrorigo/pearls/internal/ids"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/spf13/cobra"
)

var (
	createDescription string
	createPriority    int
	createAuthor      string
	createLabels      []string
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newStore()
		title := args[0]
		author := createAuthor
		if author == "" {
			author = currentActor()
		}
		priority := createPriority
		if !cmd.Flags().Changed("priority") {
			priority = cfg.DefaultPriority
		}

		var created model.Record
		err := s.SaveAll(cmd.Context(), func(current []model.Record) ([]model.Record, error) {
			existing := make([]string, 0, len(current))
			for _, r := range current {
				existing = append(existing, r.ID)
			}
			archived, err := s.LoadArchived()
			if err != nil {
				return nil, err
			}
			for _, r := range archived {
				existing = append(existing, r.ID)
			}
			exists := func(id string) bool {
				for _, e := range existing {
					if e == id {
						return true
					}
				}
				return false
			}

			now := nowUnix()
			id := ids.GenerateUnique(title, author, now, exists)
			created = model.Record{
				ID:        id,
				Title:     title,
				Description: createDescription,
				Status:    model.StatusOpen,
				Priority:  priority,
				CreatedAt: now,
				UpdatedAt: now,
				Author:    author,
				Labels:    createLabels,
			}
			if err := created.Validate(); err != nil {
				return nil, err
			}
			return append(current, created), nil
		})
		if err != nil {
			return err
		}
		printRecord(created)
		return nil
	},
}

func currentActor() string {
	if a := os.Getenv("PEARLS_ACTOR"); a != "" {
		return a
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

func init() {
	createCmd.Flags().StringVar(&createDescription, "description", "", "Issue description")
	createCmd.Flags().IntVar(&createPriority, "priority", 2, "Priority (0-4, lower is more urgent)")
	createCmd.Flags().StringVar(&createAuthor, "author", "", "Author (default: $PEARLS_ACTOR or $USER)")
	createCmd.Flags().StringSliceVar(&createLabels, "label", nil, "Label to attach (repeatable)")
}
