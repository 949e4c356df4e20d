package main

import (
	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/graph"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/spf13/cobra"
)

var linkType string

var linkCmd = &cobra.Command{
	Use:   "link [from] [to]",
	Short: "Add a dependency edge between two issues",
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
		depType := model.DependencyType(linkType)
		if !depType.Valid() {
			return errs.New(errs.InvalidRecord, "invalid dep_type %q", linkType)
		}

		return s.SaveAll(cmd.Context(), func(current []model.Record) ([]model.Record, error) {
			archived, err := s.LoadArchived()
			if err != nil {
				return nil, err
			}
			g := graph.FromRecords(current, archived)
			if err := g.AddDependency(fromID, toID, depType); err != nil {
				return nil, err
			}
			for i, r := range current {
				if r.ID == fromID {
					current[i].Deps = append(current[i].Deps, model.Dependency{TargetID: toID, Type: depType})
					current[i].UpdatedAt = nowUnix()
				}
			}
			return current, nil
		})
	},
}

func init() {
	linkCmd.Flags().StringVar(&linkType, "type", string(model.DepBlocks), "Dependency type: blocks|parent-child|related|discovered-from")
}
