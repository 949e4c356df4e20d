package main

import (
	"github.com/mrorigo/pearls/internal/ids"
	"github.com/mrorigo/pearls/internal/store"
)

// resolveID accepts either a full ID or a partial (>=3 char, with or
// without the "prl-" prefix) and resolves it against active IDs, plus
// archived IDs when --include-archived is set.
func resolveID(s *store.Store, partial string) (string, error) {
	active, err := s.LoadAll()
	if err != nil {
		return "", err
	}
	all := make([]string, 0, len(active))
	for _, r := range active {
		all = append(all, r.ID)
	}
	if includeArchived {
		archived, err := s.LoadArchived()
		if err != nil {
			return "", err
		}
		for _, r := range archived {
			all = append(all, r.ID)
		}
	}
	return ids.Resolve(partial, all)
}
