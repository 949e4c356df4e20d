// Package importer bulk-loads records from an external JSONL stream into a
// Store: existing IDs update, new IDs append, and a dry-run previews the
// plan without writing.
package importer

import (
	"context"
	"io"
	"time"

	"github.com/mrorigo/pearls/internal/ids"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/mrorigo/pearls/internal/store"
)

// Options controls import behavior.
type Options struct {
	SkipExisting bool // leave records whose ID is already present untouched
	DryRun       bool // compute the plan but never write
}

// Plan is what an import would do, reported before or instead of writing.
type Plan struct {
	Created []string
	Updated []string
	Skipped []string
}

// Run reads JSONL from r and upserts each record into s according to opts.
// Malformed input is a hard error, mirroring s.LoadAll's own stream
// validation: an import either fully succeeds or makes no change. Records
// arriving with no ID get a fresh content-addressed one minted before
// validation, the same way a created-from-scratch record would.
func Run(ctx context.Context, s *store.Store, r io.Reader, opts Options) (Plan, error) {
	incoming, err := store.ReadAll(r)
	if err != nil {
		return Plan{}, err
	}

	known, err := knownIDs(s)
	if err != nil {
		return Plan{}, err
	}
	exists := func(id string) bool { return known[id] }

	for i := range incoming {
		if incoming[i].ID == "" {
			ts := incoming[i].CreatedAt
			if ts == 0 {
				ts = time.Now().Unix()
				incoming[i].CreatedAt = ts
			}
			id := ids.GenerateUnique(incoming[i].Title, incoming[i].Author, ts, exists)
			incoming[i].ID = id
			known[id] = true
		}
		if err := incoming[i].Validate(); err != nil {
			return Plan{}, err
		}
	}

	var plan Plan
	apply := func(current []model.Record) ([]model.Record, error) {
		existing := make(map[string]int, len(current))
		for i, r := range current {
			existing[r.ID] = i
		}
		for _, rec := range incoming {
			idx, found := existing[rec.ID]
			switch {
			case !found:
				plan.Created = append(plan.Created, rec.ID)
				current = append(current, rec)
				existing[rec.ID] = len(current) - 1
			case opts.SkipExisting:
				plan.Skipped = append(plan.Skipped, rec.ID)
			default:
				plan.Updated = append(plan.Updated, rec.ID)
				current[idx] = rec
			}
		}
		return current, nil
	}

	if opts.DryRun {
		current, err := s.LoadAll()
		if err != nil {
			return Plan{}, err
		}
		if _, err := apply(current); err != nil {
			return Plan{}, err
		}
		return plan, nil
	}

	if err := s.SaveAll(ctx, apply); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// knownIDs collects every ID currently in the active and archived stores,
// the id-generation collision domain a freshly minted ID must avoid.
func knownIDs(s *store.Store) (map[string]bool, error) {
	active, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	archived, err := s.LoadArchived()
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(active)+len(archived))
	for _, r := range active {
		known[r.ID] = true
	}
	for _, r := range archived {
		known[r.ID] = true
	}
	return known, nil
}
