package resolution

import (
	"context"
	"fmt"

	"github.com/restinspect/platform/pkg/common/models"
)

// LinkWriter is the write surface available inside a cluster transaction.
type LinkWriter interface {
	UpdateRestaurant(ctx context.Context, id int64, name, address string) error
	SetResolved(ctx context.Context, ids []int64) error
	InsertLinkEdge(ctx context.Context, primaryID, originalID int64) error
	RepointInspections(ctx context.Context, oldID, newID int64) error
}

// Store is the record store the engine reads snapshots from and commits clusters to.
// WithTx must roll back every write made through the LinkWriter when fn fails.
type Store interface {
	ListUnresolvedRestaurants(ctx context.Context) ([]models.Restaurant, error)
	ListResolvedRestaurants(ctx context.Context) ([]models.Restaurant, error)
	WithTx(ctx context.Context, fn func(w LinkWriter) error) error
}

// MergePlan is what gets committed for one cluster.
type MergePlan struct {
	PrimaryID int64
	// Name and Address are written to the primary when Rename is set.
	Name    string
	Address string
	Rename  bool
	// Members receive a link edge, have their inspections re-pointed and are
	// flagged resolved. Members that already own an edge must not be listed.
	Members []int64
}

type CommitResult struct {
	Edges    int
	Repoints int
	Renamed  bool
}

type Linker struct{}

// RecordMerge writes one edge per member. Each member id may only ever be
// recorded once.
func (Linker) RecordMerge(ctx context.Context, w LinkWriter, primaryID int64, memberIDs []int64) error {
	for _, id := range memberIDs {
		if err := w.InsertLinkEdge(ctx, primaryID, id); err != nil {
			return fmt.Errorf("inserting link edge (%d,%d): %w", primaryID, id, err)
		}
	}
	return nil
}

// Repoint moves inspections from oldID to newID. It is a no-op when they match.
func (Linker) Repoint(ctx context.Context, w LinkWriter, oldID, newID int64) (bool, error) {
	if oldID == newID {
		return false, nil
	}
	if err := w.RepointInspections(ctx, oldID, newID); err != nil {
		return false, fmt.Errorf("repointing inspections %d -> %d: %w", oldID, newID, err)
	}
	return true, nil
}

// Commit applies a plan atomically.
func (l Linker) Commit(ctx context.Context, store Store, plan MergePlan) (CommitResult, error) {
	var result CommitResult
	if len(plan.Members) == 0 {
		return result, nil
	}

	err := store.WithTx(ctx, func(w LinkWriter) error {
		result = CommitResult{}
		if plan.Rename {
			if err := w.UpdateRestaurant(ctx, plan.PrimaryID, plan.Name, plan.Address); err != nil {
				return fmt.Errorf("updating primary %d: %w", plan.PrimaryID, err)
			}
			result.Renamed = true
		}
		if err := l.RecordMerge(ctx, w, plan.PrimaryID, plan.Members); err != nil {
			return err
		}
		result.Edges = len(plan.Members)
		for _, id := range plan.Members {
			moved, err := l.Repoint(ctx, w, id, plan.PrimaryID)
			if err != nil {
				return err
			}
			if moved {
				result.Repoints++
			}
		}
		if err := w.SetResolved(ctx, plan.Members); err != nil {
			return fmt.Errorf("marking members resolved: %w", err)
		}
		return nil
	})
	if err != nil {
		return CommitResult{}, err
	}
	return result, nil
}
