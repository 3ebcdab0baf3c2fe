package restaurants

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/restinspect/platform/pkg/common/models"
	"github.com/restinspect/platform/pkg/store"
)

type Service struct {
	repo *store.Repository
}

func NewService(repo *store.Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a restaurant with its inspections ordered by inspection id.
func (s *Service) Get(ctx context.Context, id int64) (*models.RestaurantWithInspections, error) {
	rest, err := s.repo.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	inspections, err := s.repo.InspectionsForRestaurant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing inspections of restaurant %d: %w", id, err)
	}
	return &models.RestaurantWithInspections{Restaurant: *rest, Inspections: inspections}, nil
}

// ByInspection returns the restaurant an inspection currently belongs to.
func (s *Service) ByInspection(ctx context.Context, inspectionID string) (*models.Restaurant, error) {
	insp, err := s.repo.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetRestaurant(ctx, insp.RestaurantID)
}

// Canonical resolves an inspection to its primary restaurant and the records
// merged into it. Until the primary is resolved, Linked and IDs are empty.
func (s *Service) Canonical(ctx context.Context, inspectionID string) (*models.LinkedRestaurants, error) {
	insp, err := s.repo.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	primaryID, err := s.repo.PrimaryFor(ctx, insp.RestaurantID)
	if errors.Is(err, store.ErrNotFound) {
		primaryID = insp.RestaurantID
	} else if err != nil {
		return nil, fmt.Errorf("finding primary of restaurant %d: %w", insp.RestaurantID, err)
	}

	primary, err := s.repo.GetRestaurant(ctx, primaryID)
	if err != nil {
		return nil, err
	}

	view := &models.LinkedRestaurants{
		Primary: *primary,
		Linked:  []models.Restaurant{},
		IDs:     []int64{},
	}
	if !primary.Resolved {
		return view, nil
	}

	linked, err := s.repo.MergedInto(ctx, primaryID)
	if err != nil {
		return nil, fmt.Errorf("listing records merged into %d: %w", primaryID, err)
	}
	view.Linked = linked
	for _, r := range linked {
		view.IDs = append(view.IDs, r.ID)
	}
	view.IDs = append(view.IDs, primaryID)
	sort.Slice(view.IDs, func(i, j int) bool { return view.IDs[i] < view.IDs[j] })
	return view, nil
}
