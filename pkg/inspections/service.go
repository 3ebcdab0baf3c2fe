package inspections

import (
	"context"
	"errors"
	"fmt"

	"github.com/restinspect/platform/pkg/common/logger"
	"github.com/restinspect/platform/pkg/common/models"
	"github.com/restinspect/platform/pkg/store"
	"github.com/sirupsen/logrus"
)

type LoadResult struct {
	RestaurantID int64 `json:"restaurant_id"`
	// Created reports whether the restaurant was inserted by this load.
	Created bool `json:"-"`
}

type Service struct {
	repo *store.Repository
}

func NewService(repo *store.Repository) *Service {
	return &Service{repo: repo}
}

// Load finds the restaurant by exact name and address, creating it
// unresolved when absent, then stores the inspection unless its id is
// already known. Both writes share one transaction.
func (s *Service) Load(ctx context.Context, req LoadRequest) (*LoadResult, error) {
	rest, insp, err := req.ToModels()
	if err != nil {
		return nil, err
	}

	var result LoadResult
	err = s.repo.Transaction(ctx, func(repo *store.Repository) error {
		existing, err := repo.FindRestaurant(ctx, rest.Name, rest.Address)
		switch {
		case err == nil:
			result.RestaurantID = existing.ID
		case errors.Is(err, store.ErrNotFound):
			if err := repo.CreateRestaurant(ctx, &rest); err != nil {
				return fmt.Errorf("creating restaurant: %w", err)
			}
			result.RestaurantID = rest.ID
			result.Created = true
		default:
			return fmt.Errorf("finding restaurant: %w", err)
		}

		exists, err := repo.InspectionExists(ctx, insp.ID)
		if err != nil {
			return fmt.Errorf("checking inspection %s: %w", insp.ID, err)
		}
		if exists {
			return nil
		}
		insp.RestaurantID = result.RestaurantID
		if err := repo.CreateInspection(ctx, insp); err != nil {
			return fmt.Errorf("creating inspection %s: %w", insp.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"restaurant_id": result.RestaurantID,
		"inspection_id": insp.ID,
		"created":       result.Created,
	}).Debug("Inspection loaded")
	return &result, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.CountInspections(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Inspection, error) {
	return s.repo.GetInspection(ctx, id)
}
