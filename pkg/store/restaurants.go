package store

import (
	"context"
	"fmt"

	"github.com/restinspect/platform/pkg/common/models"
)

func (r *Repository) ListUnresolvedRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	return r.listRestaurants(ctx, false)
}

func (r *Repository) ListResolvedRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	return r.listRestaurants(ctx, true)
}

func (r *Repository) listRestaurants(ctx context.Context, clean bool) ([]models.Restaurant, error) {
	var rows []Restaurant
	if err := r.db.WithContext(ctx).Where("clean = ?", clean).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return restaurantsToModels(rows), nil
}

func (r *Repository) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	var row Restaurant
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	rest := row.toModel()
	return &rest, nil
}

// FindRestaurant looks a restaurant up by its exact name and address.
func (r *Repository) FindRestaurant(ctx context.Context, name, address string) (*models.Restaurant, error) {
	var row Restaurant
	err := r.db.WithContext(ctx).
		Where("name = ? AND address = ?", name, address).
		Order("id").
		First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	rest := row.toModel()
	return &rest, nil
}

// CreateRestaurant inserts rest and sets its generated id.
func (r *Repository) CreateRestaurant(ctx context.Context, rest *models.Restaurant) error {
	row := restaurantFromModel(*rest)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	rest.ID = row.ID
	return nil
}

func (r *Repository) UpdateRestaurant(ctx context.Context, id int64, name, address string) error {
	result := r.db.WithContext(ctx).Model(&Restaurant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":    name,
			"address": address,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("restaurant %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *Repository) SetResolved(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&Restaurant{}).
		Where("id IN ?", ids).
		Update("clean", true).Error
}

func (r *Repository) FindRestaurantsByExactName(ctx context.Context, names []string) ([]int64, error) {
	ids := []int64{}
	if len(names) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).Model(&Restaurant{}).
		Where("name IN ?", names).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *Repository) FindRestaurantsByBoundingBox(ctx context.Context, box models.BoundingBox) ([]int64, error) {
	ids := []int64{}
	err := r.db.WithContext(ctx).Model(&Restaurant{}).
		Where("latitude >= ? AND latitude <= ?", box.MinLat, box.MaxLat).
		Where("longitude >= ? AND longitude <= ?", box.MinLong, box.MaxLong).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}
