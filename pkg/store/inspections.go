package store

import (
	"context"

	"github.com/restinspect/platform/pkg/common/models"
)

func (r *Repository) GetInspection(ctx context.Context, id string) (*models.Inspection, error) {
	var row Inspection
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	insp := row.toModel()
	return &insp, nil
}

func (r *Repository) InspectionExists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Inspection{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CreateInspection(ctx context.Context, insp models.Inspection) error {
	row := inspectionFromModel(insp)
	return r.db.WithContext(ctx).Create(&row).Error
}

// InspectionsForRestaurant returns the inspections of a restaurant ordered by id.
func (r *Repository) InspectionsForRestaurant(ctx context.Context, restaurantID int64) ([]models.Inspection, error) {
	var rows []Inspection
	if err := r.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Inspection, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *Repository) RepointInspections(ctx context.Context, oldID, newID int64) error {
	return r.db.WithContext(ctx).Model(&Inspection{}).
		Where("restaurant_id = ?", oldID).
		Update("restaurant_id", newID).Error
}

func (r *Repository) CountInspections(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Inspection{}).Count(&count).Error
	return count, err
}
