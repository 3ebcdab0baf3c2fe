package store

import (
	"context"

	"github.com/restinspect/platform/pkg/common/models"
)

func (r *Repository) InsertLinkEdge(ctx context.Context, primaryID, originalID int64) error {
	return r.db.WithContext(ctx).Create(&Link{PrimaryRestID: primaryID, OriginalRestID: originalID}).Error
}

// PrimaryFor returns the primary an original record was merged into.
func (r *Repository) PrimaryFor(ctx context.Context, originalID int64) (int64, error) {
	var link Link
	if err := r.db.WithContext(ctx).First(&link, "original_rest_id = ?", originalID).Error; err != nil {
		return 0, notFound(err)
	}
	return link.PrimaryRestID, nil
}

// MergedInto returns the restaurants merged into primaryID, excluding the
// primary itself, ordered by id.
func (r *Repository) MergedInto(ctx context.Context, primaryID int64) ([]models.Restaurant, error) {
	var rows []Restaurant
	err := r.db.WithContext(ctx).
		Joins("JOIN ri_linked ON ri_linked.original_rest_id = ri_restaurants.id").
		Where("ri_linked.primary_rest_id = ? AND ri_linked.original_rest_id <> ?", primaryID, primaryID).
		Order("ri_restaurants.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return restaurantsToModels(rows), nil
}

func (r *Repository) ListLinkEdges(ctx context.Context) ([]models.LinkEdge, error) {
	var rows []Link
	if err := r.db.WithContext(ctx).Order("original_rest_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.LinkEdge, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.LinkEdge{PrimaryID: row.PrimaryRestID, OriginalID: row.OriginalRestID})
	}
	return out, nil
}
