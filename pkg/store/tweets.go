package store

import (
	"context"

	"github.com/restinspect/platform/pkg/common/models"
	"gorm.io/gorm/clause"
)

// InsertTweetAssociation is a no-op when the pair is already stored.
func (r *Repository) InsertTweetAssociation(ctx context.Context, assoc models.TweetAssociation) error {
	row := TweetMatch{
		TKey:         assoc.TweetKey,
		RestaurantID: assoc.RestaurantID,
		Match:        string(assoc.Provenance),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (r *Repository) TweetsForRestaurant(ctx context.Context, restaurantID int64) ([]models.TweetAssociation, error) {
	var rows []TweetMatch
	if err := r.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("tkey").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.TweetAssociation, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.TweetAssociation{
			TweetKey:     row.TKey,
			RestaurantID: row.RestaurantID,
			Provenance:   models.Provenance(row.Match),
		})
	}
	return out, nil
}
