package tweets

import (
	"context"
	"fmt"
	"sort"

	"github.com/restinspect/platform/pkg/common/models"
	"github.com/restinspect/platform/pkg/common/validation"
	"github.com/restinspect/platform/pkg/observability/metrics"
)

// Half-widths of the box around a tweet's coordinates, in degrees.
const (
	LatTolerance  = 0.00225001
	LongTolerance = 0.00302190
)

type Store interface {
	FindRestaurantsByExactName(ctx context.Context, names []string) ([]int64, error)
	FindRestaurantsByBoundingBox(ctx context.Context, box models.BoundingBox) ([]int64, error)
	InsertTweetAssociation(ctx context.Context, assoc models.TweetAssociation) error
	TweetsForRestaurant(ctx context.Context, restaurantID int64) ([]models.TweetAssociation, error)
}

func BoundingBoxAround(lat, long float64) models.BoundingBox {
	return models.BoundingBox{
		MinLat:  lat - LatTolerance,
		MaxLat:  lat + LatTolerance,
		MinLong: long - LongTolerance,
		MaxLong: long + LongTolerance,
	}
}

type Matcher struct {
	store Store
}

func NewMatcher(store Store) *Matcher {
	return &Matcher{store: store}
}

// Match associates a tweet with restaurants and returns the matched ids in
// ascending order.
func (m *Matcher) Match(ctx context.Context, tweet models.Tweet) ([]int64, error) {
	result, err := m.Associate(ctx, tweet)
	if err != nil {
		return nil, err
	}
	return result.RestaurantIDs, nil
}

// Associate matches a tweet by name n-grams and, when it carries
// coordinates, by proximity, then persists one association per matched
// restaurant. Associations are written one at a time and are safe to replay.
func (m *Matcher) Associate(ctx context.Context, tweet models.Tweet) (*models.TweetMatchResult, error) {
	if err := validation.Struct(tweet); err != nil {
		return nil, err
	}

	byName := make(map[int64]struct{})
	if candidates := Candidates(tweet.GetText()); len(candidates) > 0 {
		ids, err := m.store.FindRestaurantsByExactName(ctx, candidates)
		if err != nil {
			return nil, fmt.Errorf("matching restaurant names: %w", err)
		}
		for _, id := range ids {
			byName[id] = struct{}{}
		}
	}

	byGeo := make(map[int64]struct{})
	if tweet.HasLocation() {
		ids, err := m.store.FindRestaurantsByBoundingBox(ctx, BoundingBoxAround(tweet.Lat.Value, tweet.Long.Value))
		if err != nil {
			return nil, fmt.Errorf("matching restaurant locations: %w", err)
		}
		for _, id := range ids {
			byGeo[id] = struct{}{}
		}
	}

	result := &models.TweetMatchResult{
		TweetKey:      tweet.GetKey(),
		RestaurantIDs: []int64{},
		Matches:       []models.TweetAssociation{},
	}
	for _, id := range union(byName, byGeo) {
		assoc := models.TweetAssociation{
			TweetKey:     tweet.GetKey(),
			RestaurantID: id,
			Provenance:   classify(id, byName, byGeo),
		}
		if err := m.store.InsertTweetAssociation(ctx, assoc); err != nil {
			return nil, fmt.Errorf("saving association of tweet %s with restaurant %d: %w", tweet.GetKey(), id, err)
		}
		metrics.TweetAssociations.WithLabelValues(string(assoc.Provenance)).Inc()
		result.RestaurantIDs = append(result.RestaurantIDs, id)
		result.Matches = append(result.Matches, assoc)
	}
	return result, nil
}

func classify(id int64, byName, byGeo map[int64]struct{}) models.Provenance {
	_, name := byName[id]
	_, geo := byGeo[id]
	switch {
	case name && geo:
		return models.ProvenanceBoth
	case geo:
		return models.ProvenanceGeo
	default:
		return models.ProvenanceName
	}
}

func union(sets ...map[int64]struct{}) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, set := range sets {
		for id := range set {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
