package tweets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/restinspect/platform/pkg/common/logger"
	"github.com/restinspect/platform/pkg/common/models"
	"github.com/restinspect/platform/pkg/common/validation"
	"github.com/restinspect/platform/pkg/observability/metrics"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type Service struct {
	store     Store
	matcher   *Matcher
	publisher Publisher
	source    string
}

// NewService wires the matcher to the store. publisher may be nil.
func NewService(store Store, publisher Publisher, source string) *Service {
	return &Service{store: store, matcher: NewMatcher(store), publisher: publisher, source: source}
}

func (s *Service) Process(ctx context.Context, tweet models.Tweet) (*models.TweetMatchResult, error) {
	result, err := s.matcher.Associate(ctx, tweet)
	if err != nil {
		status := "failed"
		if validation.IsValidationError(err) {
			status = "invalid"
		}
		metrics.TweetsProcessed.WithLabelValues(status).Inc()
		return nil, err
	}

	status := "unmatched"
	if len(result.RestaurantIDs) > 0 {
		status = "matched"
	}
	metrics.TweetsProcessed.WithLabelValues(status).Inc()

	logger.WithFields(logrus.Fields{
		"tweet_key": tweet.GetKey(),
		"matches":   len(result.RestaurantIDs),
	}).Debug("Tweet processed")

	if s.publisher != nil && len(result.Matches) > 0 {
		payload := map[string]interface{}{
			"tkey":           result.TweetKey,
			"restaurant_ids": result.RestaurantIDs,
			"matches":        result.Matches,
		}
		if err := s.publisher.PublishEvent(ctx, "tweet-match", s.source, payload); err != nil {
			logger.Get().WithError(err).WithField("tweet_key", tweet.GetKey()).Warn("Failed to publish tweet match")
		}
	}
	return result, nil
}

// ForRestaurant lists the tweets associated with a restaurant, ordered by tweet key.
func (s *Service) ForRestaurant(ctx context.Context, restaurantID int64) ([]models.TweetAssociation, error) {
	assocs, err := s.store.TweetsForRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if assocs == nil {
		assocs = []models.TweetAssociation{}
	}
	return assocs, nil
}

// ParseEvent extracts the tweet carried in a "tweet" event.
func ParseEvent(event models.Event) (models.Tweet, error) {
	var tweet models.Tweet
	payload, ok := event.Data["tweet"]
	if !ok {
		return tweet, validation.New("tweet payload missing from event %s", event.ID)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return tweet, fmt.Errorf("re-encoding tweet payload: %w", err)
	}
	if err := json.Unmarshal(raw, &tweet); err != nil {
		return tweet, validation.New("invalid tweet payload: %v", err)
	}
	return tweet, nil
}
