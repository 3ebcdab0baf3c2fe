package tweets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/restinspect/platform/pkg/common/models"
	"github.com/restinspect/platform/pkg/common/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPublisher struct {
	types []string
	data  []map[string]interface{}
}

func (p *memoryPublisher) PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error {
	p.types = append(p.types, eventType)
	p.data = append(p.data, data)
	return nil
}

func TestServicePublishesMatches(t *testing.T) {
	publisher := &memoryPublisher{}
	svc := NewService(diners(), publisher, "test")

	result, err := svc.Process(context.Background(), models.NewTweet("t1", "Subway again"))
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, result.RestaurantIDs)
	assert.Equal(t, []string{"tweet-match"}, publisher.types)
	assert.Equal(t, "t1", publisher.data[0]["tkey"])

	_, err = svc.Process(context.Background(), models.NewTweet("t2", "nothing here"))
	require.NoError(t, err)
	assert.Len(t, publisher.types, 1)
}

func TestServiceForRestaurantNeverNil(t *testing.T) {
	svc := NewService(diners(), nil, "test")

	assocs, err := svc.ForRestaurant(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, assocs)
	assert.Empty(t, assocs)
}

func TestParseEvent(t *testing.T) {
	event := models.Event{ID: "e1", Data: map[string]interface{}{
		"tweet": map[string]interface{}{"key": "t1", "text": "Joes Diner", "lat": "41.8", "long": ""},
	}}

	tweet, err := ParseEvent(event)
	require.NoError(t, err)
	assert.Equal(t, "t1", tweet.GetKey())
	assert.True(t, tweet.Lat.Valid)
	assert.False(t, tweet.HasLocation())

	_, err = ParseEvent(models.Event{ID: "e2", Data: map[string]interface{}{}})
	assert.True(t, validation.IsValidationError(err))
}

func newTestRouter(svc *Service) *mux.Router {
	router := mux.NewRouter()
	NewHTTPHandler(svc).Register(router)
	return router
}

func TestHTTPTweetRoundTrip(t *testing.T) {
	router := newTestRouter(NewService(diners(), nil, "test"))

	body := `{"key":"t9","lat":41.8015,"long":-87.6020,"text":"Joe's Diner rocks","author":"sam"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tweet", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var result models.TweetMatchResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, []int64{1, 3}, result.RestaurantIDs)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tweets/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var assocs []models.TweetAssociation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&assocs))
	require.Len(t, assocs, 1)
	assert.Equal(t, "t9", assocs[0].TweetKey)
	assert.Equal(t, models.ProvenanceBoth, assocs[0].Provenance)
}

func TestHTTPTweetValidation(t *testing.T) {
	store := diners()
	router := newTestRouter(NewService(store, nil, "test"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tweet", strings.NewReader(`{"text":"Subway"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tweet", strings.NewReader(`{"key":"t1","lat":41.9,"long":-87.6}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tweet", strings.NewReader(`{"key":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tweets/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, store.assocs)
}
