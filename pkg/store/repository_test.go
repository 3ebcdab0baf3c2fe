package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/restinspect/platform/pkg/common/database"
	"github.com/restinspect/platform/pkg/common/models"
	"github.com/restinspect/platform/pkg/resolution"
	"github.com/restinspect/platform/pkg/tweets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	repo := NewRepository(db)
	require.NoError(t, repo.AutoMigrate())
	return repo
}

func seedRestaurant(t *testing.T, repo *Repository, r models.Restaurant) int64 {
	t.Helper()
	require.NoError(t, repo.CreateRestaurant(context.Background(), &r))
	return r.ID
}

func seedInspection(t *testing.T, repo *Repository, id string, restaurantID int64) {
	t.Helper()
	require.NoError(t, repo.CreateInspection(context.Background(), models.Inspection{
		ID:           id,
		Risk:         "Risk 1 (High)",
		Date:         time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC),
		Results:      "Pass",
		RestaurantID: restaurantID,
	}))
}

func seedStarbucks(t *testing.T, repo *Repository) {
	t.Helper()
	seedRestaurant(t, repo, models.Restaurant{Name: "STARBUCKS", Address: "123 MAIN ST", City: "CHICAGO", State: "IL", Zip: "60601", Latitude: 41.8000, Longitude: -87.6000})
	seedRestaurant(t, repo, models.Restaurant{Name: "STARBUCKS COFFEE", Address: "123 MAIN STREET", City: "CHICAGO", State: "IL", Zip: "60601", Latitude: 41.8001, Longitude: -87.6001})
	seedRestaurant(t, repo, models.Restaurant{Name: "JOE'S DINER", Address: "55 STATE ST", City: "CHICAGO", State: "IL", Zip: "60603", Latitude: 41.9000, Longitude: -87.6500})
	seedInspection(t, repo, "1001", 1)
	seedInspection(t, repo, "1002", 2)
	seedInspection(t, repo, "1003", 3)
}

func TestRestaurantLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id := seedRestaurant(t, repo, models.Restaurant{Name: "SUBWAY", Address: "1 LAKE ST", Zip: "60601"})
	assert.Equal(t, int64(1), id)

	found, err := repo.FindRestaurant(ctx, "SUBWAY", "1 LAKE ST")
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)
	assert.False(t, found.Resolved)

	_, err = repo.FindRestaurant(ctx, "SUBWAY", "2 LAKE ST")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.UpdateRestaurant(ctx, id, "SUBWAY SANDWICHES", "1 LAKE STREET"))
	assert.ErrorIs(t, repo.UpdateRestaurant(ctx, 99, "X", "Y"), ErrNotFound)

	require.NoError(t, repo.SetResolved(ctx, []int64{id}))
	got, err := repo.GetRestaurant(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "SUBWAY SANDWICHES", got.Name)
	assert.True(t, got.Resolved)

	unresolved, err := repo.ListUnresolvedRestaurants(ctx)
	require.NoError(t, err)
	assert.Empty(t, unresolved)

	resolved, err := repo.ListResolvedRestaurants(ctx)
	require.NoError(t, err)
	assert.Len(t, resolved, 1)

	_, err = repo.GetRestaurant(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNameAndBoundingBoxLookups(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedStarbucks(t, repo)

	ids, err := repo.FindRestaurantsByExactName(ctx, []string{"STARBUCKS", "JOE'S DINER", "NOPE"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)

	ids, err = repo.FindRestaurantsByExactName(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = repo.FindRestaurantsByBoundingBox(ctx, tweets.BoundingBoxAround(41.8015, -87.6020))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	ids, err = repo.FindRestaurantsByBoundingBox(ctx, tweets.BoundingBoxAround(41.9500, -87.6000))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestInspections(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedStarbucks(t, repo)
	seedInspection(t, repo, "0999", 1)

	exists, err := repo.InspectionExists(ctx, "1001")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.InspectionExists(ctx, "5555")
	require.NoError(t, err)
	assert.False(t, exists)

	list, err := repo.InspectionsForRestaurant(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "0999", list[0].ID)

	require.NoError(t, repo.RepointInspections(ctx, 1, 2))
	insp, err := repo.GetInspection(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, int64(2), insp.RestaurantID)

	count, err := repo.CountInspections(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	_, err = repo.GetInspection(ctx, "5555")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkEdgesAreUniquePerOriginal(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertLinkEdge(ctx, 1, 2))
	assert.Error(t, repo.InsertLinkEdge(ctx, 1, 2))
	assert.Error(t, repo.InsertLinkEdge(ctx, 3, 2))

	primary, err := repo.PrimaryFor(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), primary)

	_, err = repo.PrimaryFor(ctx, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedStarbucks(t, repo)

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(w resolution.LinkWriter) error {
		require.NoError(t, w.UpdateRestaurant(ctx, 1, "RENAMED", "ELSEWHERE"))
		require.NoError(t, w.InsertLinkEdge(ctx, 1, 1))
		require.NoError(t, w.RepointInspections(ctx, 2, 1))
		require.NoError(t, w.SetResolved(ctx, []int64{1, 2}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	edges, err := repo.ListLinkEdges(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)

	rest, err := repo.GetRestaurant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "STARBUCKS", rest.Name)
	assert.False(t, rest.Resolved)

	insp, err := repo.GetInspection(ctx, "1002")
	require.NoError(t, err)
	assert.Equal(t, int64(2), insp.RestaurantID)
}

func TestResolutionPassAgainstDatabase(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedStarbucks(t, repo)

	engine, err := resolution.NewEngine(repo, resolution.Options{})
	require.NoError(t, err)
	report, err := engine.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Clusters)
	assert.Equal(t, 1, report.Singletons)

	edges, err := repo.ListLinkEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.LinkEdge{
		{PrimaryID: 1, OriginalID: 1},
		{PrimaryID: 1, OriginalID: 2},
		{PrimaryID: 3, OriginalID: 3},
	}, edges)

	primary, err := repo.GetRestaurant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "STARBUCKS COFFEE", primary.Name)
	assert.Equal(t, "123 MAIN STREET", primary.Address)

	insp, err := repo.GetInspection(ctx, "1002")
	require.NoError(t, err)
	assert.Equal(t, int64(1), insp.RestaurantID)

	merged, err := repo.MergedInto(ctx, 1)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, int64(2), merged[0].ID)

	unresolved, err := repo.ListUnresolvedRestaurants(ctx)
	require.NoError(t, err)
	assert.Empty(t, unresolved)

	again, err := engine.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, resolution.Report{}, again)
}

func TestTweetAssociationsAreIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedStarbucks(t, repo)

	matcher := tweets.NewMatcher(repo)
	tweet := models.NewTweet("t2", "coffee at STARBUCKS")
	tweet.Lat = models.NewCoordinate(41.8015)
	tweet.Long = models.NewCoordinate(-87.6020)
	ids, err := matcher.Match(ctx, tweet)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	_, err = matcher.Match(ctx, tweet)
	require.NoError(t, err)
	require.NoError(t, repo.InsertTweetAssociation(ctx, models.TweetAssociation{TweetKey: "t1", RestaurantID: 1, Provenance: models.ProvenanceName}))

	assocs, err := repo.TweetsForRestaurant(ctx, 1)
	require.NoError(t, err)
	require.Len(t, assocs, 2)
	assert.Equal(t, "t1", assocs[0].TweetKey)
	assert.Equal(t, "t2", assocs[1].TweetKey)
	assert.Equal(t, models.ProvenanceBoth, assocs[1].Provenance)

	assocs, err = repo.TweetsForRestaurant(ctx, 2)
	require.NoError(t, err)
	require.Len(t, assocs, 1)
	assert.Equal(t, models.ProvenanceGeo, assocs[0].Provenance)
}

func TestResolutionRuns(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	run := &models.ResolutionRun{
		ID:        "run-1",
		Mode:      "unblocked",
		Strategy:  "greedy",
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.StartRun(ctx, run))

	finished := time.Now().UTC()
	run.Status = models.RunStatusSucceeded
	run.FinishedAt = &finished
	run.Stats = map[string]interface{}{"clusters": 2, "ratio": 0.5}
	require.NoError(t, repo.FinishRun(ctx, run))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, int64(2), got.Stats["clusters"])
	assert.Equal(t, 0.5, got.Stats["ratio"])

	_, err = repo.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, resolution.ErrRunNotFound)
}
