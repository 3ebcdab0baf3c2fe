package resolution

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/restinspect/platform/pkg/common/database"
	"github.com/restinspect/platform/pkg/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRecorder struct {
	mu   sync.Mutex
	runs map[string]models.ResolutionRun
}

func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{runs: make(map[string]models.ResolutionRun)}
}

func (r *memoryRecorder) StartRun(ctx context.Context, run *models.ResolutionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

func (r *memoryRecorder) FinishRun(ctx context.Context, run *models.ResolutionRun) error {
	return r.StartRun(ctx, run)
}

func (r *memoryRecorder) GetRun(ctx context.Context, id string) (*models.ResolutionRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	return &run, nil
}

type capturedEvent struct {
	eventType string
	data      map[string]interface{}
}

type memoryPublisher struct {
	events []capturedEvent
}

func (p *memoryPublisher) PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error {
	p.events = append(p.events, capturedEvent{eventType: eventType, data: data})
	return nil
}

type busyLocker struct{}

func (busyLocker) WithLock(ctx context.Context, name string, ttl time.Duration, fn func() error) error {
	return database.ErrLockNotAcquired
}

type passLocker struct{ names []string }

func (l *passLocker) WithLock(ctx context.Context, name string, ttl time.Duration, fn func() error) error {
	l.names = append(l.names, name)
	return fn()
}

func TestServiceRunRecordsAndPublishes(t *testing.T) {
	recorder := newMemoryRecorder()
	publisher := &memoryPublisher{}
	locker := &passLocker{}
	svc := NewService(newTestEngine(t, starbucksStore(), Options{}),
		WithRecorder(recorder), WithPublisher(publisher), WithLocker(locker, time.Minute))

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.LinkEdges)
	assert.Equal(t, "unblocked", summary.Mode)
	assert.Equal(t, "greedy", summary.Strategy)
	assert.Equal(t, []string{"resolution-pass"}, locker.names)

	run, err := svc.GetRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, run.Status)
	assert.NotNil(t, run.FinishedAt)
	assert.Equal(t, 1, run.Stats["clusters"])

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "resolution", publisher.events[0].eventType)
	assert.Equal(t, summary.RunID, publisher.events[0].data["run_id"])
}

func TestServiceRecordsFailedRun(t *testing.T) {
	store := starbucksStore()
	store.failEdgeFor = 2
	recorder := newMemoryRecorder()
	svc := NewService(newTestEngine(t, store, Options{}), WithRecorder(recorder))

	summary, err := svc.Run(context.Background())
	require.ErrorIs(t, err, errInjected)
	require.NotNil(t, summary)
	assert.NotEmpty(t, summary.ErrorMessage)

	run, err := svc.GetRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, errInjected.Error())
}

func TestServiceRejectsConcurrentPass(t *testing.T) {
	store := starbucksStore()
	store.listGate = make(chan struct{})
	store.listed = make(chan struct{})
	svc := NewService(newTestEngine(t, store, Options{}))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background())
		done <- err
	}()
	<-store.listed

	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, ErrPassInProgress)

	close(store.listGate)
	require.NoError(t, <-done)
	assert.Len(t, store.edgeSet(), 3)
}

func TestServiceMapsLockContention(t *testing.T) {
	svc := NewService(newTestEngine(t, starbucksStore(), Options{}), WithLocker(busyLocker{}, time.Minute))

	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, ErrPassInProgress)
}

func TestServiceGetRunWithoutRecorder(t *testing.T) {
	svc := NewService(newTestEngine(t, newMemoryStore(), Options{}))

	_, err := svc.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func newTestRouter(svc *Service) *mux.Router {
	router := mux.NewRouter()
	NewHTTPHandler(svc).Register(router)
	return router
}

func TestHTTPCleanReturnsSummary(t *testing.T) {
	svc := NewService(newTestEngine(t, starbucksStore(), Options{}), WithRecorder(newMemoryRecorder()))
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/clean", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary models.ResolutionSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, 3, summary.Processed)
	assert.NotEmpty(t, summary.RunID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clean/runs/"+summary.RunID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var run models.ResolutionRun
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&run))
	assert.Equal(t, models.RunStatusSucceeded, run.Status)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clean/runs/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPCleanConflict(t *testing.T) {
	svc := NewService(newTestEngine(t, starbucksStore(), Options{}), WithLocker(busyLocker{}, time.Minute))

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clean", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
