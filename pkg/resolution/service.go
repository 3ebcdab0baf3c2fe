package resolution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/restinspect/platform/pkg/common/database"
	"github.com/restinspect/platform/pkg/common/logger"
	"github.com/restinspect/platform/pkg/common/models"
	"github.com/restinspect/platform/pkg/observability/metrics"
	"github.com/sirupsen/logrus"
)

const lockName = "resolution-pass"

var (
	ErrPassInProgress = errors.New("resolution pass already in progress")
	ErrRunNotFound    = errors.New("resolution run not found")
)

// Locker serializes passes across replicas.
type Locker interface {
	WithLock(ctx context.Context, name string, ttl time.Duration, fn func() error) error
}

// RunRecorder persists the audit trail of passes. GetRun returns an error
// wrapping ErrRunNotFound for unknown ids.
type RunRecorder interface {
	StartRun(ctx context.Context, run *models.ResolutionRun) error
	FinishRun(ctx context.Context, run *models.ResolutionRun) error
	GetRun(ctx context.Context, id string) (*models.ResolutionRun, error)
}

type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type Service struct {
	engine    *Engine
	recorder  RunRecorder
	locker    Locker
	lockTTL   time.Duration
	publisher Publisher

	// mu keeps a single pass running per process; locker extends that to
	// every replica.
	mu sync.Mutex
}

type ServiceOption func(*Service)

func WithRecorder(r RunRecorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

func WithLocker(l Locker, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.locker = l
		s.lockTTL = ttl
	}
}

func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

func NewService(engine *Engine, opts ...ServiceOption) *Service {
	s := &Service{engine: engine, lockTTL: 10 * time.Minute}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one resolution pass. It fails with ErrPassInProgress when a
// pass is already running here or, with a Locker, on another replica.
func (s *Service) Run(ctx context.Context) (*models.ResolutionSummary, error) {
	if !s.mu.TryLock() {
		return nil, ErrPassInProgress
	}
	defer s.mu.Unlock()

	if s.locker == nil {
		return s.run(ctx)
	}

	var summary *models.ResolutionSummary
	err := s.locker.WithLock(ctx, lockName, s.lockTTL, func() error {
		var runErr error
		summary, runErr = s.run(ctx)
		return runErr
	})
	if errors.Is(err, database.ErrLockNotAcquired) {
		return nil, ErrPassInProgress
	}
	return summary, err
}

func (s *Service) run(ctx context.Context) (*models.ResolutionSummary, error) {
	mode, strategy := string(s.engine.Mode()), string(s.engine.Strategy())
	run := &models.ResolutionRun{
		ID:        uuid.New().String(),
		Mode:      mode,
		Strategy:  strategy,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if s.recorder != nil {
		if err := s.recorder.StartRun(ctx, run); err != nil {
			return nil, fmt.Errorf("recording resolution run: %w", err)
		}
	}

	report, runErr := s.engine.Run(ctx)
	finished := time.Now().UTC()
	elapsed := finished.Sub(run.StartedAt)

	summary := &models.ResolutionSummary{
		RunID:       run.ID,
		Mode:        mode,
		Strategy:    strategy,
		Processed:   report.Processed,
		Clusters:    report.Clusters,
		Singletons:  report.Singletons,
		LinkEdges:   report.LinkEdges,
		Repointed:   report.Repointed,
		Renamed:     report.Renamed,
		Duration:    elapsed,
		CompletedAt: finished,
	}

	run.Status = models.RunStatusSucceeded
	run.FinishedAt = &finished
	run.Stats = map[string]interface{}{
		"processed":  report.Processed,
		"clusters":   report.Clusters,
		"singletons": report.Singletons,
		"link_edges": report.LinkEdges,
		"repointed":  report.Repointed,
		"renamed":    report.Renamed,
	}
	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.Error = runErr.Error()
		summary.ErrorMessage = runErr.Error()
	}
	metrics.ObservePass(mode, strategy, string(run.Status), elapsed)

	if s.recorder != nil {
		if err := s.recorder.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Get().WithError(err).WithField("run_id", run.ID).Error("Failed to record resolution run outcome")
		}
	}
	s.publish(ctx, summary, run.Status)

	entry := logger.WithFields(logrus.Fields{
		"run_id":     run.ID,
		"mode":       mode,
		"strategy":   strategy,
		"processed":  report.Processed,
		"clusters":   report.Clusters,
		"singletons": report.Singletons,
		"link_edges": report.LinkEdges,
		"duration":   elapsed.String(),
	})
	if runErr != nil {
		entry.WithError(runErr).Error("Resolution pass failed")
		return summary, runErr
	}
	entry.Info("Resolution pass completed")
	return summary, nil
}

func (s *Service) publish(ctx context.Context, summary *models.ResolutionSummary, status models.RunStatus) {
	if s.publisher == nil {
		return
	}
	payload := map[string]interface{}{
		"run_id":     summary.RunID,
		"status":     string(status),
		"mode":       summary.Mode,
		"strategy":   summary.Strategy,
		"processed":  summary.Processed,
		"clusters":   summary.Clusters,
		"singletons": summary.Singletons,
		"link_edges": summary.LinkEdges,
	}
	if err := s.publisher.PublishEvent(ctx, "resolution", "inspection-service", payload); err != nil {
		logger.Get().WithError(err).WithField("run_id", summary.RunID).Warn("Failed to publish resolution event")
	}
}

// GetRun looks up the audit record of a pass.
func (s *Service) GetRun(ctx context.Context, id string) (*models.ResolutionRun, error) {
	if s.recorder == nil {
		return nil, ErrRunNotFound
	}
	return s.recorder.GetRun(ctx, id)
}
