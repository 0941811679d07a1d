package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/example/srscore/internal/config"
	"github.com/example/srscore/internal/engine"
	"github.com/example/srscore/internal/forgetting"
	"github.com/example/srscore/pkg/models"
)

// jobTimeout bounds a single job run against the database
const jobTimeout = 2 * time.Minute

// CardStore is the card persistence the jobs need
type CardStore interface {
	ListAll(ctx context.Context) ([]models.Card, error)
	SaveAll(ctx context.Context, cards []models.Card) error
}

// CurveStore is the curve persistence the jobs need
type CurveStore interface {
	LoadAll(ctx context.Context) ([]models.ForgettingCurve, error)
	SaveAll(ctx context.Context, curves []models.ForgettingCurve) error
	DeleteKeys(ctx context.Context, keys []forgetting.Key) (int, error)
}

// Scheduler runs the periodic maintenance jobs. Every job body holds the same
// mutex, so the engine's curve store is never mutated concurrently.
type Scheduler struct {
	scheduler *gocron.Scheduler
	engine    *engine.Engine
	cards     CardStore
	curves    CurveStore
	intervals config.JobsConfig
	logger    *zap.Logger
	mu        sync.Mutex

	// curves dropped by cleanup and not yet deleted from storage,
	// with the LastUpdated they had when dropped
	removed map[forgetting.Key]time.Time
}

// New creates a new scheduler instance
func New(e *engine.Engine, cards CardStore, curves CurveStore, intervals config.JobsConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		engine:    e,
		cards:     cards,
		curves:    curves,
		intervals: intervals,
		logger:    logger,
		removed:   make(map[forgetting.Key]time.Time),
	}
}

// Start registers every job and runs the scheduler in the background
func (s *Scheduler) Start() error {
	s.scheduler.SingletonModeAll()

	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context) error
	}{
		{"cleanup_curves", s.intervals.CleanupInterval, s.CleanupCurves},
		{"snapshot_curves", s.intervals.SnapshotInterval, s.SnapshotCurves},
		{"refresh_priorities", s.intervals.PriorityRefreshInterval, s.RefreshPriorities},
	}
	for _, job := range jobs {
		_, err := s.scheduler.Every(job.interval).WaitForSchedule().Tag(job.name).Do(func() {
			s.runJob(job.name, job.run)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
		s.logger.Info("job scheduled", zap.String("job", job.name), zap.Duration("every", job.interval))
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks and waits for running ones
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runJob(name string, run func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := run(ctx); err != nil {
		s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
		return
	}
	s.logger.Debug("job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

// RunAll runs every job once, in order, e.g. on shutdown
func (s *Scheduler) RunAll(ctx context.Context) error {
	for _, run := range []func(context.Context) error{s.CleanupCurves, s.RefreshPriorities, s.SnapshotCurves} {
		if err := run(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Do runs fn while holding the job lock, for callers sharing the engine with the jobs
func (s *Scheduler) Do(fn func(e *engine.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

// CleanupCurves drops stale curves from memory; the next snapshot deletes them from storage
func (s *Scheduler) CleanupCurves(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.engine.CleanupCurves()
	for _, c := range removed {
		s.removed[curveKey(c)] = c.LastUpdated
	}
	s.logger.Info("curve cleanup", zap.Int("removed", len(removed)), zap.Int("remaining", s.engine.Curves().Len()))
	return nil
}

// SnapshotCurves reconciles the in-memory curves with storage. Other processes
// (the review command) write curves too, so stored curves newer than the
// in-memory copy are pulled in first, only curves newer than their stored copy
// are written, and only curves dropped by cleanup are deleted.
func (s *Scheduler) SnapshotCurves(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.curves.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("snapshot curves: %w", err)
	}
	store := s.engine.Curves()

	storedAt := make(map[forgetting.Key]time.Time, len(stored))
	merged := 0
	for _, c := range stored {
		key := curveKey(c)
		storedAt[key] = c.LastUpdated
		if droppedAt, ok := s.removed[key]; ok {
			if !c.LastUpdated.After(droppedAt) {
				continue
			}
			// updated elsewhere since it went stale
			delete(s.removed, key)
		}
		if mem, ok := store.Curve(c.UserID, c.ConceptID); ok && !c.LastUpdated.After(mem.LastUpdated) {
			continue
		}
		store.Restore(c)
		merged++
	}

	var dirty []models.ForgettingCurve
	for _, c := range store.Snapshot("") {
		if at, ok := storedAt[curveKey(c)]; ok && !c.LastUpdated.After(at) {
			continue
		}
		dirty = append(dirty, c)
	}
	if err := s.curves.SaveAll(ctx, dirty); err != nil {
		return fmt.Errorf("snapshot curves: %w", err)
	}

	keys := lo.Keys(s.removed)
	pruned, err := s.curves.DeleteKeys(ctx, keys)
	if err != nil {
		return fmt.Errorf("prune curves: %w", err)
	}
	s.removed = make(map[forgetting.Key]time.Time)

	s.logger.Info("curves persisted",
		zap.Int("merged", merged),
		zap.Int("saved", len(dirty)),
		zap.Int("pruned", pruned))
	return nil
}

func curveKey(c models.ForgettingCurve) forgetting.Key {
	return forgetting.Key{UserID: c.UserID, ConceptID: c.ConceptID}
}

// RefreshPriorities recomputes and stores the priority score of every card
func (s *Scheduler) RefreshPriorities(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.cards.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh priorities: %w", err)
	}
	refreshed := s.engine.RefreshPriorities(cards)

	changed := make([]models.Card, 0, len(refreshed))
	for i, c := range refreshed {
		if c.PriorityScore != cards[i].PriorityScore {
			changed = append(changed, c)
		}
	}
	if err := s.cards.SaveAll(ctx, changed); err != nil {
		return fmt.Errorf("refresh priorities: %w", err)
	}
	s.logger.Info("priorities refreshed", zap.Int("cards", len(cards)), zap.Int("changed", len(changed)))
	return nil
}
