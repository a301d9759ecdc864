package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-sync/internal/weather"
)

const syncTimeout = 30 * time.Second

type syncer interface {
	SyncRemote(ctx context.Context) *weather.Sync
}

// Scheduler runs the startup sync once in the background so the server can
// accept requests before the remote API has answered.
type Scheduler struct {
	scheduler *gocron.Scheduler
	repo      syncer
	logger    *slog.Logger

	mu      sync.Mutex
	stopped bool
	started bool
	done    chan struct{} // closed once the startup job has fully returned
}

// New creates a new Scheduler.
func New(repo syncer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		repo:      repo,
		logger:    logger.With("component", "scheduler"),
		done:      make(chan struct{}),
	}
}

// Start schedules the one-shot sync job and starts the underlying scheduler.
// The job fires immediately and never again.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().LimitRunsTo(1).SingletonMode().Do(s.initialSync)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs. If the startup sync
// is already running, Stop waits for its write-through to finish so the store
// can be closed afterwards.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	s.mu.Lock()
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	if started {
		<-s.done
	}
}

func (s *Scheduler) initialSync() {
	s.mu.Lock()
	if s.stopped || s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()
	defer close(s.done)

	s.logger.Info("running initial weather sync")

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	run := s.repo.SyncRemote(ctx)
	// The sync outlives ctx; only return once it has settled.
	defer func() { <-run.Done() }()

	res, err := run.Wait(ctx)
	if err != nil {
		s.logger.Error("initial sync failed", "sync_id", run.ID(), "error", err)
		return
	}

	attrs := []any{"sync_id", run.ID(), "status", res.Status}
	if res.Err != nil {
		attrs = append(attrs, "kind", res.Err.Kind.String())
	}
	s.logger.Info("initial sync completed", attrs...)
}
