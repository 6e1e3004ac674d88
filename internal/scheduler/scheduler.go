// Package scheduler runs the collect-and-export pass on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dbsmedya/questexport/internal/logger"
	"github.com/dbsmedya/questexport/internal/snapshot"
)

// DefaultInterval is the pause between passes.
const DefaultInterval = 45 * time.Second

// Collector builds a snapshot of the host registry.
type Collector interface {
	Collect() snapshot.Snapshot
}

// Persister writes a snapshot and reports whether a document was written.
type Persister interface {
	Persist(snap snapshot.Snapshot, path string) bool
}

// PathResolver returns the snapshot path for the current pass.
type PathResolver interface {
	Path() (string, error)
}

// PassResult describes one finished pass.
type PassResult struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Snapshot  snapshot.Snapshot
	Path      string
	Written   bool
	Err       error // path resolution failure or recovered panic
}

// Observer is notified after every pass, on the scheduler goroutine.
type Observer func(ctx context.Context, res PassResult)

// Scheduler drives passes one after another. A pass never overlaps the next.
type Scheduler struct {
	collector Collector
	persister Persister
	paths     PathResolver
	interval  time.Duration
	observers []Observer
	logger    *logger.Logger
}

// New creates a Scheduler. A non-positive interval selects DefaultInterval.
func New(collector Collector, persister Persister, paths PathResolver, interval time.Duration, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewDefault()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		collector: collector,
		persister: persister,
		paths:     paths,
		interval:  interval,
		logger:    log,
	}
}

// OnPass registers an observer. Register observers before Run or Start.
func (s *Scheduler) OnPass(obs Observer) {
	s.observers = append(s.observers, obs)
}

// Interval returns the pause between passes.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Run executes passes until ctx is cancelled. The host never cancels; the
// check on every wake only lets an embedding process shut down cleanly.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Infof("Quest progress export started (interval: %s)", s.interval)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.RunPass(ctx)

		timer.Reset(s.interval)
		select {
		case <-ctx.Done():
			s.logger.Info("Quest progress export stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunPass performs one collect-then-persist pass. Every failure is logged and
// absorbed; the previous snapshot file stays in place.
func (s *Scheduler) RunPass(ctx context.Context) (res PassResult) {
	res = PassResult{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := s.logger.WithPass(res.ID)

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("pass panicked: %v", r)
			res.Written = false
			log.Errorw("Pass aborted", "error", res.Err)
		}
		res.Duration = time.Since(res.StartedAt)
		s.notify(ctx, res)
	}()

	res.Snapshot = s.collector.Collect()
	if res.Snapshot.Empty() {
		log.Debug("Pass complete, snapshot is empty")
		return res
	}

	path, err := s.paths.Path()
	if err != nil {
		res.Err = err
		log.Errorw("Pass aborted, cannot resolve snapshot path", "error", err)
		return res
	}
	res.Path = path

	res.Written = s.persister.Persist(res.Snapshot, path)
	log.Debugw("Pass complete",
		"entries", len(res.Snapshot),
		"written", res.Written,
		"path", path,
	)
	return res
}

func (s *Scheduler) notify(ctx context.Context, res PassResult) {
	for _, obs := range s.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Errorw("Pass observer panicked", "pass", res.ID, "panic", r)
				}
			}()
			obs(ctx, res)
		}()
	}
}

// Handle controls a scheduler started with Start.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Start runs the scheduler on its own goroutine and returns immediately.
func (s *Scheduler) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		_ = s.Run(ctx)
	}()

	return h
}

// Stop requests shutdown and waits for the current pass to finish.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Done is closed once the scheduler goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
