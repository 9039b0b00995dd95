// Package scheduler drives the two background loops: a queue-poll ticker
// for the dispatcher and a cron-fired reconciler pass. Both invocations are
// stateless and short-lived; nothing is shared between ticks.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/docuflow/docstate/internal/dispatch"
	"github.com/docuflow/docstate/internal/reconcile"
)

// tickTimeout bounds a single dispatcher or reconciler invocation.
const tickTimeout = 5 * time.Minute

// Scheduler owns the background loops for the process lifetime.
type Scheduler struct {
	dispatcher *dispatch.Dispatcher
	reconciler *reconcile.Reconciler

	pollInterval time.Duration
	cron         *cron.Cron
	logger       *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a Scheduler polling the queue every pollInterval and running
// the reconciler every reconcileInterval.
func New(dispatcher *dispatch.Dispatcher, reconciler *reconcile.Reconciler, pollInterval, reconcileInterval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		dispatcher:   dispatcher,
		reconciler:   reconciler,
		pollInterval: pollInterval,
		cron:         cron.New(),
		logger:       logger,
		stop:         make(chan struct{}),
	}

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", reconcileInterval), s.reconcileTick); err != nil {
		return nil, fmt.Errorf("register reconcile schedule: %w", err)
	}
	return s, nil
}

// Start launches the poll loop and the reconcile schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.wg.Add(1)
	go s.pollLoop()
	s.logger.Info("scheduler started",
		"poll_interval", s.pollInterval.String(),
	)
}

// Stop halts both loops and waits for in-flight ticks to finish. Safe to
// call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) pollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.dispatchTick()
		}
	}
}

func (s *Scheduler) dispatchTick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	summary, err := s.dispatcher.HandleBatch(ctx)
	if err != nil {
		s.logger.Error("dispatch batch failed", "error", err)
		return
	}
	if summary.Dispatched+summary.Dropped+summary.Errors > 0 {
		s.logger.Info("dispatch batch finished",
			"dispatched", summary.Dispatched,
			"dropped", summary.Dropped,
			"errors", summary.Errors,
		)
	}
}

func (s *Scheduler) reconcileTick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	summary, err := s.reconciler.RunOnce(ctx)
	if err != nil {
		s.logger.Error("reconcile pass failed", "error", err)
		return
	}
	if summary.Processed+summary.Failed+summary.Unchanged+summary.Errors > 0 {
		s.logger.Info("reconcile pass finished",
			"processed", summary.Processed,
			"failed", summary.Failed,
			"unchanged", summary.Unchanged,
			"errors", summary.Errors,
		)
	}
}
