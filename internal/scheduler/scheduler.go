package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"techdebt_export/internal/models"
	"techdebt_export/internal/services/exporter"

	"github.com/robfig/cron/v3"
)

// Runner is the part of the exporter the scheduler drives.
type Runner interface {
	Run(ctx context.Context, opts exporter.Options) (models.RunSummary, error)
}

// Scheduler fires export runs on a cron expression (e.g. "*/15 * * * *").
type Scheduler struct {
	runner   Runner
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
}

func New(runner Runner, schedule string) *Scheduler {
	return &Scheduler{
		runner:   runner,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule export: %w", err)
	}

	s.cron.Start()
	s.running = true
	log.Printf("[SCHED] started schedule=%q", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	run, err := s.runner.Run(ctx, exporter.Options{})
	switch {
	case errors.Is(err, exporter.ErrRunInProgress):
		log.Printf("[SCHED][SKIP] previous run still in progress")
	case err != nil:
		log.Printf("[SCHED][ERR] run=%s status=%s: %v", run.RunID, run.Status, err)
	default:
		log.Printf("[SCHED][OK] run=%s published=%d marked=%d", run.RunID, run.Published, run.Marked)
	}
}

// Stop stops the cron and waits for a running export to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		log.Printf("[SCHED] stopped")
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
