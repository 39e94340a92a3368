// Package scheduler runs recurring background tasks with per-cycle
// deadlines. Tasks share nothing with each other; they communicate with
// the rest of the system only through the contracts they are given.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one recurring background job.
type Task struct {
	// Name identifies the task in logs.
	Name string
	// Every is the interval between cycle starts.
	Every time.Duration
	// Timeout bounds one cycle; an overrunning cycle is cancelled and
	// the task waits for its next tick.
	Timeout time.Duration
	// RunOnStart runs one cycle immediately instead of waiting for the
	// first tick.
	RunOnStart bool
	// Run executes one cycle.
	Run func(ctx context.Context) error
}

// Scheduler owns the goroutines running registered tasks.
type Scheduler struct {
	tasks  []Task
	logger *zap.SugaredLogger
	wg     sync.WaitGroup
}

// New creates a new scheduler instance.
func New(logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Register adds a task. Must be called before Start.
func (s *Scheduler) Register(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start launches one goroutine per task. The goroutines stop when ctx is
// cancelled; Wait blocks until they exit.
func (s *Scheduler) Start(ctx context.Context) {
	for i := range s.tasks {
		task := s.tasks[i]
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, task)
		}()
	}
}

// Wait blocks until all task goroutines have exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	if task.RunOnStart {
		s.runOnce(ctx, task)
	}

	ticker := time.NewTicker(task.Every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("task stopped", "task", task.Name)
			return
		case <-ticker.C:
			s.runOnce(ctx, task)
		}
	}
}

// runOnce executes one cycle under the task's deadline. Cycle errors are
// logged and dropped; the next tick retries independently.
func (s *Scheduler) runOnce(ctx context.Context, task Task) {
	cycleCtx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()

	start := time.Now()
	if err := task.Run(cycleCtx); err != nil {
		s.logger.Errorw("task cycle failed",
			"task", task.Name, "duration", time.Since(start), "error", err)
		return
	}
	s.logger.Debugw("task cycle completed",
		"task", task.Name, "duration", time.Since(start))
}
