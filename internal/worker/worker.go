// Package worker runs periodic maintenance tasks: pruning aged preview
// cache entries and refreshing data-quality gauges.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/wayfind/internal/metrics"
)

// Task is a unit of periodic maintenance work.
type Task interface {
	// Name identifies the task in logs and metrics.
	Name() string

	// Run performs one pass of the task. The context carries the configured
	// task timeout.
	Run(ctx context.Context) error
}

// Worker runs registered tasks on a fixed interval.
type Worker struct {
	tasks  []Task
	config Config
	logger *slog.Logger

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New creates a new Worker with the given configuration.
// The worker must be started with Start() and stopped with Stop().
func New(config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		config: config,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Register adds a task to the worker. Call this before Start().
func (w *Worker) Register(task Task) {
	w.tasks = append(w.tasks, task)
	w.logger.Debug("Registered maintenance task", "task", task.Name())
}

// Start begins the maintenance loop. Tasks run once immediately so a fresh
// deployment does not wait a full interval for its first pass.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("Maintenance worker started", "interval", w.config.Interval, "tasks", len(w.tasks))
}

// Stop signals the worker to stop and waits for the current pass to finish.
// It respects the configured ShutdownTimeout.
func (w *Worker) Stop() {
	w.logger.Info("Stopping maintenance worker...")
	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Maintenance worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Maintenance worker shutdown timeout exceeded, a task may still be running")
	}
}

// run is the main loop. It executes all tasks, then sleeps until the next
// tick or a stop signal.
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	w.runAll(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			w.logger.Debug("Maintenance loop stopping")
			return
		case <-ticker.C:
			w.runAll(ctx)
		}
	}
}

// runAll executes every registered task once. A failing task does not stop
// the others.
func (w *Worker) runAll(ctx context.Context) {
	for _, task := range w.tasks {
		select {
		case <-w.stopCh:
			return
		default:
		}

		w.runTask(ctx, task)
	}
}

// runTask executes a single task with the configured timeout.
func (w *Worker) runTask(ctx context.Context, task Task) {
	logger := w.logger.With("task", task.Name())

	taskCtx, cancel := context.WithTimeout(ctx, w.config.TaskTimeout)
	defer cancel()

	start := time.Now()
	if err := task.Run(taskCtx); err != nil {
		metrics.TaskFailed(task.Name())
		logger.Error("Maintenance task failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}

	duration := time.Since(start)
	metrics.TaskCompleted(task.Name(), duration)
	logger.Debug("Maintenance task completed", "duration_ms", duration.Milliseconds())
}
