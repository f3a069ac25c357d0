package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingTask struct {
	name string
	runs atomic.Int64
	err  error
}

func (t *countingTask) Name() string { return t.name }

func (t *countingTask) Run(ctx context.Context) error {
	t.runs.Add(1)
	return t.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		Interval:        time.Hour, // only the immediate pass runs in tests
		TaskTimeout:     time.Second,
		ShutdownTimeout: time.Second,
	}
}

func waitForRuns(t *testing.T, task *countingTask, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if task.runs.Load() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %q ran %d times, want at least %d", task.name, task.runs.Load(), want)
}

func TestWorker_RunsTasksImmediatelyOnStart(t *testing.T) {
	w, err := New(testConfig(), testLogger())
	if err != nil {
		t.Fatalf("creating worker: %v", err)
	}

	task := &countingTask{name: "test"}
	w.Register(task)

	w.Start(context.Background())
	defer w.Stop()

	waitForRuns(t, task, 1)
}

func TestWorker_FailingTaskDoesNotStopOthers(t *testing.T) {
	w, err := New(testConfig(), testLogger())
	if err != nil {
		t.Fatalf("creating worker: %v", err)
	}

	failing := &countingTask{name: "failing", err: errors.New("boom")}
	healthy := &countingTask{name: "healthy"}
	w.Register(failing)
	w.Register(healthy)

	w.Start(context.Background())
	defer w.Stop()

	waitForRuns(t, failing, 1)
	waitForRuns(t, healthy, 1)
}

func TestWorker_StopWaitsForCurrentPass(t *testing.T) {
	w, err := New(testConfig(), testLogger())
	if err != nil {
		t.Fatalf("creating worker: %v", err)
	}

	task := &countingTask{name: "test"}
	w.Register(task)

	w.Start(context.Background())
	waitForRuns(t, task, 1)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "zero interval", cfg: Config{Interval: 0, TaskTimeout: time.Minute, ShutdownTimeout: time.Minute}},
		{name: "zero task timeout", cfg: Config{Interval: time.Minute, TaskTimeout: 0, ShutdownTimeout: time.Minute}},
		{name: "zero shutdown timeout", cfg: Config{Interval: time.Minute, TaskTimeout: time.Minute, ShutdownTimeout: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{}, testLogger()); err == nil {
		t.Error("expected error for zero config")
	}
}
