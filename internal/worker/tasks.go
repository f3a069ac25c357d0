package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/wayfind/internal/metrics"
	"github.com/DukeRupert/wayfind/internal/repository"
	"github.com/DukeRupert/wayfind/internal/storage"
)

// PrunePreviewsTask deletes cached map previews older than the cache max
// age. Serving rebuilds them on demand, so pruning only reclaims space.
type PrunePreviewsTask struct {
	store  storage.Storage
	maxAge time.Duration
	logger *slog.Logger
}

// NewPrunePreviewsTask creates the preview pruning task.
func NewPrunePreviewsTask(store storage.Storage, maxAge time.Duration, logger *slog.Logger) *PrunePreviewsTask {
	return &PrunePreviewsTask{
		store:  store,
		maxAge: maxAge,
		logger: logger,
	}
}

func (t *PrunePreviewsTask) Name() string { return "prune_previews" }

func (t *PrunePreviewsTask) Run(ctx context.Context) error {
	objects, err := t.store.List(ctx, storage.PreviewPrefix)
	if err != nil {
		return fmt.Errorf("list previews: %w", err)
	}

	cutoff := time.Now().Add(-t.maxAge)
	pruned := 0
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := t.store.Delete(ctx, obj.Key); err != nil {
			// Keep going; the next pass retries what this one missed.
			t.logger.Warn("pruning preview failed", "key", obj.Key, "error", err)
			continue
		}
		pruned++
	}

	if pruned > 0 {
		t.logger.Info("pruned stale previews", "count", pruned, "max_age", t.maxAge)
	}
	return nil
}

// StaleCalendarsTask refreshes the gauge counting locations whose calendar
// has not been scraped recently. The gauge drives alerting on the scrape
// pipeline.
type StaleCalendarsTask struct {
	queries   *repository.Queries
	threshold time.Duration
	logger    *slog.Logger
}

// NewStaleCalendarsTask creates the stale calendar gauge task.
func NewStaleCalendarsTask(queries *repository.Queries, threshold time.Duration, logger *slog.Logger) *StaleCalendarsTask {
	return &StaleCalendarsTask{
		queries:   queries,
		threshold: threshold,
		logger:    logger,
	}
}

func (t *StaleCalendarsTask) Name() string { return "stale_calendars" }

func (t *StaleCalendarsTask) Run(ctx context.Context) error {
	count, err := t.queries.CountStaleCalendars(ctx, time.Now().Add(-t.threshold))
	if err != nil {
		return fmt.Errorf("count stale calendars: %w", err)
	}

	metrics.StaleCalendarLocations.Set(float64(count))
	return nil
}
