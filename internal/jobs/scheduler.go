package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"inkwell/internal/services"
)

// Scheduler runs the engine's background jobs: daily catalog refresh and
// nightly run-log retention cleanup.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates an idle scheduler; register jobs, then Start.
func NewScheduler() (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{scheduler: scheduler}, nil
}

// RegisterCatalogRefresh schedules a daily registry refresh. The refresh
// itself decides whether the cache is still fresh.
func (s *Scheduler) RegisterCatalogRefresh(catalog *services.CatalogService) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := catalog.Refresh(ctx); err != nil {
				log.Printf("⚠️ [JOBS] Catalog refresh failed: %v", err)
			}
		}),
		gocron.WithName("catalog_refresh"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule catalog refresh: %w", err)
	}
	return nil
}

// RegisterRunLogCleanup schedules nightly deletion of runs past retention.
func (s *Scheduler) RegisterRunLogCleanup(runLog *services.RunLogService, retention time.Duration) error {
	_, err := s.scheduler.NewJob(
		gocron.CronJob("15 3 * * *", false),
		gocron.NewTask(func() {
			if _, err := runLog.Cleanup(retention); err != nil {
				log.Printf("⚠️ [JOBS] Run log cleanup failed: %v", err)
			}
		}),
		gocron.WithName("run_log_cleanup"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule run log cleanup: %w", err)
	}
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Printf("⏰ [JOBS] Scheduler started with %d jobs", len(s.scheduler.Jobs()))
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() {
	if err := s.scheduler.Shutdown(); err != nil {
		log.Printf("⚠️ [JOBS] Scheduler shutdown error: %v", err)
	}
}
