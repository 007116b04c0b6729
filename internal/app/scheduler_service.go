package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/dmxconsole/internal/config"
	"github.com/dokzlo13/dmxconsole/internal/console"
	"github.com/dokzlo13/dmxconsole/internal/eventbus"
	"github.com/dokzlo13/dmxconsole/internal/ledger"
	"github.com/dokzlo13/dmxconsole/internal/scheduler"
)

// SchedulerService wraps the scheduler and related periodic tasks.
type SchedulerService struct {
	cfg       *config.Config
	Scheduler *scheduler.Scheduler
	ledger    *ledger.Ledger
}

// NewSchedulerService creates the scheduler and registers the configured schedules.
// l may be nil when the ledger is disabled.
func NewSchedulerService(
	cfg *config.Config,
	driver *Driver,
	bus *eventbus.Bus,
	c *console.Console,
	l *ledger.Ledger,
) (*SchedulerService, error) {
	sched := scheduler.New(driver, bus)
	if err := sched.RegisterConsole(c, cfg.Schedules); err != nil {
		return nil, err
	}

	return &SchedulerService{
		cfg:       cfg,
		Scheduler: sched,
		ledger:    l,
	}, nil
}

// Start begins the scheduler and related periodic tasks.
func (s *SchedulerService) Start(ctx context.Context) {
	s.Scheduler.Start()

	// Ledger cleanup (if ledger is enabled)
	if s.ledger != nil {
		go s.runLedgerCleanup(ctx)
	}
}

// Stop halts the scheduler, waiting at most until ctx expires.
func (s *SchedulerService) Stop(ctx context.Context) {
	s.Scheduler.Stop(ctx)
}

// runLedgerCleanup periodically cleans up old ledger entries.
func (s *SchedulerService) runLedgerCleanup(ctx context.Context) {
	retention := s.cfg.Ledger.RetentionPeriod.Duration()
	interval := s.cfg.Ledger.CleanupInterval.Duration()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.ledger.DeleteOlderThan(retention)
			if err != nil {
				log.Error().Err(err).Msg("Failed to cleanup old ledger entries")
			} else if deleted > 0 {
				log.Info().Int64("deleted", deleted).Dur("retention", retention).Msg("Cleaned up old ledger entries")
			}
		}
	}
}
