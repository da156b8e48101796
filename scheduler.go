package sessions

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// StaleAccountPurger is the sweep contract the scheduler drives.
type StaleAccountPurger interface {
	PurgeStaleAccounts(ctx context.Context) (int64, error)
}

// Sweeper runs the stale account sweep on a cron schedule. A failed
// sweep is logged and waits for the next scheduled cycle; there is no
// retry in between, the next run covers the same rows anyway.
type Sweeper struct {
	cron     *cron.Cron
	purger   StaleAccountPurger
	schedule string
	timeout  time.Duration
	logger   Logger
	entryID  cron.EntryID
}

// NewSweeper builds a Sweeper from the sweep configuration. The schedule
// is a standard five field cron expression.
func NewSweeper(purger StaleAccountPurger, cfg SweepConfig) *Sweeper {
	return &Sweeper{
		cron:     cron.New(),
		purger:   purger,
		schedule: cfg.Schedule,
		timeout:  time.Minute * 5,
		logger:   defLogger{},
	}
}

func (s *Sweeper) WithLogger(logger Logger) *Sweeper {
	s.logger = logger
	return s
}

// Start registers the sweep job and starts the scheduler in its own
// goroutine.
func (s *Sweeper) Start() error {
	id, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		return err
	}
	s.entryID = id
	s.cron.Start()
	s.logger.Info("stale account sweep scheduled: %s", s.schedule)
	return nil
}

// Stop halts the scheduler and waits for an in flight sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunOnce triggers a sweep outside the schedule.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	return s.purger.PurgeStaleAccounts(ctx)
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := s.purger.PurgeStaleAccounts(ctx)
	if err != nil {
		s.logger.Error("stale account sweep failed: %v", err)
		return
	}
	s.logger.Debug("stale account sweep completed, removed %d", removed)
}
