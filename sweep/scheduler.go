// ABOUTME: Cron schedule that runs the reminder sweep inside the server process
// ABOUTME: Wraps robfig/cron with overlap protection and zap logging
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler triggers Sweeper.Run on a cron expression.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	log     *zap.Logger
	timeout time.Duration
}

// NewScheduler parses spec (standard five-field cron, UTC) and registers the sweep.
func NewScheduler(spec string, sweeper *Sweeper, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{log.Named("cron").Sugar()}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{cron: c, sweeper: sweeper, log: log, timeout: 10 * time.Minute}
	if _, err := c.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.sweeper.Run(ctx, time.Now().UTC()); err != nil {
		s.log.Error("scheduled sweep failed", zap.Error(err))
	}
}

// Next reports when the sweep will fire next.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for a
// running sweep to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.log.Info("sweep schedule started", zap.Time("next", s.Next()))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
