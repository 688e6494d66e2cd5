// AngelaMos | 2026
// scheduler.go

package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const runTimeout = 5 * time.Minute

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

type Runner interface {
	Run(ctx context.Context) (*Report, error)
}

// Scheduler fires the digest on a standard five-field cron schedule. A
// panicking run is recovered and logged.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewScheduler(spec string, job Runner, logger *slog.Logger) (*Scheduler, error) {
	cl := cronLogger{logger: logger.With("component", "digest_scheduler")}

	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		//nolint:errcheck // Run logs its own failures
		_, _ = job.Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("digest schedule %q: %w", spec, err)
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Info("digest scheduled", "next_run", e.Next)
	}
}

// Stop prevents new runs and waits for a running digest until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
