// AngelaMos | 2026
// job.go

package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/moderation-admin/internal/metrics"
)

const defaultWindow = 24 * time.Hour

type JobConfig struct {
	Collector  *Collector
	Renderer   *Renderer
	Mailer     Mailer
	LastRun    LastRunStore
	Users      UserStats
	Recipients []string
	Logger     *slog.Logger
	Now        func() time.Time
}

type Job struct {
	collector  *Collector
	renderer   *Renderer
	mailer     Mailer
	lastRun    LastRunStore
	users      UserStats
	recipients []string
	logger     *slog.Logger
	now        func() time.Time
}

// Report summarizes one run.
type Report struct {
	Since      time.Time `json:"since"`
	Recipients int       `json:"recipients"`
	Sent       int       `json:"sent"`
}

// NewJob builds the digest job. A nil Mailer is allowed; every run then fails
// with ErrMailNotConfigured before anything is collected.
func NewJob(cfg JobConfig) *Job {
	j := &Job{
		collector:  cfg.Collector,
		renderer:   cfg.Renderer,
		mailer:     cfg.Mailer,
		lastRun:    cfg.LastRun,
		users:      cfg.Users,
		recipients: cfg.Recipients,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
	if j.logger == nil {
		j.logger = slog.Default()
	}
	if j.now == nil {
		j.now = time.Now
	}
	return j
}

// Run sends one digest to each recipient: the configured addresses plus
// every Admin and Manager. The last-run mark only advances when at least one
// mail went out. Failures are logged and returned, never retried.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	report, err := j.run(ctx)
	switch {
	case err == nil:
		metrics.DigestRuns.WithLabelValues(metrics.StatusSent).Inc()
		j.logger.InfoContext(ctx, "digest sent", "sent", report.Sent, "recipients", report.Recipients)
	case errors.Is(err, ErrMailNotConfigured):
		metrics.DigestRuns.WithLabelValues(metrics.StatusSkipped).Inc()
		j.logger.ErrorContext(ctx, "digest aborted", "error", err)
	default:
		metrics.DigestRuns.WithLabelValues(metrics.StatusFailed).Inc()
		j.logger.ErrorContext(ctx, "digest failed", "error", err)
	}
	return report, err
}

func (j *Job) run(ctx context.Context) (*Report, error) {
	if j.mailer == nil {
		return nil, fmt.Errorf("digest: %w", ErrMailNotConfigured)
	}

	now := j.now().UTC()
	since := now.Add(-defaultWindow)
	if last, ok, err := j.lastRun.Get(ctx); err != nil {
		return nil, err
	} else if ok {
		since = last
	}

	stats, err := j.collector.Collect(ctx, since, now)
	if err != nil {
		return nil, err
	}

	rendered, err := j.renderer.Render(stats)
	if err != nil {
		return nil, err
	}

	recipients, err := j.resolveRecipients(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Since: since, Recipients: len(recipients)}
	if len(recipients) == 0 {
		return report, errors.New("digest: no recipients")
	}

	var errs []error
	for _, to := range recipients {
		err := j.mailer.Send(ctx, Message{
			To:      to,
			Subject: rendered.Subject,
			HTML:    rendered.HTML,
			Text:    rendered.Text,
		})
		if err != nil {
			j.logger.WarnContext(ctx, "digest delivery failed", "to", to, "error", err)
			errs = append(errs, err)
			continue
		}
		report.Sent++
	}

	if report.Sent > 0 {
		if err := j.lastRun.Set(ctx, now); err != nil {
			errs = append(errs, err)
		}
	}

	return report, errors.Join(errs...)
}

// resolveRecipients merges configured addresses with moderator emails,
// case-insensitively, keeping first-seen order.
func (j *Job) resolveRecipients(ctx context.Context) ([]string, error) {
	moderators, err := j.users.ListModerators(ctx)
	if err != nil {
		return nil, fmt.Errorf("digest recipients: %w", err)
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}

	for _, addr := range j.recipients {
		add(addr)
	}
	for _, m := range moderators {
		add(m.Email)
	}
	return out, nil
}
