// AngelaMos | 2026
// digest_test.go

package digest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/moderation-admin/internal/config"
	"github.com/carterperez-dev/moderation-admin/internal/review"
	"github.com/carterperez-dev/moderation-admin/internal/role"
	"github.com/carterperez-dev/moderation-admin/internal/testutil"
	"github.com/carterperez-dev/moderation-admin/internal/user"
)

var now = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

type fakeMailer struct {
	mu     sync.Mutex
	sent   []Message
	failTo string
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.To == m.failTo {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type memoryLastRun struct {
	at  time.Time
	set bool
}

func (s *memoryLastRun) Get(context.Context) (time.Time, bool, error) {
	return s.at, s.set, nil
}

func (s *memoryLastRun) Set(_ context.Context, t time.Time) error {
	s.at, s.set = t, true
	return nil
}

type seeded struct {
	users   user.Repository
	reviews review.Repository
}

func seed(t *testing.T) seeded {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewDB(t)
	s := seeded{users: user.NewRepository(db), reviews: review.NewRepository(db)}

	author := user.New("author@example.com", "Author")
	for _, u := range []*user.User{
		author,
		user.New("gone@example.com", "Gone", user.WithRoles()),
		user.New("admin@example.com", "Admin", user.WithRoles(role.User, role.Admin)),
		user.New("Boss@Example.com", "Boss", user.WithRoles(role.Manager)),
	} {
		require.NoError(t, s.users.Create(ctx, u))
	}

	for _, r := range []*review.Review{
		review.New(author.ID, 4, "old but fine", review.WithCreatedAt(now.Add(-72*time.Hour))),
		review.New(author.ID, 2, "yesterday <b>bold</b>", review.WithCreatedAt(now.Add(-2*time.Hour))),
		review.New(author.ID, 5, "hidden", review.WithCreatedAt(now.Add(-time.Hour)), review.Hidden()),
	} {
		require.NoError(t, s.reviews.Create(ctx, r))
	}

	return s
}

func newTestJob(t *testing.T, s seeded, mailer Mailer, lastRun LastRunStore, recipients ...string) *Job {
	t.Helper()
	renderer, err := NewRenderer()
	require.NoError(t, err)

	return NewJob(JobConfig{
		Collector:  NewCollector(s.users, s.reviews, 5),
		Renderer:   renderer,
		Mailer:     mailer,
		LastRun:    lastRun,
		Users:      s.users,
		Recipients: recipients,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        func() time.Time { return now },
	})
}

func TestCollect(t *testing.T) {
	s := seed(t)

	stats, err := NewCollector(s.users, s.reviews, 5).Collect(context.Background(), now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.ActiveUsers)
	assert.Equal(t, 1, stats.BannedUsers)
	assert.Equal(t, 2, stats.NewReviews)
	assert.InDelta(t, 3.0, stats.AverageRating, 1e-9)
	require.Len(t, stats.RecentReviews, 2)
	assert.Equal(t, "yesterday <b>bold</b>", stats.RecentReviews[0].Content)
}

func TestRender(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	out, err := renderer.Render(&Stats{
		GeneratedAt:   now,
		Since:         now.Add(-24 * time.Hour),
		ActiveUsers:   12,
		BannedUsers:   3,
		NewReviews:    7,
		AverageRating: 3.456,
		RecentReviews: []review.Review{{ID: 9, Rating: 2, Content: "<script>x</script>"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Moderation digest for 2026-05-04", out.Subject)
	assert.Contains(t, out.Text, "Banned users:          3")
	assert.Contains(t, out.Text, "3.46")
	assert.Contains(t, out.Text, "<script>x</script>")
	assert.Contains(t, out.HTML, "<td>12</td>")
	assert.NotContains(t, out.HTML, "<script>")
}

func TestJobSendsToModeratorsAndConfiguredRecipients(t *testing.T) {
	s := seed(t)
	mailer := &fakeMailer{}
	lastRun := &memoryLastRun{}

	report, err := newTestJob(t, s, mailer, lastRun, "ops@example.com", "ADMIN@example.com").Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Recipients)
	assert.Equal(t, 3, report.Sent)
	assert.Equal(t, now.Add(-24*time.Hour), report.Since)

	var to []string
	for _, m := range mailer.sent {
		to = append(to, m.To)
	}
	assert.Equal(t, []string{"ops@example.com", "ADMIN@example.com", "boss@example.com"}, to)
	assert.True(t, lastRun.set)
	assert.Equal(t, now, lastRun.at)
}

func TestJobUsesLastRun(t *testing.T) {
	s := seed(t)
	lastRun := &memoryLastRun{at: now.Add(-96 * time.Hour), set: true}

	report, err := newTestJob(t, s, &fakeMailer{}, lastRun).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(-96*time.Hour), report.Since)
}

func TestJobWithoutMailerAborts(t *testing.T) {
	s := seed(t)
	lastRun := &memoryLastRun{}

	_, err := newTestJob(t, s, nil, lastRun).Run(context.Background())
	assert.ErrorIs(t, err, ErrMailNotConfigured)
	assert.False(t, lastRun.set)
}

func TestJobKeepsLastRunWhenNothingSent(t *testing.T) {
	s := seed(t)
	lastRun := &memoryLastRun{}
	mailer := &fakeMailer{failTo: "admin@example.com"}

	report, err := newTestJob(t, s, mailer, lastRun).Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, report.Sent, "manager still receives the digest")
	assert.True(t, lastRun.set)

	lonely := &memoryLastRun{}
	failing := &fakeMailer{failTo: "ops@example.com"}
	job := newTestJob(t, s, failing, lonely, "ops@example.com")
	job.users = noModerators{}

	report, err = job.Run(context.Background())
	assert.Error(t, err)
	assert.Zero(t, report.Sent)
	assert.False(t, lonely.set)
}

type noModerators struct{}

func (noModerators) Count(context.Context) (int, error)       { return 0, nil }
func (noModerators) CountBanned(context.Context) (int, error) { return 0, nil }
func (noModerators) ListModerators(context.Context) ([]user.User, error) {
	return nil, nil
}

func TestNewSMTPMailerRequiresCredentials(t *testing.T) {
	_, err := NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", Port: 587})
	assert.ErrorIs(t, err, ErrMailNotConfigured)

	_, err = NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", Port: 587, From: "digest@example.com"})
	assert.ErrorIs(t, err, ErrMailNotConfigured)

	m, err := NewSMTPMailer(config.MailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		From:     "digest@example.com",
		Password: "app-password",
		TLS:      true,
	})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewScheduler("every day", &Job{}, logger)
	assert.Error(t, err)

	s, err := NewScheduler("0 8 * * *", &Job{}, logger)
	require.NoError(t, err)
	s.Start()
	require.NoError(t, s.Stop(context.Background()))
}
