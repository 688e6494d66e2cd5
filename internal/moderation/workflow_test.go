// AngelaMos | 2026
// workflow_test.go

package moderation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/moderation-admin/internal/classifier"
	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/events"
	"github.com/carterperez-dev/moderation-admin/internal/moderation"
	"github.com/carterperez-dev/moderation-admin/internal/review"
	"github.com/carterperez-dev/moderation-admin/internal/role"
	"github.com/carterperez-dev/moderation-admin/internal/testutil"
	"github.com/carterperez-dev/moderation-admin/internal/user"
	"github.com/carterperez-dev/moderation-admin/internal/wordfilter"
)

type wordSet map[string]struct{}

func (s wordSet) Matches(text string) []string {
	var out []string
	for _, tok := range wordfilter.Tokenize(text) {
		if _, ok := s[tok]; ok {
			out = append(out, tok)
		}
	}
	return out
}

func (s wordSet) Check(text string) bool {
	return len(s.Matches(text)) > 0
}

type classifierFunc func(text string) (classifier.Result, error)

func (f classifierFunc) Classify(_ context.Context, text string) (classifier.Result, error) {
	return f(text)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	workflow  *moderation.Workflow
	reviews   review.Repository
	users     user.Repository
	publisher *recorder
	author    *user.User
}

func newFixture(t *testing.T, c classifier.Classifier) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	f := &fixture{
		reviews:   review.NewRepository(db),
		users:     user.NewRepository(db),
		publisher: &recorder{},
		author:    user.New("author@example.com", "Author"),
	}
	require.NoError(t, f.users.Create(context.Background(), f.author))

	f.workflow = moderation.NewWorkflow(moderation.Config{
		DB:         db,
		Filter:     wordSet{"bad": {}},
		Classifier: c,
		Publisher:  f.publisher,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func (f *fixture) addReview(t *testing.T, content string, opts ...review.Option) *review.Review {
	t.Helper()
	r := review.New(f.author.ID, 3, content, opts...)
	require.NoError(t, f.reviews.Create(context.Background(), r))
	return r
}

func (f *fixture) get(t *testing.T, id int64) *review.Review {
	t.Helper()
	r, err := f.reviews.GetByID(context.Background(), id)
	require.NoError(t, err)
	return r
}

func TestAutoCheckHidesOffensiveReviewsInOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	bad := f.addReview(t, "bad word here", review.WithFlags(2))
	fine := f.addReview(t, "fine content", review.WithFlags(1))
	require.Equal(t, int64(1), bad.ID)
	require.Equal(t, int64(2), fine.ID)

	messages, err := f.workflow.AutoCheck(ctx, []review.Review{*bad, *fine})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Review 1 is offensive. Hiding the review.",
		"Review 2 is not offensive.",
	}, messages)

	got := f.get(t, bad.ID)
	assert.True(t, got.IsHidden)
	assert.Zero(t, got.NumberOfFlags)

	untouched := f.get(t, fine.ID)
	assert.False(t, untouched.IsHidden)
	assert.Equal(t, 1, untouched.NumberOfFlags)

	assert.Equal(t, []events.Type{events.ReviewHidden}, f.publisher.types())
}

func TestAutoCheckFlaggedUsesQueue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.addReview(t, "BAD!", review.WithFlags(1))
	f.addReview(t, "not flagged, bad", review.WithFlags(0))

	messages, err := f.workflow.AutoCheckFlagged(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Review 1 is offensive. Hiding the review."}, messages)

	empty, err := f.workflow.AutoCheckFlagged(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAutoCheckStopsOnStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	first := f.addReview(t, "fine", review.WithFlags(1))
	stale := f.addReview(t, "bad", review.WithFlags(1))
	last := f.addReview(t, "bad again", review.WithFlags(1))

	require.NoError(t, f.workflow.ResetFlags(ctx, stale.ID))

	messages, err := f.workflow.AutoCheck(ctx, []review.Review{*first, *stale, *last})
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Equal(t, []string{"Review 1 is not offensive."}, messages)
	assert.False(t, f.get(t, last.ID).IsHidden)
}

func TestAutoCheckIDsRejectsUnknownReview(t *testing.T) {
	f := newFixture(t, nil)
	r := f.addReview(t, "bad", review.WithFlags(1))

	_, err := f.workflow.AutoCheckIDs(context.Background(), []int64{r.ID, 404})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.False(t, f.get(t, r.ID).IsHidden)
}

func TestAICheck(t *testing.T) {
	ctx := context.Background()
	calls := 0
	f := newFixture(t, classifierFunc(func(text string) (classifier.Result, error) {
		calls++
		if text == "down" {
			return classifier.Result{}, classifier.ErrUnavailable
		}
		return classifier.Result{IsOffensive: text == "nasty", Confidence: 0.8}, nil
	}))

	require.NoError(t, f.workflow.AICheck(ctx, nil))
	assert.Zero(t, calls)

	nasty := f.addReview(t, "nasty", review.WithFlags(3))
	require.NoError(t, f.workflow.AICheck(ctx, nasty))
	got := f.get(t, nasty.ID)
	assert.True(t, got.IsHidden)
	assert.Zero(t, got.NumberOfFlags)

	kind := f.addReview(t, "kind", review.WithFlags(2))
	res, err := f.workflow.AICheckByID(ctx, kind.ID)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.False(t, res.IsOffensive)
	assert.Equal(t, 2, f.get(t, kind.ID).NumberOfFlags, "clean verdict leaves flags")

	down := f.addReview(t, "down", review.WithFlags(1))
	err = f.workflow.AICheck(ctx, down)
	assert.ErrorIs(t, err, classifier.ErrUnavailable)
	assert.False(t, f.get(t, down.ID).IsHidden)

	missing, err := f.workflow.AICheckByID(ctx, 999)
	require.NoError(t, err)
	assert.False(t, missing.Found)
}

func TestReviewActions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	r := f.addReview(t, "text", review.WithFlags(4))

	require.NoError(t, f.workflow.HideReview(ctx, r.ID))
	got := f.get(t, r.ID)
	assert.True(t, got.IsHidden)
	assert.Equal(t, 4, got.NumberOfFlags, "hiding keeps flags")

	require.NoError(t, f.workflow.UnhideReview(ctx, r.ID))
	require.NoError(t, f.workflow.ResetFlags(ctx, r.ID))
	got = f.get(t, r.ID)
	assert.False(t, got.IsHidden)
	assert.Zero(t, got.NumberOfFlags)

	require.NoError(t, f.workflow.RemoveReview(ctx, r.ID))
	_, err := f.reviews.GetByID(ctx, r.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	author, err := f.users.GetByID(ctx, f.author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, author.DeletedReviews)

	assert.ErrorIs(t, f.workflow.RemoveReview(ctx, r.ID), core.ErrNotFound)
	assert.ErrorIs(t, f.workflow.HideReview(ctx, r.ID), core.ErrNotFound)

	assert.Equal(t, []events.Type{
		events.ReviewHidden,
		events.ReviewUnhidden,
		events.ReviewFlagsReset,
		events.ReviewRemoved,
	}, f.publisher.types())
}

func TestPublishFailureDoesNotFailAction(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = errors.New("broker down")
	r := f.addReview(t, "text")

	require.NoError(t, f.workflow.HideReview(context.Background(), r.ID))
	assert.True(t, f.get(t, r.ID).IsHidden)
}

func TestAppeals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	appellant := user.New("banned@example.com", "Banned", user.WithRoles(), user.WithAppeal())
	quiet := user.New("quiet@example.com", "Quiet", user.WithRoles(role.Banned))
	require.NoError(t, f.users.Create(ctx, appellant))
	require.NoError(t, f.users.Create(ctx, quiet))

	appeals, err := f.workflow.ListAppeals(ctx)
	require.NoError(t, err)
	require.Len(t, appeals, 1)
	assert.Equal(t, appellant.ID, appeals[0].ID)

	assert.ErrorIs(t, f.workflow.AcceptAppeal(ctx, quiet.ID), core.ErrInvalidInput)
	assert.ErrorIs(t, f.workflow.AcceptAppeal(ctx, f.author.ID), core.ErrInvalidInput)
	assert.ErrorIs(t, f.workflow.AcceptAppeal(ctx, 999), core.ErrNotFound)

	require.NoError(t, f.workflow.AcceptAppeal(ctx, appellant.ID))
	got, err := f.users.GetByID(ctx, appellant.ID)
	require.NoError(t, err)
	assert.Equal(t, []role.Role{{Type: role.User, Name: "User"}}, got.Roles)
	assert.False(t, got.HasSubmittedAppeal)

	require.NoError(t, f.users.SetAppeal(ctx, quiet.ID, true))
	require.NoError(t, f.workflow.DenyAppeal(ctx, quiet.ID))
	got, err = f.users.GetByID(ctx, quiet.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBanned())
	assert.False(t, got.HasSubmittedAppeal)
	assert.ErrorIs(t, f.workflow.DenyAppeal(ctx, quiet.ID), core.ErrInvalidInput)
}

func TestBanUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	admin := user.New("admin@example.com", "Admin", user.WithRoles(role.User, role.Admin))
	require.NoError(t, f.users.Create(ctx, admin))

	require.NoError(t, f.workflow.BanUser(ctx, admin.ID))
	got, err := f.users.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Roles)
	assert.True(t, got.IsBanned())
	assert.Equal(t, 1, got.TokenVersion)

	assert.ErrorIs(t, f.workflow.BanUser(ctx, 999), core.ErrNotFound)
}
