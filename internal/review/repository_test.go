// AngelaMos | 2026
// repository_test.go

package review_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/review"
	"github.com/carterperez-dev/moderation-admin/internal/testutil"
	"github.com/carterperez-dev/moderation-admin/internal/user"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (review.Repository, int64, int64) {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewDB(t)

	users := user.NewRepository(db)
	alice := user.New("alice@example.com", "Alice")
	bob := user.New("bob@example.com", "Bob")
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	return review.NewRepository(db), alice.ID, bob.ID
}

func ids(reviews []review.Review) []int64 {
	out := make([]int64, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, r.ID)
	}
	return out
}

func TestQueriesFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	repo, alice, bob := setup(t)

	fixtures := []*review.Review{
		review.New(alice, 5, "old and flagged", review.WithCreatedAt(base), review.WithFlags(2)),
		review.New(bob, 3, "tie one", review.WithCreatedAt(base.Add(time.Hour)), review.WithFlags(1)),
		review.New(alice, 1, "tie two", review.WithCreatedAt(base.Add(time.Hour))),
		review.New(bob, 2, "hidden", review.WithCreatedAt(base.Add(2*time.Hour)), review.WithFlags(4), review.Hidden()),
		review.New(alice, 4, "newest", review.WithCreatedAt(base.Add(3*time.Hour))),
	}
	for _, r := range fixtures {
		require.NoError(t, repo.Create(ctx, r))
	}
	f := func(i int) int64 { return fixtures[i].ID }

	flagged, err := repo.GetFlagged(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{f(1), f(0)}, ids(flagged))

	hidden, err := repo.GetHidden(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{f(3)}, ids(hidden))

	byAlice, err := repo.GetByUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []int64{f(4), f(2), f(0)}, ids(byAlice))

	since, err := repo.GetSince(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []int64{f(4), f(1), f(2)}, ids(since), "ties keep insertion order")

	recent, err := repo.GetMostRecent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{f(4), f(1)}, ids(recent))

	none, err := repo.GetMostRecent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	avg, err := repo.AverageVisibleRating(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 13.0/4.0, avg, 1e-9)

	n, err := repo.CountSince(ctx, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAverageRatingWithoutVisibleReviews(t *testing.T) {
	ctx := context.Background()
	repo, alice, _ := setup(t)

	avg, err := repo.AverageVisibleRating(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)

	require.NoError(t, repo.Create(ctx, review.New(alice, 5, "gone", review.Hidden())))

	avg, err = repo.AverageVisibleRating(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)
}

func TestMutationsBumpVersion(t *testing.T) {
	ctx := context.Background()
	repo, alice, _ := setup(t)

	r := review.New(alice, 2, "needs a look", review.WithFlags(3))
	require.NoError(t, repo.Create(ctx, r))

	require.NoError(t, repo.Hide(ctx, r.ID))
	require.NoError(t, repo.ResetFlags(ctx, r.ID))

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.IsHidden)
	assert.Zero(t, got.NumberOfFlags)
	assert.Equal(t, 3, got.Version)

	require.NoError(t, repo.Unhide(ctx, r.ID))
	got, err = repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, got.IsHidden)

	require.NoError(t, repo.Remove(ctx, r.ID))
	_, err = repo.GetByID(ctx, r.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, repo.Hide(ctx, r.ID), core.ErrNotFound)
	assert.ErrorIs(t, repo.ResetFlags(ctx, 12345), core.ErrNotFound)
	assert.ErrorIs(t, repo.Remove(ctx, r.ID), core.ErrNotFound)
}

func TestUpdateIfVersionDetectsConflict(t *testing.T) {
	ctx := context.Background()
	repo, alice, _ := setup(t)

	r := review.New(alice, 4, "contested", review.WithFlags(1))
	require.NoError(t, repo.Create(ctx, r))

	first, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)

	first.IsHidden = true
	require.NoError(t, repo.UpdateIfVersion(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.NumberOfFlags = 0
	assert.ErrorIs(t, repo.UpdateIfVersion(ctx, second), core.ErrConflict)

	missing := &review.Review{ID: 999, Version: 1}
	assert.ErrorIs(t, repo.UpdateIfVersion(ctx, missing), core.ErrNotFound)
}
