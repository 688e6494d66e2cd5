// AngelaMos | 2026
// stats.go

// Package digest builds and mails the scheduled moderation statistics
// digest to every administrator.
package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/moderation-admin/internal/review"
	"github.com/carterperez-dev/moderation-admin/internal/user"
)

type UserStats interface {
	Count(ctx context.Context) (int, error)
	CountBanned(ctx context.Context) (int, error)
	ListModerators(ctx context.Context) ([]user.User, error)
}

type ReviewStats interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
	AverageVisibleRating(ctx context.Context) (float64, error)
	GetMostRecent(ctx context.Context, count int) ([]review.Review, error)
}

type Stats struct {
	GeneratedAt   time.Time
	Since         time.Time
	ActiveUsers   int
	BannedUsers   int
	NewReviews    int
	AverageRating float64
	RecentReviews []review.Review
}

type Collector struct {
	users   UserStats
	reviews ReviewStats
	recent  int
}

func NewCollector(users UserStats, reviews ReviewStats, recent int) *Collector {
	if recent <= 0 {
		recent = 5
	}
	return &Collector{users: users, reviews: reviews, recent: recent}
}

// Collect reads the current totals and the reviews created after since.
func (c *Collector) Collect(ctx context.Context, since, now time.Time) (*Stats, error) {
	total, err := c.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect digest: %w", err)
	}

	banned, err := c.users.CountBanned(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect digest: %w", err)
	}

	newReviews, err := c.reviews.CountSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("collect digest: %w", err)
	}

	avg, err := c.reviews.AverageVisibleRating(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect digest: %w", err)
	}

	recent, err := c.reviews.GetMostRecent(ctx, c.recent)
	if err != nil {
		return nil, fmt.Errorf("collect digest: %w", err)
	}

	return &Stats{
		GeneratedAt:   now.UTC(),
		Since:         since.UTC(),
		ActiveUsers:   total - banned,
		BannedUsers:   banned,
		NewReviews:    newReviews,
		AverageRating: avg,
		RecentReviews: recent,
	}, nil
}
