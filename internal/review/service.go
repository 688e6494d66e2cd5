// AngelaMos | 2026
// service.go

package review

import (
	"context"
	"fmt"
	"time"
)

// Service exposes the read side of the review store. Mutations go through
// the moderation workflow so they are audited and published.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetReview(ctx context.Context, id int64) (*Review, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetFlaggedReviews(ctx context.Context) ([]Review, error) {
	return s.repo.GetFlagged(ctx)
}

func (s *Service) GetHiddenReviews(ctx context.Context) ([]Review, error) {
	return s.repo.GetHidden(ctx)
}

func (s *Service) GetReviewsByUser(ctx context.Context, userID int64) ([]Review, error) {
	return s.repo.GetByUser(ctx, userID)
}

func (s *Service) GetReviewsSince(ctx context.Context, since time.Time) ([]Review, error) {
	return s.repo.GetSince(ctx, since)
}

func (s *Service) GetAverageRatingForVisibleReviews(ctx context.Context) (float64, error) {
	return s.repo.AverageVisibleRating(ctx)
}

func (s *Service) GetMostRecentReviews(ctx context.Context, count int) ([]Review, error) {
	return s.repo.GetMostRecent(ctx, count)
}

type QueueStats struct {
	Flagged       int     `json:"flagged"`
	Hidden        int     `json:"hidden"`
	AverageRating float64 `json:"average_visible_rating"`
}

func (s *Service) QueueStats(ctx context.Context) (*QueueStats, error) {
	flagged, err := s.repo.CountFlagged(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}

	hidden, err := s.repo.CountHidden(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}

	avg, err := s.repo.AverageVisibleRating(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}

	return &QueueStats{Flagged: flagged, Hidden: hidden, AverageRating: avg}, nil
}
