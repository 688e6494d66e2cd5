// AngelaMos | 2026
// dto.go

package review

import (
	"time"
)

type ReviewResponse struct {
	ID            int64     `json:"review_id"`
	UserID        int64     `json:"user_id"`
	Rating        int       `json:"rating"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_date"`
	NumberOfFlags int       `json:"number_of_flags"`
	IsHidden      bool      `json:"is_hidden"`
	Version       int       `json:"version"`
}

type AverageResponse struct {
	AverageRating float64 `json:"average_rating"`
}

func ToReviewResponse(r *Review) ReviewResponse {
	return ReviewResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		Rating:        r.Rating,
		Content:       r.Content,
		CreatedAt:     r.CreatedAt,
		NumberOfFlags: r.NumberOfFlags,
		IsHidden:      r.IsHidden,
		Version:       r.Version,
	}
}

func ToReviewResponseList(reviews []Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, ToReviewResponse(&reviews[i]))
	}
	return out
}
