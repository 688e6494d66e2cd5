// AngelaMos | 2026
// entity.go

package review

import (
	"time"
)

// Review is a user-submitted rating with moderation state. Version is bumped
// on every mutation and guards concurrent moderator edits.
type Review struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	Rating        int       `db:"rating"`
	Content       string    `db:"content"`
	CreatedAt     time.Time `db:"created_at"`
	NumberOfFlags int       `db:"flags"`
	IsHidden      bool      `db:"is_hidden"`
	Version       int       `db:"version"`
}

type Option func(*Review)

func WithFlags(n int) Option {
	return func(r *Review) {
		if n > 0 {
			r.NumberOfFlags = n
		}
	}
}

func WithCreatedAt(t time.Time) Option {
	return func(r *Review) {
		r.CreatedAt = t.UTC()
	}
}

func Hidden() Option {
	return func(r *Review) {
		r.IsHidden = true
	}
}

func New(userID int64, rating int, content string, opts ...Option) *Review {
	r := &Review{
		UserID:  userID,
		Rating:  rating,
		Content: content,
		Version: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return r
}

// IsFlagged reports whether the review is waiting in the moderation queue.
func (r *Review) IsFlagged() bool {
	return r.NumberOfFlags > 0 && !r.IsHidden
}
