// AngelaMos | 2026
// repository.go

package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/moderation-admin/internal/core"
)

type Repository interface {
	Create(ctx context.Context, review *Review) error
	GetByID(ctx context.Context, id int64) (*Review, error)
	GetFlagged(ctx context.Context) ([]Review, error)
	GetHidden(ctx context.Context) ([]Review, error)
	GetByUser(ctx context.Context, userID int64) ([]Review, error)
	GetSince(ctx context.Context, since time.Time) ([]Review, error)
	GetMostRecent(ctx context.Context, count int) ([]Review, error)
	AverageVisibleRating(ctx context.Context) (float64, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	CountFlagged(ctx context.Context) (int, error)
	CountHidden(ctx context.Context) (int, error)
	ResetFlags(ctx context.Context, id int64) error
	Hide(ctx context.Context, id int64) error
	Unhide(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
	UpdateIfVersion(ctx context.Context, review *Review) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const reviewColumns = `id, user_id, rating, content, created_at, flags, is_hidden, version`

// Newest first; equal timestamps keep insertion order.
const newestFirst = ` ORDER BY created_at DESC, id ASC`

func (r *repository) Create(ctx context.Context, review *Review) error {
	if review.Version == 0 {
		review.Version = 1
	}

	query := r.db.Rebind(`
		INSERT INTO reviews (user_id, rating, content, created_at, flags, is_hidden, version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.GetContext(ctx, &review.ID, query,
		review.UserID,
		review.Rating,
		review.Content,
		review.CreatedAt.UTC(),
		review.NumberOfFlags,
		review.IsHidden,
		review.Version,
	)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Review, error) {
	query := r.db.Rebind(`SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`)

	var review Review
	err := r.db.GetContext(ctx, &review, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get review %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get review %d: %w", id, err)
	}

	return &review, nil
}

func (r *repository) list(
	ctx context.Context,
	op, where string,
	args ...any,
) ([]Review, error) {
	query := r.db.Rebind(`SELECT ` + reviewColumns + ` FROM reviews WHERE ` + where)

	reviews := []Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reviews, nil
}

func (r *repository) GetFlagged(ctx context.Context) ([]Review, error) {
	return r.list(ctx, "get flagged reviews",
		`flags > 0 AND is_hidden = ?`+newestFirst, false)
}

func (r *repository) GetHidden(ctx context.Context) ([]Review, error) {
	return r.list(ctx, "get hidden reviews",
		`is_hidden = ?`+newestFirst, true)
}

func (r *repository) GetByUser(ctx context.Context, userID int64) ([]Review, error) {
	return r.list(ctx, "get reviews by user",
		`user_id = ? AND is_hidden = ?`+newestFirst, userID, false)
}

func (r *repository) GetSince(ctx context.Context, since time.Time) ([]Review, error) {
	return r.list(ctx, "get reviews since",
		`created_at >= ? AND is_hidden = ?`+newestFirst, since.UTC(), false)
}

func (r *repository) GetMostRecent(ctx context.Context, count int) ([]Review, error) {
	if count <= 0 {
		return []Review{}, nil
	}
	return r.list(ctx, "get most recent reviews",
		`is_hidden = ?`+newestFirst+` LIMIT ?`, false, count)
}

// AverageVisibleRating is 0 when no visible review exists.
func (r *repository) AverageVisibleRating(ctx context.Context) (float64, error) {
	query := r.db.Rebind(`SELECT AVG(rating) FROM reviews WHERE is_hidden = ?`)

	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg, query, false); err != nil {
		return 0, fmt.Errorf("average visible rating: %w", err)
	}

	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

func (r *repository) count(ctx context.Context, op, where string, args ...any) (int, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM reviews WHERE ` + where)

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (r *repository) CountSince(ctx context.Context, since time.Time) (int, error) {
	return r.count(ctx, "count reviews since", `created_at >= ?`, since.UTC())
}

func (r *repository) CountFlagged(ctx context.Context) (int, error) {
	return r.count(ctx, "count flagged reviews", `flags > 0 AND is_hidden = ?`, false)
}

func (r *repository) CountHidden(ctx context.Context) (int, error) {
	return r.count(ctx, "count hidden reviews", `is_hidden = ?`, true)
}

func (r *repository) exec(ctx context.Context, op, set string, id int64, args ...any) error {
	query := r.db.Rebind(`UPDATE reviews SET ` + set +
		`, version = version + 1 WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}

	return core.RowsAffectedOrNotFound(result, fmt.Sprintf("%s %d", op, id))
}

func (r *repository) ResetFlags(ctx context.Context, id int64) error {
	return r.exec(ctx, "reset flags", `flags = 0`, id)
}

func (r *repository) Hide(ctx context.Context, id int64) error {
	return r.exec(ctx, "hide review", `is_hidden = ?`, id, true)
}

func (r *repository) Unhide(ctx context.Context, id int64) error {
	return r.exec(ctx, "unhide review", `is_hidden = ?`, id, false)
}

func (r *repository) Remove(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM reviews WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("remove review %d: %w", id, err)
	}

	return core.RowsAffectedOrNotFound(result, fmt.Sprintf("remove review %d", id))
}

// UpdateIfVersion writes the moderation fields only when the stored version
// still equals review.Version. A stale version yields core.ErrConflict; on
// success review.Version is advanced.
func (r *repository) UpdateIfVersion(ctx context.Context, review *Review) error {
	query := r.db.Rebind(`
		UPDATE reviews
		SET flags = ?, is_hidden = ?, version = version + 1
		WHERE id = ? AND version = ?`)

	result, err := r.db.ExecContext(ctx, query,
		review.NumberOfFlags,
		review.IsHidden,
		review.ID,
		review.Version,
	)
	if err != nil {
		return fmt.Errorf("update review %d: %w", review.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update review %d: %w", review.ID, err)
	}

	if rows == 0 {
		if _, getErr := r.GetByID(ctx, review.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("update review %d at version %d: %w",
			review.ID, review.Version, core.ErrConflict)
	}

	review.Version++
	return nil
}
