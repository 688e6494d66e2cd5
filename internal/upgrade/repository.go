// AngelaMos | 2026
// repository.go

package upgrade

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/moderation-admin/internal/core"
)

type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id int64) (*Request, error)
	List(ctx context.Context) ([]Request, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const requestColumns = `id, requesting_user_id, requesting_user_display_name, created_at`

func (r *repository) Create(ctx context.Context, req *Request) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO upgrade_requests (requesting_user_id, requesting_user_display_name, created_at)
		VALUES (?, ?, ?)
		RETURNING id`)

	err := r.db.GetContext(ctx, &req.ID, query,
		req.RequestingUserID,
		req.RequestingUserDisplayName,
		req.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create upgrade request: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Request, error) {
	query := r.db.Rebind(`SELECT ` + requestColumns + ` FROM upgrade_requests WHERE id = ?`)

	var req Request
	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get upgrade request %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get upgrade request %d: %w", id, err)
	}

	return &req, nil
}

// List returns pending requests oldest first.
func (r *repository) List(ctx context.Context) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM upgrade_requests ORDER BY created_at, id`

	var reqs []Request
	if err := r.db.SelectContext(ctx, &reqs, query); err != nil {
		return nil, fmt.Errorf("list upgrade requests: %w", err)
	}
	if reqs == nil {
		reqs = []Request{}
	}

	return reqs, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM upgrade_requests WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete upgrade request %d: %w", id, err)
	}

	return core.RowsAffectedOrNotFound(result, fmt.Sprintf("delete upgrade request %d", id))
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM upgrade_requests`); err != nil {
		return 0, fmt.Errorf("count upgrade requests: %w", err)
	}
	return n, nil
}
