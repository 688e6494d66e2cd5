// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/role"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id int64) error
	IncrementDeletedReviews(ctx context.Context, id int64) error
	SetAppeal(ctx context.Context, id int64, submitted bool) error
	GetRoles(ctx context.Context, id int64) ([]role.Role, error)
	AddRole(ctx context.Context, id int64, t role.Type) error
	SetRoles(ctx context.Context, id int64, types []role.Type) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	ListWithAppeal(ctx context.Context) ([]User, error)
	ListModerators(ctx context.Context) ([]User, error)
	CountBanned(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, email, full_name, password_hash, deleted_reviews,
	has_submitted_appeal, token_version, created_at, updated_at`

// bannedPredicate matches users holding no role above Banned.
const bannedPredicate = `NOT EXISTS (
	SELECT 1 FROM user_roles ur WHERE ur.user_id = users.id AND ur.role_type > 0)`

func (r *repository) Create(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO users (email, full_name, password_hash, deleted_reviews,
			has_submitted_appeal, token_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.GetContext(ctx, &user.ID, query,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.DeletedReviews,
		user.HasSubmittedAppeal,
		user.TokenVersion,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	for _, rl := range user.Roles {
		if err := r.AddRole(ctx, user.ID, rl.Type); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	if user.Roles, err = r.GetRoles(ctx, id); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)

	var user User
	err := r.db.GetContext(ctx, &user, query, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if user.Roles, err = r.GetRoles(ctx, user.ID); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()

	query := r.db.Rebind(`
		UPDATE users
		SET full_name = ?, email = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		user.FullName,
		user.Email,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("update user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update user: %w", err)
	}

	return core.RowsAffectedOrNotFound(result, "update user")
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	query := r.db.Rebind(`
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return core.RowsAffectedOrNotFound(result, "update password")
}

func (r *repository) IncrementTokenVersion(ctx context.Context, id int64) error {
	query := r.db.Rebind(`
		UPDATE users
		SET token_version = token_version + 1, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return core.RowsAffectedOrNotFound(result, "increment token version")
}

func (r *repository) IncrementDeletedReviews(ctx context.Context, id int64) error {
	query := r.db.Rebind(`
		UPDATE users
		SET deleted_reviews = deleted_reviews + 1, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("increment deleted reviews: %w", err)
	}

	return core.RowsAffectedOrNotFound(result, "increment deleted reviews")
}

func (r *repository) SetAppeal(ctx context.Context, id int64, submitted bool) error {
	query := r.db.Rebind(`
		UPDATE users SET has_submitted_appeal = ?, updated_at = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, submitted, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set appeal: %w", err)
	}

	return core.RowsAffectedOrNotFound(result, "set appeal")
}

func (r *repository) GetRoles(ctx context.Context, id int64) ([]role.Role, error) {
	query := r.db.Rebind(`
		SELECT role_type FROM user_roles WHERE user_id = ? ORDER BY role_type`)

	var types []role.Type
	if err := r.db.SelectContext(ctx, &types, query, id); err != nil {
		return nil, fmt.Errorf("get roles for user %d: %w", id, err)
	}

	return rolesOf(types), nil
}

func (r *repository) AddRole(ctx context.Context, id int64, t role.Type) error {
	if !t.Valid() {
		return fmt.Errorf("add role %d: %w", int(t), role.ErrInvalidHierarchy)
	}

	query := r.db.Rebind(`
		INSERT INTO user_roles (user_id, role_type) VALUES (?, ?)
		ON CONFLICT (user_id, role_type) DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, query, id, int(t)); err != nil {
		return fmt.Errorf("add role %s to user %d: %w", t, id, err)
	}

	return nil
}

func (r *repository) SetRoles(ctx context.Context, id int64, types []role.Type) error {
	query := r.db.Rebind(`DELETE FROM user_roles WHERE user_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("clear roles for user %d: %w", id, err)
	}

	for _, t := range types {
		if err := r.AddRole(ctx, id, t); err != nil {
			return err
		}
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"1 = 1"}
	var args []any

	if params.Search != "" {
		conditions = append(conditions,
			"(LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(full_name) LIKE ? ESCAPE '\\')")
		pattern := "%" + escapeLike(strings.ToLower(params.Search)) + "%"
		args = append(args, pattern, pattern)
	}

	if params.BannedOnly {
		conditions = append(conditions, bannedPredicate)
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := r.db.Rebind("SELECT COUNT(*) FROM users WHERE " + whereClause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` +
		whereClause + ` ORDER BY id LIMIT ? OFFSET ?`)
	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	if err := r.attachRoles(ctx, users); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *repository) ListWithAppeal(ctx context.Context) ([]User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users
		WHERE has_submitted_appeal = ? ORDER BY updated_at, id`)

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, true); err != nil {
		return nil, fmt.Errorf("list appeals: %w", err)
	}

	if err := r.attachRoles(ctx, users); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *repository) ListModerators(ctx context.Context) ([]User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users
		WHERE EXISTS (
			SELECT 1 FROM user_roles ur
			WHERE ur.user_id = users.id AND ur.role_type >= ?)
		ORDER BY id`)

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, int(role.Admin)); err != nil {
		return nil, fmt.Errorf("list moderators: %w", err)
	}

	if err := r.attachRoles(ctx, users); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *repository) CountBanned(ctx context.Context) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM users WHERE ` + bannedPredicate
	if err := r.db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("count banned users: %w", err)
	}
	return n, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

type roleRow struct {
	UserID   int64     `db:"user_id"`
	RoleType role.Type `db:"role_type"`
}

func (r *repository) attachRoles(ctx context.Context, users []User) error {
	if len(users) == 0 {
		return nil
	}

	ids := make([]int64, len(users))
	for i := range users {
		ids[i] = users[i].ID
		users[i].Roles = []role.Role{}
	}

	query, args, err := sqlx.In(`
		SELECT user_id, role_type FROM user_roles
		WHERE user_id IN (?) ORDER BY user_id, role_type`, ids)
	if err != nil {
		return fmt.Errorf("attach roles: %w", err)
	}

	var rows []roleRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("attach roles: %w", err)
	}

	index := make(map[int64]int, len(users))
	for i := range users {
		index[users[i].ID] = i
	}

	for _, row := range rows {
		if i, ok := index[row.UserID]; ok {
			if rl, lookupErr := role.Lookup(row.RoleType); lookupErr == nil {
				users[i].Roles = append(users[i].Roles, rl)
			}
		}
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
