// AngelaMos | 2026
// entity.go

package user

import (
	"strings"
	"time"

	"github.com/carterperez-dev/moderation-admin/internal/role"
)

type User struct {
	ID                 int64     `db:"id"`
	Email              string    `db:"email"`
	FullName           string    `db:"full_name"`
	PasswordHash       string    `db:"password_hash"`
	DeletedReviews     int       `db:"deleted_reviews"`
	HasSubmittedAppeal bool      `db:"has_submitted_appeal"`
	TokenVersion       int       `db:"token_version"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
	Roles              []role.Role
}

type Option func(*User)

func WithRoles(types ...role.Type) Option {
	return func(u *User) {
		u.Roles = rolesOf(types)
	}
}

func WithPasswordHash(hash string) Option {
	return func(u *User) {
		u.PasswordHash = hash
	}
}

func WithAppeal() Option {
	return func(u *User) {
		u.HasSubmittedAppeal = true
	}
}

// New is the single constructor for users. Without WithRoles a new user holds
// the User role.
func New(email, fullName string, opts ...Option) *User {
	u := &User{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		FullName: strings.TrimSpace(fullName),
		Roles:    []role.Role{mustRole(role.User)},
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.Roles == nil {
		u.Roles = []role.Role{}
	}
	return u
}

// HighestRole is the user's effective role; no roles means Banned.
func (u *User) HighestRole() role.Role {
	return role.Highest(u.Roles)
}

func (u *User) IsBanned() bool {
	return u.HighestRole().Type == role.Banned
}

func (u *User) IsModerator() bool {
	return role.IsModerator(u.HighestRole().Type)
}

func (u *User) HasRole(t role.Type) bool {
	for _, r := range u.Roles {
		if r.Type == t {
			return true
		}
	}
	return false
}

func rolesOf(types []role.Type) []role.Role {
	out := make([]role.Role, 0, len(types))
	for _, t := range types {
		if r, err := role.Lookup(t); err == nil {
			out = append(out, r)
		}
	}
	return out
}

func mustRole(t role.Type) role.Role {
	r, err := role.Lookup(t)
	if err != nil {
		panic(err)
	}
	return r
}
