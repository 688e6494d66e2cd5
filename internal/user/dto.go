// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/moderation-admin/internal/role"
)

type UserResponse struct {
	ID                 int64       `json:"id"`
	Email              string      `json:"email"`
	FullName           string      `json:"full_name"`
	DeletedReviews     int         `json:"number_of_deleted_reviews"`
	HasSubmittedAppeal bool        `json:"has_submitted_appeal"`
	Roles              []role.Role `json:"assigned_roles"`
	EffectiveRole      role.Role   `json:"effective_role"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

type ListUsersParams struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Search     string `json:"search"`
	BannedOnly bool   `json:"banned_only"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []role.Role{}
	}
	return UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		FullName:           u.FullName,
		DeletedReviews:     u.DeletedReviews,
		HasSubmittedAppeal: u.HasSubmittedAppeal,
		Roles:              roles,
		EffectiveRole:      u.HighestRole(),
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
