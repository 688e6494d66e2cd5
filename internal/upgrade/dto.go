// AngelaMos | 2026
// dto.go

package upgrade

import (
	"time"

	"github.com/carterperez-dev/moderation-admin/internal/role"
)

type CreateRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type RequestResponse struct {
	ID                        int64     `json:"request_id"`
	RequestingUserID          int64     `json:"requesting_user_id"`
	RequestingUserDisplayName string    `json:"requesting_user_display_name"`
	CreatedAt                 time.Time `json:"created_at"`
}

type ProcessResponse struct {
	RequestID   int64      `json:"request_id"`
	Approved    bool       `json:"approved"`
	GrantedRole *role.Role `json:"granted_role,omitempty"`
}

type PurgeResponse struct {
	Removed int `json:"removed"`
}

func ToRequestResponse(r *Request) RequestResponse {
	return RequestResponse{
		ID:                        r.ID,
		RequestingUserID:          r.RequestingUserID,
		RequestingUserDisplayName: r.RequestingUserDisplayName,
		CreatedAt:                 r.CreatedAt,
	}
}

func ToRequestResponseList(reqs []Request) []RequestResponse {
	out := make([]RequestResponse, len(reqs))
	for i := range reqs {
		out[i] = ToRequestResponse(&reqs[i])
	}
	return out
}
