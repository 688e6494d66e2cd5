// AngelaMos | 2026
// entity.go

package upgrade

import (
	"time"
)

// Request asks for the requesting user to be promoted one step up the role
// hierarchy. It is consumed exactly once, whether approved or declined.
type Request struct {
	ID                        int64     `db:"id"`
	RequestingUserID          int64     `db:"requesting_user_id"`
	RequestingUserDisplayName string    `db:"requesting_user_display_name"`
	CreatedAt                 time.Time `db:"created_at"`
}
