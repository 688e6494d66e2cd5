// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshToken is a refresh session as stored in Redis, keyed by the SHA-256
// of the opaque token. A used token is kept until expiry so replays can be
// detected and the whole family revoked.
type RefreshToken struct {
	ID         string     `json:"id"`
	UserID     int64      `json:"user_id"`
	TokenHash  string     `json:"token_hash"`
	FamilyID   string     `json:"family_id"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	IsUsed     bool       `json:"is_used"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	ReplacedBy string     `json:"replaced_by,omitempty"`
	UserAgent  string     `json:"user_agent"`
	IPAddress  string     `json:"ip_address"`
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *RefreshToken) IsValid() bool {
	return !t.IsExpired() && !t.IsUsed
}

func (t *RefreshToken) MarkAsUsed(replacedByID string) {
	now := time.Now().UTC()
	t.IsUsed = true
	t.UsedAt = &now
	t.ReplacedBy = replacedByID
}
