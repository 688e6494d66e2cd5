// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/moderation-admin/internal/core"
)

type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	MarkAsUsed(ctx context.Context, tokenHash, replacedByID string) error
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeByFamilyID(ctx context.Context, familyID string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	ListForUser(ctx context.Context, userID int64) ([]RefreshToken, error)
}

const (
	tokenKeyPrefix  = "auth:refresh:"
	familyKeyPrefix = "auth:family:"
	userKeyPrefix   = "auth:user:"
)

type repository struct {
	rdb *redis.Client
}

// NewRepository stores refresh sessions in Redis. Each token lives under its
// hash with a TTL equal to its remaining lifetime; family and user sets index
// the hashes for bulk revocation.
func NewRepository(rdb *redis.Client) Repository {
	return &repository{rdb: rdb}
}

func tokenKey(hash string) string { return tokenKeyPrefix + hash }
func familyKey(family string) string { return familyKeyPrefix + family }
func userKey(userID int64) string { return userKeyPrefix + strconv.FormatInt(userID, 10) }

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("create refresh token: %w", core.ErrTokenExpired)
	}

	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, tokenKey(token.TokenHash), payload, ttl)
	pipe.SAdd(ctx, familyKey(token.FamilyID), token.TokenHash)
	pipe.Expire(ctx, familyKey(token.FamilyID), ttl)
	pipe.SAdd(ctx, userKey(token.UserID), token.TokenHash)
	pipe.Expire(ctx, userKey(token.UserID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	raw, err := r.rdb.Get(ctx, tokenKey(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	var token RefreshToken
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("decode refresh token: %w", err)
	}

	return &token, nil
}

func (r *repository) MarkAsUsed(
	ctx context.Context,
	tokenHash, replacedByID string,
) error {
	token, err := r.FindByHash(ctx, tokenHash)
	if err != nil {
		return err
	}

	token.MarkAsUsed(replacedByID)

	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("mark refresh token as used: %w", err)
	}

	if err := r.rdb.Set(ctx, tokenKey(tokenHash), payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("mark refresh token as used: %w", err)
	}

	return nil
}

func (r *repository) RevokeByHash(ctx context.Context, tokenHash string) error {
	n, err := r.rdb.Del(ctx, tokenKey(tokenHash)).Result()
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) RevokeByFamilyID(ctx context.Context, familyID string) error {
	return r.revokeSet(ctx, familyKey(familyID))
}

func (r *repository) RevokeAllForUser(ctx context.Context, userID int64) error {
	return r.revokeSet(ctx, userKey(userID))
}

func (r *repository) revokeSet(ctx context.Context, setKey string) error {
	hashes, err := r.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("revoke tokens in %s: %w", setKey, err)
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, tokenKey(h))
	}
	keys = append(keys, setKey)

	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoke tokens in %s: %w", setKey, err)
	}

	return nil
}

func (r *repository) ListForUser(
	ctx context.Context,
	userID int64,
) ([]RefreshToken, error) {
	hashes, err := r.rdb.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	tokens := make([]RefreshToken, 0, len(hashes))
	for _, h := range hashes {
		token, findErr := r.FindByHash(ctx, h)
		if errors.Is(findErr, core.ErrNotFound) {
			continue
		}
		if findErr != nil {
			return nil, findErr
		}
		if token.IsValid() {
			tokens = append(tokens, *token)
		}
	}

	return tokens, nil
}
