// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/moderation-admin/internal/config"
	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/role"
)

type memoryTokens struct {
	mu     sync.Mutex
	byHash map[string]*RefreshToken
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{byHash: make(map[string]*RefreshToken)}
}

func (m *memoryTokens) Create(_ context.Context, token *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *token
	m.byHash[token.TokenHash] = &cp
	return nil
}

func (m *memoryTokens) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[hash]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memoryTokens) MarkAsUsed(_ context.Context, hash, replacedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[hash]
	if !ok {
		return core.ErrNotFound
	}
	t.MarkAsUsed(replacedBy)
	return nil
}

func (m *memoryTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byHash[hash]; !ok {
		return core.ErrNotFound
	}
	delete(m.byHash, hash)
	return nil
}

func (m *memoryTokens) RevokeByFamilyID(_ context.Context, family string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, t := range m.byHash {
		if t.FamilyID == family {
			delete(m.byHash, h)
		}
	}
	return nil
}

func (m *memoryTokens) RevokeAllForUser(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, t := range m.byHash {
		if t.UserID == userID {
			delete(m.byHash, h)
		}
	}
	return nil
}

func (m *memoryTokens) ListForUser(_ context.Context, userID int64) ([]RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RefreshToken
	for _, t := range m.byHash {
		if t.UserID == userID && t.IsValid() {
			out = append(out, *t)
		}
	}
	return out, nil
}

type memoryUsers struct {
	mu    sync.Mutex
	users map[int64]*UserInfo
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memoryUsers) GetByID(_ context.Context, id int64) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) IncrementTokenVersion(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].TokenVersion++
	return nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].PasswordHash = hash
	return nil
}

type memoryBlacklist struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func (b *memoryBlacklist) Revoke(_ context.Context, jti string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids[jti] = struct{}{}
	return nil
}

func (b *memoryBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.ids[jti]
	return ok, nil
}

const testPassword = "correct-horse-battery"

func newTestService(t *testing.T) (*Service, *memoryUsers, *memoryTokens) {
	t.Helper()

	privatePEM, _, err := GeneratePrivateKeyPEM()
	require.NoError(t, err)

	jwtManager, err := NewJWTManagerFromPEM(privatePEM, config.JWTConfig{
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: time.Hour,
		Issuer:             "moderation-admin",
		Audience:           "moderation-admin-api",
	})
	require.NoError(t, err)

	hash, err := core.HashPassword(testPassword)
	require.NoError(t, err)

	users := &memoryUsers{users: map[int64]*UserInfo{
		1: {ID: 1, Email: "manager@example.com", Name: "Mia", PasswordHash: hash, Role: role.Manager},
		2: {ID: 2, Email: "user@example.com", Name: "Uma", PasswordHash: hash, Role: role.User},
	}}
	tokens := newMemoryTokens()
	blacklist := &memoryBlacklist{ids: make(map[string]struct{})}

	return NewService(tokens, jwtManager, users, blacklist), users, tokens
}

func TestLoginIssuesVerifiableTokens(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	resp, err := svc.Login(ctx, LoginRequest{Email: "manager@example.com", Password: testPassword}, "test", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)
	assert.Equal(t, "Manager", resp.User.Role)
	assert.True(t, resp.User.IsManager)

	claims, err := svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, role.Manager, claims.Role)
}

func TestLoginRejections(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Login(ctx, LoginRequest{Email: "manager@example.com", Password: "wrong-password"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: testPassword}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "user@example.com", Password: testPassword}, "", "")
	assert.ErrorIs(t, err, ErrNotModerator)
}

func TestRefreshRotatesAndDetectsReuse(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newTestService(t)

	first, err := svc.Login(ctx, LoginRequest{Email: "manager@example.com", Password: testPassword}, "", "")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)

	_, err = svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrTokenReuse)

	_, err = tokens.FindByHash(ctx, core.HashToken(second.Tokens.RefreshToken))
	assert.ErrorIs(t, err, core.ErrNotFound, "reuse revokes the whole family")

	_, err = svc.Refresh(ctx, "never-issued", "", "")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestRefreshRefusedAfterDemotion(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newTestService(t)

	resp, err := svc.Login(ctx, LoginRequest{Email: "manager@example.com", Password: testPassword}, "", "")
	require.NoError(t, err)

	users.users[1].Role = role.Banned

	_, err = svc.Refresh(ctx, resp.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	resp, err := svc.Login(ctx, LoginRequest{Email: "manager@example.com", Password: testPassword}, "", "")
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, resp.Tokens.RefreshToken, claims))

	_, err = svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = svc.Refresh(ctx, resp.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestLogoutAllBumpsTokenVersion(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	resp, err := svc.Login(ctx, LoginRequest{Email: "manager@example.com", Password: testPassword}, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(ctx, 1))

	_, err = svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.VerifyAccessToken(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}
