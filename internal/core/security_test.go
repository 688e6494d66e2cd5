// AngelaMos | 2026
// security_test.go

package core

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-moderator")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("s3cret-moderator", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("anything", "plain-text")
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestRehashOnOutdatedParams(t *testing.T) {
	salt := []byte("0123456789abcdef")
	old := argonParams{memory: 32 * 1024, time: 1, threads: 2, keyLen: 32}
	stored := encodeHash(old, salt, derive("pw", salt, old))

	ok, rehashed, err := VerifyPasswordWithRehash("pw", stored)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, rehashed)

	ok, again, err := VerifyPasswordWithRehash("pw", rehashed)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, again)
}

func TestTimingSafeWithoutHash(t *testing.T) {
	ok, rehashed, err := VerifyPasswordTimingSafe("pw", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehashed)

	empty := ""
	ok, _, err = VerifyPasswordTimingSafe("pw", &empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshTokens(t *testing.T) {
	a, err := GenerateRefreshToken()
	require.NoError(t, err)
	b, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	raw, err := base64.URLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	assert.Equal(t, HashToken(a), HashToken(a))
	assert.Len(t, HashToken(a), 64)
}
