// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/moderation-admin/internal/config"
	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/middleware"
	"github.com/carterperez-dev/moderation-admin/internal/role"
)

// Private claims carried by moderator access tokens.
const (
	claimRole         = "role"
	claimTokenVersion = "token_version"
	claimKind         = "type"

	kindModeratorAccess = "access"
)

// JWTManager signs moderator sessions with a single ES256 key and publishes
// the public half as a JWKS document.
type JWTManager struct {
	signer   jwk.Key
	verifier jwk.Key
	jwks     jwk.Set
	keyID    string
	config   config.JWTConfig
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	pem, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	return NewJWTManagerFromPEM(pem, cfg)
}

// NewJWTManagerFromPEM builds a manager from an in-memory P-256 private key.
// A key without a kid gets a short random one.
func NewJWTManagerFromPEM(
	privateKeyPEM []byte,
	cfg config.JWTConfig,
) (*JWTManager, error) {
	signer, err := jwk.ParseKey(privateKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if err := signer.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return nil, fmt.Errorf("set algorithm: %w", err)
	}

	var kid string
	if getErr := signer.Get(jwk.KeyIDKey, &kid); getErr != nil || kid == "" {
		kid = uuid.New().String()[:8]
		if err := signer.Set(jwk.KeyIDKey, kid); err != nil {
			return nil, fmt.Errorf("set key id: %w", err)
		}
	}

	verifier, err := signer.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}
	if err := verifier.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, fmt.Errorf("set key usage: %w", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(verifier); err != nil {
		return nil, fmt.Errorf("add key to set: %w", err)
	}

	return &JWTManager{
		signer:   signer,
		verifier: verifier,
		jwks:     set,
		keyID:    kid,
		config:   cfg,
	}, nil
}

// GeneratePrivateKeyPEM returns a fresh P-256 key in PEM form along with its
// public half.
func GeneratePrivateKeyPEM() (privatePEM, publicPEM []byte, err error) {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}

	private, err := jwk.Import(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("import private key: %w", err)
	}
	if err := private.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return nil, nil, fmt.Errorf("set algorithm: %w", err)
	}

	public, err := private.PublicKey()
	if err != nil {
		return nil, nil, fmt.Errorf("derive public key: %w", err)
	}

	if privatePEM, err = jwk.Pem(private); err != nil {
		return nil, nil, fmt.Errorf("encode private key: %w", err)
	}
	if publicPEM, err = jwk.Pem(public); err != nil {
		return nil, nil, fmt.Errorf("encode public key: %w", err)
	}
	return privatePEM, publicPEM, nil
}

// IssueAccessToken signs a short-lived token for a moderator. The role
// embedded is the user's effective role at issue time.
func (m *JWTManager) IssueAccessToken(user *UserInfo) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(strconv.FormatInt(user.ID, 10)).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(m.config.AccessTokenExpire)).
		Claim(claimRole, user.Role.String()).
		Claim(claimTokenVersion, user.TokenVersion).
		Claim(claimKind, kindModeratorAccess).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.signer))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

func (m *JWTManager) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), m.verifier),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
	)
	if err != nil {
		if isExpired(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}
	return sessionClaims(token)
}

func malformed(reason string) error {
	return fmt.Errorf("verify token: %s: %w", reason, core.ErrTokenInvalid)
}

// sessionClaims maps a validated token onto the claims handlers see.
func sessionClaims(token jwt.Token) (*middleware.AccessTokenClaims, error) {
	var kind string
	if err := token.Get(claimKind, &kind); err != nil || kind != kindModeratorAccess {
		return nil, malformed("not an access token")
	}

	subject, _ := token.Subject()
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, malformed("bad subject")
	}

	var roleName string
	if err := token.Get(claimRole, &roleName); err != nil {
		return nil, malformed("missing role")
	}
	parsed, err := role.Parse(roleName)
	if err != nil {
		return nil, malformed("unknown role " + strconv.Quote(roleName))
	}

	// numeric private claims decode as float64
	var version float64
	if err := token.Get(claimTokenVersion, &version); err != nil {
		return nil, malformed("missing token version")
	}

	jti, _ := token.JwtID()
	exp, _ := token.Expiration()

	return &middleware.AccessTokenClaims{
		UserID:       userID,
		Role:         parsed.Type,
		TokenVersion: int(version),
		JTI:          jti,
		ExpiresAt:    exp,
	}, nil
}

func isExpired(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "exp") && strings.Contains(msg, "not satisfied")
}

// JWKSHandler serves the verification key for other services.
func (m *JWTManager) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(m.jwks); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}

func (m *JWTManager) KeyID() string {
	return m.keyID
}

func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.config.AccessTokenExpire
}

// RefreshGrant is an opaque refresh token and the hash it is stored under.
type RefreshGrant struct {
	Token     string
	Hash      string
	FamilyID  string
	ExpiresAt time.Time
}

// IssueRefreshToken mints a refresh token in familyID, starting a new family
// when familyID is empty.
func (m *JWTManager) IssueRefreshToken(familyID string) (*RefreshGrant, error) {
	token, err := core.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if familyID == "" {
		familyID = uuid.New().String()
	}

	return &RefreshGrant{
		Token:     token,
		Hash:      core.HashToken(token),
		FamilyID:  familyID,
		ExpiresAt: time.Now().Add(m.config.RefreshTokenExpire),
	}, nil
}
