// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/carterperez-dev/moderation-admin/internal/config"
	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/role"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

type verifierFunc func(ctx context.Context, token string) (*AccessTokenClaims, error)

func (f verifierFunc) VerifyAccessToken(ctx context.Context, token string) (*AccessTokenClaims, error) {
	return f(ctx, token)
}

func tokens(claims map[string]*AccessTokenClaims) TokenVerifier {
	return verifierFunc(func(_ context.Context, token string) (*AccessTokenClaims, error) {
		switch token {
		case "expired":
			return nil, core.ErrTokenExpired
		case "revoked":
			return nil, core.ErrTokenRevoked
		}
		c, found := claims[token]
		if !found {
			return nil, core.ErrTokenInvalid
		}
		return c, nil
	})
}

func request(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/reviews/flagged", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticatorAndRoles(t *testing.T) {
	verifier := tokens(map[string]*AccessTokenClaims{
		"manager": {UserID: 1, Role: role.Manager},
		"admin":   {UserID: 2, Role: role.Admin},
		"user":    {UserID: 3, Role: role.User},
	})

	moderated := Authenticator(verifier)(RequireModerator(ok))
	managerOnly := Authenticator(verifier)(RequireManager(ok))

	tests := []struct {
		name    string
		handler http.Handler
		token   string
		code    int
	}{
		{"missing token", moderated, "", http.StatusUnauthorized},
		{"garbage token", moderated, "nope", http.StatusUnauthorized},
		{"expired token", moderated, "expired", http.StatusUnauthorized},
		{"revoked token", moderated, "revoked", http.StatusUnauthorized},
		{"plain user", moderated, "user", http.StatusForbidden},
		{"admin moderates", moderated, "admin", http.StatusOK},
		{"manager moderates", moderated, "manager", http.StatusOK},
		{"admin is not manager", managerOnly, "admin", http.StatusForbidden},
		{"manager approves", managerOnly, "manager", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, request(tt.handler, tt.token).Code)
		})
	}
}

func TestRequireRoleWithoutAuthenticator(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, request(RequireModerator(ok), "").Code)
}

func TestClaimsHelpers(t *testing.T) {
	ctx := WithClaims(context.Background(), &AccessTokenClaims{UserID: 7, Role: role.Manager})

	assert.Equal(t, int64(7), GetUserID(ctx))
	assert.True(t, IsManager(ctx))
	assert.Equal(t, int64(7), GetClaims(ctx).UserID)

	assert.Zero(t, GetUserID(context.Background()))
	assert.Nil(t, GetClaims(context.Background()))
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "bearer  abc.def ")
	assert.Equal(t, "abc.def", ExtractToken(req))
}

func TestRateLimiterLocalFallback(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:      PerMinute(1, 2),
		RoleLimits: map[role.Type]redis_rate.Limit{role.Manager: PerMinute(1, 4)},
	})
	h := rl.Handler(ok)

	send := func(ctx context.Context) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/words", nil).WithContext(ctx)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	anon := context.Background()
	assert.Equal(t, http.StatusOK, send(anon).Code)
	assert.Equal(t, http.StatusOK, send(anon).Code)

	limited := send(anon)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "1", limited.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimitKeys(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/reviews/12/hide", nil)
	req.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2")
	assert.Equal(t, "ratelimit:ip:2.2.2.2", KeyByIP(req))

	req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{UserID: 9, Role: role.Admin}))
	assert.Equal(t, "ratelimit:user:9:endpoint:/v1/reviews/{id}/hide", KeyByUserAndEndpoint(req))
}

func TestRoleLimitOverride(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:      PerMinute(1, 1),
		RoleLimits: map[role.Type]redis_rate.Limit{role.Manager: PerMinute(1, 3)},
	})

	manager := WithClaims(context.Background(), &AccessTokenClaims{UserID: 1, Role: role.Manager})
	assert.Equal(t, 3, rl.limitFor(manager).Burst)
	assert.Equal(t, 1, rl.limitFor(context.Background()).Burst)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc-123", seen)

	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, strings.Repeat("x", 200), seen)
}

func TestCORS(t *testing.T) {
	h := CORS(config.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})(ok)

	preflight := httptest.NewRequest(http.MethodOptions, "/v1/words", nil)
	preflight.Header.Set("Origin", "http://localhost:3000")
	preflight.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	foreign := httptest.NewRequest(http.MethodOptions, "/v1/words", nil)
	foreign.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, foreign)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTracingRecordsServerSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	var traceID string
	h := Tracing(tp.Tracer("test"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = core.TraceIDFromContext(r.Context())
		w.WriteHeader(http.StatusBadGateway)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/reviews/42/hide", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /v1/reviews/{id}/hide", spans[0].Name())
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), traceID)
}
