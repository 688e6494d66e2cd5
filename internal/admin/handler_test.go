// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/moderation-admin/internal/digest"
	"github.com/carterperez-dev/moderation-admin/internal/review"
)

type fakeReviews struct{}

func (fakeReviews) QueueStats(context.Context) (*review.QueueStats, error) {
	return &review.QueueStats{Flagged: 4, Hidden: 2, AverageRating: 3.5}, nil
}

type fakeUsers struct{}

func (fakeUsers) Count(context.Context) (int, error)       { return 10, nil }
func (fakeUsers) CountBanned(context.Context) (int, error) { return 3, nil }

type fixedCount int

func (c fixedCount) Count(context.Context) (int, error) { return int(c), nil }

type fakeWords int

func (w fakeWords) Count() int { return int(w) }

type digestFunc func(context.Context) (*digest.Report, error)

func (f digestFunc) Run(ctx context.Context) (*digest.Report, error) { return f(ctx) }

func passThrough(next http.Handler) http.Handler { return next }

func newRouter(cfg HandlerConfig) http.Handler {
	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r, passThrough)
	return r
}

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec, body
}

func baseConfig() HandlerConfig {
	return HandlerConfig{
		Reviews:         fakeReviews{},
		Users:           fakeUsers{},
		UpgradeRequests: fixedCount(5),
		Words:           fakeWords(42),
	}
}

func TestModerationStats(t *testing.T) {
	rec, body := do(t, newRouter(baseConfig()), http.MethodGet, "/admin/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	assert.EqualValues(t, 10, data["users"])
	assert.EqualValues(t, 3, data["banned_users"])
	assert.EqualValues(t, 5, data["pending_upgrade_requests"])
	assert.EqualValues(t, 42, data["offensive_words"])
	assert.EqualValues(t, 4, data["reviews"].(map[string]any)["flagged"])
}

func TestRunDigest(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		rec, _ := do(t, newRouter(baseConfig()), http.MethodPost, "/admin/digest/run")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("mail missing", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Digest = digestFunc(func(context.Context) (*digest.Report, error) {
			return nil, digest.ErrMailNotConfigured
		})
		rec, _ := do(t, newRouter(cfg), http.MethodPost, "/admin/digest/run")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("partial delivery still succeeds", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Digest = digestFunc(func(context.Context) (*digest.Report, error) {
			return &digest.Report{Recipients: 2, Sent: 1}, errors.New("one mailbox bounced")
		})
		rec, body := do(t, newRouter(cfg), http.MethodPost, "/admin/digest/run")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 1, body["data"].(map[string]any)["sent"])
	})

	t.Run("nothing delivered", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Digest = digestFunc(func(context.Context) (*digest.Report, error) {
			return &digest.Report{Recipients: 1}, errors.New("smtp down")
		})
		rec, _ := do(t, newRouter(cfg), http.MethodPost, "/admin/digest/run")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
