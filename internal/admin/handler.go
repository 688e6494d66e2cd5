// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/digest"
	"github.com/carterperez-dev/moderation-admin/internal/review"
)

type ReviewStats interface {
	QueueStats(ctx context.Context) (*review.QueueStats, error)
}

type UserCounts interface {
	Count(ctx context.Context) (int, error)
	CountBanned(ctx context.Context) (int, error)
}

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type WordCounter interface {
	Count() int
}

type DigestRunner interface {
	Run(ctx context.Context) (*digest.Report, error)
}

type HandlerConfig struct {
	DBStats         func() sql.DBStats
	RedisStats      func() *redis.PoolStats
	Reviews         ReviewStats
	Users           UserCounts
	UpgradeRequests Counter
	Words           WordCounter
	Digest          DigestRunner
	Logger          *slog.Logger
}

type Handler struct {
	cfg HandlerConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{cfg: cfg}
}

// RegisterRoutes mounts /admin on r. Only Managers reach these endpoints;
// the caller applies authentication before guard.
func (h *Handler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(guard)

		r.Get("/stats", h.GetModerationStats)
		r.Get("/stats/pools", h.GetPoolStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
		r.Post("/digest/run", h.RunDigest)
	})
}

func (h *Handler) GetModerationStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	queue, err := h.cfg.Reviews.QueueStats(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	total, err := h.cfg.Users.Count(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	banned, err := h.cfg.Users.CountBanned(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	pending, err := h.cfg.UpgradeRequests.Count(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := ModerationStatsResponse{
		Reviews:                *queue,
		Users:                  total,
		BannedUsers:            banned,
		PendingUpgradeRequests: pending,
	}
	if h.cfg.Words != nil {
		resp.OffensiveWords = h.cfg.Words.Count()
	}

	core.OK(w, resp)
}

func (h *Handler) GetPoolStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, PoolStatsResponse{
		Database: h.dbStats(),
		Redis:    h.redisStats(),
	})
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	core.OK(w, RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     mem.Alloc,
		MemSys:       mem.Sys,
		NumGC:        mem.NumGC,
	})
}

// RunDigest sends the statistics digest immediately, outside the schedule.
func (h *Handler) RunDigest(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Digest == nil {
		core.JSONError(w, core.UnavailableError(digest.ErrMailNotConfigured, "digest is not configured"))
		return
	}

	report, err := h.cfg.Digest.Run(r.Context())
	switch {
	case errors.Is(err, digest.ErrMailNotConfigured):
		core.JSONError(w, core.UnavailableError(err, "mail service is not configured"))
	case err != nil && (report == nil || report.Sent == 0):
		h.cfg.Logger.ErrorContext(r.Context(), "manual digest failed", "error", err)
		core.JSONError(w, core.UnavailableError(err, "digest could not be sent"))
	default:
		core.OK(w, report)
	}
}

func (h *Handler) dbStats() *DBPoolStats {
	if h.cfg.DBStats == nil {
		return nil
	}

	s := h.cfg.DBStats()
	return &DBPoolStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration.String(),
	}
}

func (h *Handler) redisStats() *RedisPoolStats {
	if h.cfg.RedisStats == nil {
		return nil
	}

	s := h.cfg.RedisStats()
	return &RedisPoolStats{
		Hits:       s.Hits,
		Misses:     s.Misses,
		Timeouts:   s.Timeouts,
		TotalConns: s.TotalConns,
		IdleConns:  s.IdleConns,
	}
}

type ModerationStatsResponse struct {
	Reviews                review.QueueStats `json:"reviews"`
	Users                  int               `json:"users"`
	BannedUsers            int               `json:"banned_users"`
	PendingUpgradeRequests int               `json:"pending_upgrade_requests"`
	OffensiveWords         int               `json:"offensive_words"`
}

type PoolStatsResponse struct {
	Database *DBPoolStats    `json:"database,omitempty"`
	Redis    *RedisPoolStats `json:"redis,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
