// AngelaMos | 2026
// service.go

package upgrade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/events"
	"github.com/carterperez-dev/moderation-admin/internal/metrics"
	"github.com/carterperez-dev/moderation-admin/internal/middleware"
	"github.com/carterperez-dev/moderation-admin/internal/role"
	"github.com/carterperez-dev/moderation-admin/internal/user"
)

type Config struct {
	DB        *sqlx.DB
	Publisher events.Publisher
	Logger    *slog.Logger
}

type Service struct {
	db        *sqlx.DB
	repo      Repository
	users     user.Repository
	publisher events.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewService(cfg Config) *Service {
	s := &Service{
		db:        cfg.DB,
		repo:      NewRepository(cfg.DB),
		users:     user.NewRepository(cfg.DB),
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		tracer:    otel.Tracer("github.com/carterperez-dev/moderation-admin/internal/upgrade"),
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]Request, error) {
	return s.repo.List(ctx)
}

// Create files a promotion request for userID, capturing the user's current
// display name.
func (s *Service) Create(ctx context.Context, userID int64) (*Request, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create upgrade request: %w", err)
	}

	req := &Request{
		RequestingUserID:          u.ID,
		RequestingUserDisplayName: u.FullName,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	return req, nil
}

// ProcessUpgradeRequest consumes request id. Declining only deletes it.
// Approving grants the requesting user the role above their highest one and
// deletes the request in one transaction; if the promotion is impossible
// (already Manager) or anything fails, neither happens. Roles are additive:
// the user keeps the roles they already hold.
func (s *Service) ProcessUpgradeRequest(ctx context.Context, approve bool, id int64) (*role.Role, error) {
	ctx, span := s.tracer.Start(ctx, "upgrade.ProcessUpgradeRequest", trace.WithAttributes(
		attribute.Int64("request.id", id),
		attribute.Bool("approve", approve),
	))
	defer span.End()

	if !approve {
		if err := s.repo.Delete(ctx, id); err != nil {
			return nil, err
		}
		metrics.UpgradeRequestsProcessed.WithLabelValues(metrics.OutcomeDeclined).Inc()
		s.publish(ctx, events.UpgradeDeclined, id, nil)
		return nil, nil
	}

	var (
		granted role.Role
		userID  int64
	)
	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		requests := NewRepository(tx)
		users := user.NewRepository(tx)

		req, err := requests.GetByID(ctx, id)
		if err != nil {
			return err
		}
		userID = req.RequestingUserID

		roles, err := users.GetRoles(ctx, req.RequestingUserID)
		if err != nil {
			return err
		}

		next, err := role.Next(role.Highest(roles).Type)
		if err != nil {
			return fmt.Errorf("promote user %d: %w", req.RequestingUserID, err)
		}

		if err := users.AddRole(ctx, req.RequestingUserID, next.Type); err != nil {
			return err
		}
		granted = next

		return requests.Delete(ctx, id)
	})
	if err != nil {
		metrics.UpgradeRequestsProcessed.WithLabelValues(metrics.OutcomeFailed).Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("approve upgrade request %d: %w", id, err)
	}

	metrics.UpgradeRequestsProcessed.WithLabelValues(metrics.OutcomeApproved).Inc()
	s.logger.InfoContext(ctx, "upgrade request approved",
		"request_id", id,
		"user_id", userID,
		"role", granted.Name,
	)
	s.publish(ctx, events.UpgradeApproved, id, map[string]any{"user_id": userID})
	s.publish(ctx, events.UserRoleGranted, userID, map[string]any{"role": granted.Name})
	return &granted, nil
}

// RemoveUpgradeRequestsFromBannedUsers deletes every pending request whose
// user is currently Banned. Each request is handled on its own: failures are
// logged and returned joined once the sweep has finished.
func (s *Service) RemoveUpgradeRequestsFromBannedUsers(ctx context.Context) (int, error) {
	requests, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge banned upgrade requests: %w", err)
	}

	var (
		removed int
		errs    []error
	)
	for _, req := range requests {
		roles, err := s.users.GetRoles(ctx, req.RequestingUserID)
		if err != nil {
			s.logger.WarnContext(ctx, "resolve role for upgrade request failed",
				"request_id", req.ID,
				"user_id", req.RequestingUserID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("request %d: %w", req.ID, err))
			continue
		}

		if role.Highest(roles).Type != role.Banned {
			continue
		}

		if err := s.repo.Delete(ctx, req.ID); err != nil {
			s.logger.WarnContext(ctx, "delete upgrade request failed",
				"request_id", req.ID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("request %d: %w", req.ID, err))
			continue
		}

		removed++
		metrics.UpgradeRequestsProcessed.WithLabelValues(metrics.OutcomePurged).Inc()
		s.publish(ctx, events.UpgradePurged, req.ID, map[string]any{"user_id": req.RequestingUserID})
	}

	if removed > 0 {
		s.logger.InfoContext(ctx, "purged upgrade requests from banned users", "removed", removed)
	}

	return removed, errors.Join(errs...)
}

// GetRoleNameBasedOnIdentifier returns the name of the role with ordinal t.
func (s *Service) GetRoleNameBasedOnIdentifier(t role.Type) (string, error) {
	return role.NameOf(t)
}

func (s *Service) publish(ctx context.Context, t events.Type, subjectID int64, data map[string]any) {
	ev := events.New(t, subjectID, middleware.GetUserID(ctx), data)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		metrics.EventPublishErrors.WithLabelValues(string(t)).Inc()
		s.logger.WarnContext(ctx, "event publish failed", "type", t, "error", err)
	}
}
