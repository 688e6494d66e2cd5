// AngelaMos | 2026
// appeals.go

package moderation

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/events"
	"github.com/carterperez-dev/moderation-admin/internal/metrics"
	"github.com/carterperez-dev/moderation-admin/internal/role"
	"github.com/carterperez-dev/moderation-admin/internal/user"
)

func (w *Workflow) ListAppeals(ctx context.Context) ([]user.User, error) {
	return w.users.ListWithAppeal(ctx)
}

// AcceptAppeal reinstates a banned user who has appealed: roles become
// exactly {User} and the appeal is cleared in one transaction.
func (w *Workflow) AcceptAppeal(ctx context.Context, userID int64) error {
	ctx, span := w.tracer.Start(ctx, "moderation.AcceptAppeal",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	err := core.InTx(ctx, w.db, func(tx *sqlx.Tx) error {
		users := user.NewRepository(tx)

		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !u.IsBanned() {
			return fmt.Errorf("user %d is not banned: %w", userID, core.ErrInvalidInput)
		}
		if !u.HasSubmittedAppeal {
			return fmt.Errorf("user %d has no pending appeal: %w", userID, core.ErrInvalidInput)
		}

		if err := users.SetRoles(ctx, userID, []role.Type{role.User}); err != nil {
			return err
		}
		return users.SetAppeal(ctx, userID, false)
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("accept appeal: %w", err)
	}

	metrics.AppealsTotal.WithLabelValues("accepted").Inc()
	w.publish(ctx, events.AppealAccepted, userID, map[string]any{"role": role.User.String()})
	return nil
}

// DenyAppeal keeps the ban and clears the appeal.
func (w *Workflow) DenyAppeal(ctx context.Context, userID int64) error {
	err := core.InTx(ctx, w.db, func(tx *sqlx.Tx) error {
		users := user.NewRepository(tx)

		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !u.HasSubmittedAppeal {
			return fmt.Errorf("user %d has no pending appeal: %w", userID, core.ErrInvalidInput)
		}
		return users.SetAppeal(ctx, userID, false)
	})
	if err != nil {
		return fmt.Errorf("deny appeal: %w", err)
	}

	metrics.AppealsTotal.WithLabelValues("denied").Inc()
	w.publish(ctx, events.AppealDenied, userID, nil)
	return nil
}

// BanUser removes every role, clears any appeal and invalidates the user's
// access tokens.
func (w *Workflow) BanUser(ctx context.Context, userID int64) error {
	if userID == actorOf(ctx) {
		return fmt.Errorf("ban user %d: moderators cannot ban themselves: %w", userID, core.ErrInvalidInput)
	}

	err := core.InTx(ctx, w.db, func(tx *sqlx.Tx) error {
		users := user.NewRepository(tx)

		if _, err := users.GetByID(ctx, userID); err != nil {
			return err
		}
		if err := users.SetRoles(ctx, userID, nil); err != nil {
			return err
		}
		if err := users.SetAppeal(ctx, userID, false); err != nil {
			return err
		}
		return users.IncrementTokenVersion(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("ban user: %w", err)
	}

	w.publish(ctx, events.UserBanned, userID, nil)
	return nil
}
