// AngelaMos | 2026
// workflow.go

// Package moderation runs the moderator actions on reviews and users:
// word filter auto-check, classifier check, hide/unhide/reset/remove and the
// appeal and ban decisions. Every state change is published as an event and
// counted; a failed publish is logged and never fails the action.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/moderation-admin/internal/classifier"
	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/events"
	"github.com/carterperez-dev/moderation-admin/internal/metrics"
	"github.com/carterperez-dev/moderation-admin/internal/middleware"
	"github.com/carterperez-dev/moderation-admin/internal/review"
	"github.com/carterperez-dev/moderation-admin/internal/user"
)

const tracerName = "github.com/carterperez-dev/moderation-admin/internal/moderation"

// WordChecker is the part of the offensive word filter the workflow uses.
type WordChecker interface {
	Check(text string) bool
	Matches(text string) []string
}

type Config struct {
	DB         *sqlx.DB
	Filter     WordChecker
	Classifier classifier.Classifier
	Publisher  events.Publisher
	Logger     *slog.Logger
	Tracer     trace.Tracer
}

type Workflow struct {
	db         *sqlx.DB
	reviews    review.Repository
	users      user.Repository
	filter     WordChecker
	classifier classifier.Classifier
	publisher  events.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewWorkflow(cfg Config) *Workflow {
	w := &Workflow{
		db:         cfg.DB,
		reviews:    review.NewRepository(cfg.DB),
		users:      user.NewRepository(cfg.DB),
		filter:     cfg.Filter,
		classifier: cfg.Classifier,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger,
		tracer:     cfg.Tracer,
	}
	if w.classifier == nil {
		w.classifier = classifier.Unavailable{}
	}
	if w.publisher == nil {
		w.publisher = events.NopPublisher{}
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.tracer == nil {
		w.tracer = otel.Tracer(tracerName)
	}
	return w
}

func offensiveMessage(id int64) string {
	return fmt.Sprintf("Review %d is offensive. Hiding the review.", id)
}

func cleanMessage(id int64) string {
	return fmt.Sprintf("Review %d is not offensive.", id)
}

// AutoCheck runs the word filter over reviews in order. Offensive reviews are
// hidden and their flags reset before their message is appended. A store
// failure stops the run and returns the messages produced so far.
func (w *Workflow) AutoCheck(ctx context.Context, reviews []review.Review) ([]string, error) {
	ctx, span := w.tracer.Start(ctx, "moderation.AutoCheck",
		trace.WithAttributes(attribute.Int("reviews", len(reviews))))
	defer span.End()

	messages := make([]string, 0, len(reviews))
	for i := range reviews {
		r := &reviews[i]

		if !w.filter.Check(r.Content) {
			metrics.AutoCheckTotal.WithLabelValues(metrics.VerdictClean).Inc()
			messages = append(messages, cleanMessage(r.ID))
			continue
		}

		metrics.AutoCheckTotal.WithLabelValues(metrics.VerdictOffensive).Inc()
		if err := w.hideAndReset(ctx, r, "word_filter"); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "auto-check aborted")
			return messages, fmt.Errorf("auto-check review %d: %w", r.ID, err)
		}

		w.logger.InfoContext(ctx, "review hidden by word filter",
			"review_id", r.ID,
			"matches", w.filter.Matches(r.Content),
		)
		messages = append(messages, offensiveMessage(r.ID))
	}

	return messages, nil
}

func (w *Workflow) AutoCheckFlagged(ctx context.Context) ([]string, error) {
	flagged, err := w.reviews.GetFlagged(ctx)
	if err != nil {
		return nil, fmt.Errorf("auto-check flagged: %w", err)
	}
	return w.AutoCheck(ctx, flagged)
}

// AutoCheckIDs resolves every id before checking any of them, so an unknown
// id leaves all reviews untouched.
func (w *Workflow) AutoCheckIDs(ctx context.Context, ids []int64) ([]string, error) {
	reviews := make([]review.Review, 0, len(ids))
	for _, id := range ids {
		r, err := w.reviews.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *r)
	}
	return w.AutoCheck(ctx, reviews)
}

type AICheckResult struct {
	ReviewID    int64   `json:"review_id"`
	Found       bool    `json:"found"`
	IsOffensive bool    `json:"is_offensive"`
	Confidence  float64 `json:"confidence"`
	Hidden      bool    `json:"hidden"`
}

// AICheck asks the classifier about r and hides it with flags reset when the
// verdict is offensive. A clean verdict changes nothing. A nil review is
// logged and ignored.
func (w *Workflow) AICheck(ctx context.Context, r *review.Review) error {
	_, err := w.aiCheck(ctx, r)
	return err
}

// AICheckByID is AICheck for a review id. An unknown id behaves like a nil
// review.
func (w *Workflow) AICheckByID(ctx context.Context, id int64) (AICheckResult, error) {
	r, err := w.reviews.GetByID(ctx, id)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return AICheckResult{ReviewID: id}, err
	}

	res, err := w.aiCheck(ctx, r)
	res.ReviewID = id
	return res, err
}

func (w *Workflow) aiCheck(ctx context.Context, r *review.Review) (AICheckResult, error) {
	if r == nil {
		w.logger.InfoContext(ctx, "Review not found.")
		return AICheckResult{}, nil
	}

	ctx, span := w.tracer.Start(ctx, "moderation.AICheck",
		trace.WithAttributes(attribute.Int64("review.id", r.ID)))
	defer span.End()

	res := AICheckResult{ReviewID: r.ID, Found: true, Hidden: r.IsHidden}

	verdict, err := w.classifier.Classify(ctx, r.Content)
	if err != nil {
		metrics.AICheckTotal.WithLabelValues(metrics.VerdictUnavailable).Inc()
		w.logger.ErrorContext(ctx, "classifier check failed", "review_id", r.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "classifier failed")
		return res, fmt.Errorf("ai check review %d: %w", r.ID, err)
	}

	res.IsOffensive = verdict.IsOffensive
	res.Confidence = verdict.Confidence
	span.SetAttributes(
		attribute.Bool("verdict.offensive", verdict.IsOffensive),
		attribute.Float64("verdict.confidence", verdict.Confidence),
	)

	if !verdict.IsOffensive {
		metrics.AICheckTotal.WithLabelValues(metrics.VerdictClean).Inc()
		return res, nil
	}

	metrics.AICheckTotal.WithLabelValues(metrics.VerdictOffensive).Inc()
	if err := w.hideAndReset(ctx, r, "classifier"); err != nil {
		return res, fmt.Errorf("ai check review %d: %w", r.ID, err)
	}

	w.logger.InfoContext(ctx, "review hidden by classifier",
		"review_id", r.ID,
		"confidence", verdict.Confidence,
	)
	res.Hidden = true
	return res, nil
}

// hideAndReset hides snapshot and zeroes its flags in one update. When the
// snapshot carries a version, a review changed since it was read is reported
// as core.ErrConflict instead of being overwritten.
func (w *Workflow) hideAndReset(ctx context.Context, snapshot *review.Review, source string) error {
	err := core.InTx(ctx, w.db, func(tx *sqlx.Tx) error {
		repo := review.NewRepository(tx)

		current, err := repo.GetByID(ctx, snapshot.ID)
		if err != nil {
			return err
		}
		if snapshot.Version != 0 && snapshot.Version != current.Version {
			return fmt.Errorf("review %d changed since it was read: %w", snapshot.ID, core.ErrConflict)
		}

		current.IsHidden = true
		current.NumberOfFlags = 0
		return repo.UpdateIfVersion(ctx, current)
	})
	if err != nil {
		return err
	}

	metrics.ReviewsHidden.Inc()
	w.publish(ctx, events.ReviewHidden, snapshot.ID, map[string]any{"source": source, "flags_reset": true})
	return nil
}

func (w *Workflow) ResetFlags(ctx context.Context, id int64) error {
	if err := w.reviews.ResetFlags(ctx, id); err != nil {
		return err
	}
	w.publish(ctx, events.ReviewFlagsReset, id, nil)
	return nil
}

func (w *Workflow) HideReview(ctx context.Context, id int64) error {
	if err := w.reviews.Hide(ctx, id); err != nil {
		return err
	}
	metrics.ReviewsHidden.Inc()
	w.publish(ctx, events.ReviewHidden, id, map[string]any{"source": "moderator"})
	return nil
}

func (w *Workflow) UnhideReview(ctx context.Context, id int64) error {
	if err := w.reviews.Unhide(ctx, id); err != nil {
		return err
	}
	w.publish(ctx, events.ReviewUnhidden, id, nil)
	return nil
}

// RemoveReview deletes the review and counts it against its author.
func (w *Workflow) RemoveReview(ctx context.Context, id int64) error {
	var authorID int64
	err := core.InTx(ctx, w.db, func(tx *sqlx.Tx) error {
		reviews := review.NewRepository(tx)

		r, err := reviews.GetByID(ctx, id)
		if err != nil {
			return err
		}
		authorID = r.UserID

		if err := reviews.Remove(ctx, id); err != nil {
			return err
		}
		return user.NewRepository(tx).IncrementDeletedReviews(ctx, r.UserID)
	})
	if err != nil {
		return fmt.Errorf("remove review %d: %w", id, err)
	}

	w.publish(ctx, events.ReviewRemoved, id, map[string]any{"user_id": authorID})
	return nil
}

func actorOf(ctx context.Context) int64 {
	return middleware.GetUserID(ctx)
}

func (w *Workflow) publish(ctx context.Context, t events.Type, subjectID int64, data map[string]any) {
	ev := events.New(t, subjectID, actorOf(ctx), data)
	if err := w.publisher.Publish(ctx, ev); err != nil {
		metrics.EventPublishErrors.WithLabelValues(string(t)).Inc()
		w.logger.WarnContext(ctx, "event publish failed",
			"type", t,
			"subject_id", subjectID,
			"error", err,
		)
	}
}
