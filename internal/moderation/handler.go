// AngelaMos | 2026
// handler.go

package moderation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/moderation-admin/internal/classifier"
	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/middleware"
	"github.com/carterperez-dev/moderation-admin/internal/user"
)

type AutoCheckRequest struct {
	ReviewIDs []int64 `json:"review_ids" validate:"max=500,dive,gt=0"`
}

type AutoCheckResponse struct {
	Messages []string `json:"messages"`
}

type Handler struct {
	workflow  *Workflow
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(workflow *Workflow, logger *slog.Logger) *Handler {
	return &Handler{
		workflow:  workflow,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// RegisterRoutes mounts /moderation and /appeals.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/moderation", func(r chi.Router) {
		r.Post("/auto-check", h.AutoCheck)
		r.Post("/ai-check/{reviewID}", h.AICheck)
	})

	r.Route("/appeals", func(r chi.Router) {
		r.Get("/", h.ListAppeals)
		r.Post("/{userID}/accept", h.AcceptAppeal)
		r.Post("/{userID}/deny", h.DenyAppeal)
	})
}

// RegisterReviewRoutes mounts review mutations on the /reviews subrouter.
func (h *Handler) RegisterReviewRoutes(r chi.Router) {
	r.Post("/{reviewID}/hide", h.reviewAction(h.workflow.HideReview))
	r.Post("/{reviewID}/unhide", h.reviewAction(h.workflow.UnhideReview))
	r.Post("/{reviewID}/reset-flags", h.reviewAction(h.workflow.ResetFlags))
	r.Delete("/{reviewID}", h.reviewAction(h.workflow.RemoveReview))
}

// RegisterUserRoutes mounts user moderation on the /users subrouter.
func (h *Handler) RegisterUserRoutes(r chi.Router) {
	r.Post("/{userID}/ban", h.userAction(h.workflow.BanUser))
}

func (h *Handler) AutoCheck(w http.ResponseWriter, r *http.Request) {
	var req AutoCheckRequest
	if r.ContentLength != 0 {
		if err := core.DecodeJSON(r, &req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			core.BadRequest(w, core.FormatValidationError(err))
			return
		}
	}

	var (
		messages []string
		err      error
	)
	if len(req.ReviewIDs) == 0 {
		messages, err = h.workflow.AutoCheckFlagged(r.Context())
	} else {
		messages, err = h.workflow.AutoCheckIDs(r.Context(), req.ReviewIDs)
	}
	if err != nil {
		h.logger.Error("auto-check failed",
			"completed", len(messages),
			"moderator_id", middleware.GetUserID(r.Context()),
			"error", err,
		)
		writeError(w, "review", err)
		return
	}

	if messages == nil {
		messages = []string{}
	}
	core.OK(w, AutoCheckResponse{Messages: messages})
}

func (h *Handler) AICheck(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "reviewID"))
	if err != nil {
		core.BadRequest(w, "invalid review id")
		return
	}

	res, err := h.workflow.AICheckByID(r.Context(), id)
	if err != nil {
		writeError(w, "review", err)
		return
	}
	if !res.Found {
		core.NotFound(w, "review")
		return
	}
	core.OK(w, res)
}

func (h *Handler) ListAppeals(w http.ResponseWriter, r *http.Request) {
	users, err := h.workflow.ListAppeals(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, user.ToUserResponseList(users))
}

func (h *Handler) AcceptAppeal(w http.ResponseWriter, r *http.Request) {
	h.userAction(h.workflow.AcceptAppeal)(w, r)
}

func (h *Handler) DenyAppeal(w http.ResponseWriter, r *http.Request) {
	h.userAction(h.workflow.DenyAppeal)(w, r)
}

type idAction func(ctx context.Context, id int64) error

func (h *Handler) reviewAction(action idAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := core.ParseID(chi.URLParam(r, "reviewID"))
		if err != nil {
			core.BadRequest(w, "invalid review id")
			return
		}

		if err := action(r.Context(), id); err != nil {
			writeError(w, "review", err)
			return
		}
		core.NoContent(w)
	}
}

func (h *Handler) userAction(action idAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := core.ParseID(chi.URLParam(r, "userID"))
		if err != nil {
			core.BadRequest(w, "invalid user id")
			return
		}

		if err := action(r.Context(), id); err != nil {
			writeError(w, "user", err)
			return
		}

		h.logger.Info("user moderated",
			"path", r.URL.Path,
			"user_id", id,
			"moderator_id", middleware.GetUserID(r.Context()),
		)
		core.NoContent(w)
	}
}

func writeError(w http.ResponseWriter, resource string, err error) {
	if errors.Is(err, classifier.ErrUnavailable) {
		core.JSONError(w, core.UnavailableError(err, "offensiveness classifier unavailable"))
		return
	}
	core.WriteError(w, resource, err)
}
