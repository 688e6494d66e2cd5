// AngelaMos | 2026
// handler.go

package review

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/moderation-admin/internal/core"
)

const defaultRecentCount = 10

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the read-only review queries on the /reviews
// subrouter. The caller is expected to have applied authentication and the
// moderator guard to r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/flagged", h.Flagged)
	r.Get("/hidden", h.Hidden)
	r.Get("/recent", h.Recent)
	r.Get("/since", h.Since)
	r.Get("/average", h.Average)
	r.Get("/{reviewID}", h.Get)
}

// RegisterUserRoutes mounts per-author queries on the /users subrouter.
func (h *Handler) RegisterUserRoutes(r chi.Router) {
	r.Get("/{userID}/reviews", h.ByUser)
}

func (h *Handler) Flagged(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.GetFlaggedReviews(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, ToReviewResponseList(reviews))
}

func (h *Handler) Hidden(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.GetHiddenReviews(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, ToReviewResponseList(reviews))
}

func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	count := core.ParseIntQuery(r, "count", defaultRecentCount)
	if count > 100 {
		count = 100
	}

	reviews, err := h.service.GetMostRecentReviews(r.Context(), count)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, ToReviewResponseList(reviews))
}

// Since accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date (UTC
// midnight) in the date query parameter.
func (h *Handler) Since(w http.ResponseWriter, r *http.Request) {
	since, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		core.BadRequest(w, "date must be RFC 3339 or YYYY-MM-DD")
		return
	}

	reviews, err := h.service.GetReviewsSince(r.Context(), since)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, ToReviewResponseList(reviews))
}

func (h *Handler) Average(w http.ResponseWriter, r *http.Request) {
	avg, err := h.service.GetAverageRatingForVisibleReviews(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, AverageResponse{AverageRating: avg})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "reviewID"))
	if err != nil {
		core.BadRequest(w, "invalid review id")
		return
	}

	rev, err := h.service.GetReview(r.Context(), id)
	if err != nil {
		core.WriteError(w, "review", err)
		return
	}
	core.OK(w, ToReviewResponse(rev))
}

func (h *Handler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := core.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		core.BadRequest(w, "invalid user id")
		return
	}

	reviews, err := h.service.GetReviewsByUser(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, ToReviewResponseList(reviews))
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
