// AngelaMos | 2026
// handler.go

package wordfilter

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/middleware"
)

type WordRequest struct {
	Word string `json:"word" validate:"required,max=100"`
}

type CheckRequest struct {
	Text string `json:"text" validate:"max=10000"`
}

type CheckResponse struct {
	Offensive bool     `json:"offensive"`
	Matches   []string `json:"matches"`
}

type WordsResponse struct {
	Words []string `json:"words"`
	Count int      `json:"count"`
}

type Handler struct {
	filter    *Filter
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(filter *Filter, logger *slog.Logger) *Handler {
	return &Handler{
		filter:    filter,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/words", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Add)
		r.Post("/check", h.Check)
		r.Delete("/{word}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	words := h.filter.List()
	core.OK(w, WordsResponse{Words: words, Count: len(words)})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req WordRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.filter.Add(r.Context(), req.Word); err != nil {
		core.WriteError(w, "word list", err)
		return
	}

	h.logger.Info("offensive word added",
		"word", req.Word,
		"moderator_id", middleware.GetUserID(r.Context()),
	)
	core.NoContent(w)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	word, err := url.PathUnescape(chi.URLParam(r, "word"))
	if err != nil {
		core.BadRequest(w, "invalid word")
		return
	}

	if err := h.filter.Delete(r.Context(), word); err != nil {
		core.WriteError(w, "word list", err)
		return
	}

	h.logger.Info("offensive word deleted",
		"word", word,
		"moderator_id", middleware.GetUserID(r.Context()),
	)
	core.NoContent(w)
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	matches := h.filter.Matches(req.Text)
	if matches == nil {
		matches = []string{}
	}
	core.OK(w, CheckResponse{Offensive: h.filter.Check(req.Text), Matches: matches})
}
