// AngelaMos | 2026
// handler.go

package upgrade

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/middleware"
	"github.com/carterperez-dev/moderation-admin/internal/role"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// RegisterRoutes mounts /upgrade-requests and /roles. Approving and
// declining are restricted to managers.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/upgrade-requests", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/purge-banned", h.PurgeBanned)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireManager)
			r.Post("/{requestID}/approve", h.process(true))
			r.Post("/{requestID}/decline", h.process(false))
		})
	})

	r.Get("/roles", h.Roles)
	r.Get("/roles/{roleType}", h.RoleName)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, ToRequestResponseList(reqs))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateRequest
	if err := core.DecodeJSON(r, &body); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(body); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	req, err := h.service.Create(r.Context(), body.UserID)
	if err != nil {
		core.WriteError(w, "user", err)
		return
	}
	core.Created(w, ToRequestResponse(req))
}

func (h *Handler) process(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := core.ParseID(chi.URLParam(r, "requestID"))
		if err != nil {
			core.BadRequest(w, "invalid request id")
			return
		}

		granted, err := h.service.ProcessUpgradeRequest(r.Context(), approve, id)
		if err != nil {
			writeError(w, err)
			return
		}

		h.logger.Info("upgrade request processed",
			"request_id", id,
			"approved", approve,
			"manager_id", middleware.GetUserID(r.Context()),
		)
		core.OK(w, ProcessResponse{RequestID: id, Approved: approve, GrantedRole: granted})
	}
}

func (h *Handler) PurgeBanned(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.RemoveUpgradeRequestsFromBannedUsers(r.Context())
	if err != nil {
		h.logger.Error("purge finished with errors", "removed", removed, "error", err)
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, PurgeResponse{Removed: removed})
}

func (h *Handler) Roles(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, role.List())
}

func (h *Handler) RoleName(w http.ResponseWriter, r *http.Request) {
	ordinal, err := strconv.Atoi(chi.URLParam(r, "roleType"))
	if err != nil {
		core.BadRequest(w, "role type must be an integer")
		return
	}

	name, err := h.service.GetRoleNameBasedOnIdentifier(role.Type(ordinal))
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, role.Role{Type: role.Type(ordinal), Name: name})
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, role.ErrInvalidHierarchy) {
		core.JSONError(w, core.UnprocessableError(err, "invalid role hierarchy position"))
		return
	}
	core.WriteError(w, "upgrade request", err)
}
