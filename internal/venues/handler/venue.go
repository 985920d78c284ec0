package handler

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"quickcourt/internal/venues/service"
	"quickcourt/pkg/auth"
	apperrors "quickcourt/pkg/errors"
	httputil "quickcourt/pkg/http"
	"quickcourt/pkg/logger"
	"quickcourt/pkg/model"
)

type VenueHandler struct {
	service service.VenueService
	log     *logger.Logger
}

func NewVenueHandler(service service.VenueService, log *logger.Logger) *VenueHandler {
	return &VenueHandler{
		service: service,
		log:     log,
	}
}

func (h *VenueHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	filter, err := parseVenueFilter(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	venues, total, err := h.service.ListApproved(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, venues, total, limit, int(offset)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *VenueHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	venue, err := h.service.GetByID(r.Context(), principal, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, venue); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var input model.VenueInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	venue, err := h.service.Create(r.Context(), principal, &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, venue); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *VenueHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var update model.VenueUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	venue, err := h.service.Update(r.Context(), principal, ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, venue); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VenueHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	venues, err := h.service.ListMine(r.Context(), principal)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WriteSuccess(w, venues); err != nil {
		h.log.Error("failed to write success response", "handler", "ListMine", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VenueHandler) ListPending(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListPending", err)
		return
	}

	venues, total, err := h.service.ListPending(r.Context(), principal, limit, offset)
	if err != nil {
		h.writeError(w, "ListPending", err)
		return
	}

	if err := httputil.WritePaginated(w, venues, total, limit, int(offset)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListPending", "operation", "WritePaginated", "error", err)
	}
}

func (h *VenueHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var update model.VenueStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	venue, err := h.service.SetStatus(r.Context(), principal, ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, venue); err != nil {
		h.log.Error("failed to write success response", "handler", "SetStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VenueHandler) AddReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var req model.ReviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "AddReview", err)
		return
	}

	review, err := h.service.AddReview(r.Context(), principal, ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "AddReview", err)
		return
	}

	if err := httputil.WriteCreated(w, review); err != nil {
		h.log.Error("failed to write created response", "handler", "AddReview", "operation", "WriteCreated", "error", err)
	}
}

func (h *VenueHandler) ListReviews(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListReviews", err)
		return
	}

	reviews, total, err := h.service.ListReviews(r.Context(), principal, ps.ByName("id"), limit, offset)
	if err != nil {
		h.writeError(w, "ListReviews", err)
		return
	}

	if err := httputil.WritePaginated(w, reviews, total, limit, int(offset)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListReviews", "operation", "WritePaginated", "error", err)
	}
}

func (h *VenueHandler) Popular(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	popular, err := h.service.Popular(r.Context())
	if err != nil {
		h.writeError(w, "Popular", err)
		return
	}

	if err := httputil.WriteSuccess(w, popular); err != nil {
		h.log.Error("failed to write success response", "handler", "Popular", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VenueHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func parseVenueFilter(r *http.Request) (model.VenueFilter, error) {
	query := r.URL.Query()
	filter := model.VenueFilter{
		Sport:  query.Get("sport"),
		City:   query.Get("city"),
		Search: query.Get("search"),
	}

	for _, p := range []struct {
		name string
		dst  **float64
	}{
		{"minPrice", &filter.MinPrice},
		{"maxPrice", &filter.MaxPrice},
	} {
		raw := query.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return filter, apperrors.InvalidInput("invalid " + p.name + " parameter: " + raw)
		}
		*p.dst = &v
	}

	return filter, nil
}

func (h *VenueHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/venues", h.List)
	router.POST("/api/v1/venues", h.Create)
	router.GET("/api/v1/venues/:id", h.GetByID)
	router.PATCH("/api/v1/venues/:id", h.Update)
	router.GET("/api/v1/venues/:id/reviews", h.ListReviews)
	router.POST("/api/v1/venues/:id/reviews", h.AddReview)
	router.GET("/api/v1/popular", h.Popular)
	router.GET("/api/v1/me/venues", h.ListMine)
	router.GET("/api/v1/admin/venues/pending", h.ListPending)
	router.PATCH("/api/v1/admin/venues/:id/status", h.SetStatus)
}
