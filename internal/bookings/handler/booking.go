package handler

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"quickcourt/internal/bookings/service"
	"quickcourt/pkg/auth"
	apperrors "quickcourt/pkg/errors"
	httputil "quickcourt/pkg/http"
	"quickcourt/pkg/logger"
	"quickcourt/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	booking, err := h.service.Reserve(r.Context(), principal, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	booking, err := h.service.GetByID(r.Context(), principal, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// Cancel accepts an optional body carrying the cancellation reason.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var req model.CancelRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(w, "Cancel", err)
			return
		}
	}

	booking, err := h.service.Cancel(r.Context(), principal, ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	booking, err := h.service.Complete(r.Context(), principal, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Complete", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Complete", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	bookings, total, err := h.service.ListMine(r.Context(), principal, r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, int(offset)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) ListForVenue(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListForVenue", err)
		return
	}

	filter, err := parseBookingFilter(r)
	if err != nil {
		h.writeError(w, "ListForVenue", err)
		return
	}

	bookings, total, err := h.service.ListForVenue(r.Context(), principal, ps.ByName("id"), filter, limit, offset)
	if err != nil {
		h.writeError(w, "ListForVenue", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, int(offset)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListForVenue", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Analytics(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := auth.PrincipalFrom(r.Context())

	period := 0
	if raw := r.URL.Query().Get("period"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, "Analytics", apperrors.InvalidInput("invalid period parameter: "+raw))
			return
		}
		period = v
	}

	analytics, err := h.service.VenueAnalytics(r.Context(), principal, ps.ByName("id"), period)
	if err != nil {
		h.writeError(w, "Analytics", err)
		return
	}

	if err := httputil.WriteSuccess(w, analytics); err != nil {
		h.log.Error("failed to write success response", "handler", "Analytics", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func parseBookingFilter(r *http.Request) (model.BookingFilter, error) {
	query := r.URL.Query()
	filter := model.BookingFilter{Status: query.Get("status")}

	if raw := query.Get("date"); raw != "" {
		date, err := model.ParseDate(raw)
		if err != nil {
			return filter, apperrors.InvalidInput("invalid date parameter: " + raw)
		}
		filter.Date = &date
	}
	return filter, nil
}

// RegisterRoutes mounts the booking endpoints. Venue-scoped routes reuse the
// :id wildcard name the venue handler registers on the same prefix.
func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/:id/cancel", h.Cancel)
	router.PATCH("/api/v1/bookings/:id/complete", h.Complete)
	router.GET("/api/v1/me/bookings", h.ListMine)
	router.GET("/api/v1/venues/:id/bookings", h.ListForVenue)
	router.GET("/api/v1/venues/:id/analytics", h.Analytics)
}
