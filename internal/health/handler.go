package health

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	httputil "quickcourt/pkg/http"
	"quickcourt/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Locks    string `json:"locks,omitempty"`
}

// Pinger is satisfied by the Mongo client and by lock backends.
type Pinger func(ctx context.Context) error

type Handler struct {
	database Pinger
	locks    Pinger
	log      *logger.Logger
}

// NewHandler builds the health endpoints. locks may be nil when the lock
// backend shares the database.
func NewHandler(database, locks Pinger, log *logger.Logger) *Handler {
	return &Handler{
		database: database,
		locks:    locks,
		log:      log,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ready", Database: "ok"}
	status := http.StatusOK

	if err := h.database(ctx); err != nil {
		h.log.Error("Database health check failed", "error", err, "path", r.URL.Path)
		resp.Status, resp.Database = "unavailable", "error"
		status = http.StatusServiceUnavailable
	}

	if h.locks != nil {
		resp.Locks = "ok"
		if err := h.locks(ctx); err != nil {
			h.log.Error("Lock backend health check failed", "error", err, "path", r.URL.Path)
			resp.Status, resp.Locks = "unavailable", "error"
			status = http.StatusServiceUnavailable
		}
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
