package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"

	"quickcourt/pkg/logger"
)

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("no reachable servers") }

func TestHealth(t *testing.T) {
	h := NewHandler(down, nil, logger.Discard())
	w := httptest.NewRecorder()

	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil), httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		database   Pinger
		locks      Pinger
		wantStatus int
		wantLocks  string
	}{
		{name: "database up", database: ok, wantStatus: http.StatusOK},
		{name: "database down", database: down, wantStatus: http.StatusServiceUnavailable},
		{name: "redis locks up", database: ok, locks: ok, wantStatus: http.StatusOK, wantLocks: "ok"},
		{name: "redis locks down", database: ok, locks: down, wantStatus: http.StatusServiceUnavailable, wantLocks: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.database, tt.locks, logger.Discard())
			w := httptest.NewRecorder()

			h.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil), httprouter.Params{})

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Locks != tt.wantLocks {
				t.Errorf("expected locks %q, got %q", tt.wantLocks, resp.Locks)
			}
		})
	}
}
