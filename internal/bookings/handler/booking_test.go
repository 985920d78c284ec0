package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"quickcourt/pkg/auth"
	apperrors "quickcourt/pkg/errors"
	"quickcourt/pkg/logger"
	"quickcourt/pkg/model"
)

// Mock service for testing
type mockBookingService struct {
	reserveFunc        func(ctx context.Context, p *auth.Principal, req *model.BookingRequest) (*model.BookingView, error)
	cancelFunc         func(ctx context.Context, p *auth.Principal, id string, req *model.CancelRequest) (*model.Booking, error)
	listForVenueFunc   func(ctx context.Context, p *auth.Principal, venueID string, filter model.BookingFilter, limit int, offset int64) ([]*model.BookingView, int64, error)
	venueAnalyticsFunc func(ctx context.Context, p *auth.Principal, venueID string, periodDays int) (*model.VenueAnalytics, error)
}

func (m *mockBookingService) Reserve(ctx context.Context, p *auth.Principal, req *model.BookingRequest) (*model.BookingView, error) {
	if m.reserveFunc != nil {
		return m.reserveFunc(ctx, p, req)
	}
	return &model.BookingView{Booking: &model.Booking{}}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, p *auth.Principal, id string) (*model.BookingView, error) {
	return &model.BookingView{Booking: &model.Booking{ID: id}}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, p *auth.Principal, id string, req *model.CancelRequest) (*model.Booking, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, p, id, req)
	}
	return &model.Booking{ID: id, Status: model.BookingStatusCancelled}, nil
}

func (m *mockBookingService) Complete(ctx context.Context, p *auth.Principal, id string) (*model.Booking, error) {
	return &model.Booking{ID: id, Status: model.BookingStatusCompleted}, nil
}

func (m *mockBookingService) ListMine(ctx context.Context, p *auth.Principal, status string, limit int, offset int64) ([]*model.BookingView, int64, error) {
	return []*model.BookingView{}, 0, nil
}

func (m *mockBookingService) ListForVenue(ctx context.Context, p *auth.Principal, venueID string, filter model.BookingFilter, limit int, offset int64) ([]*model.BookingView, int64, error) {
	if m.listForVenueFunc != nil {
		return m.listForVenueFunc(ctx, p, venueID, filter, limit, offset)
	}
	return []*model.BookingView{}, 0, nil
}

func (m *mockBookingService) VenueAnalytics(ctx context.Context, p *auth.Principal, venueID string, periodDays int) (*model.VenueAnalytics, error) {
	if m.venueAnalyticsFunc != nil {
		return m.venueAnalyticsFunc(ctx, p, venueID, periodDays)
	}
	return &model.VenueAnalytics{VenueID: venueID, PeriodDays: periodDays}, nil
}

var player = &auth.Principal{UserID: "65f0000000000000000000a1", Role: auth.RoleUser}

func withPrincipal(r *http.Request, p *auth.Principal) *http.Request {
	return r.WithContext(auth.WithPrincipal(r.Context(), p))
}

func decodeCode(t *testing.T, w *httptest.ResponseRecorder) any {
	t.Helper()
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp["code"]
}

func TestCreate_Success(t *testing.T) {
	var received *model.BookingRequest
	handler := NewBookingHandler(&mockBookingService{
		reserveFunc: func(ctx context.Context, p *auth.Principal, req *model.BookingRequest) (*model.BookingView, error) {
			received = req
			return &model.BookingView{Booking: &model.Booking{
				ID:         "65f0000000000000000000b1",
				UserID:     p.UserID,
				TotalPrice: 500,
				Status:     model.BookingStatusConfirmed,
			}}, nil
		},
	}, logger.Discard())

	body := `{"venueId":"65f000000000000000000001","courtId":"65f0000000000000000000c1","date":"2025-03-01","timeSlot":{"start":"18:00","end":"19:00"},"duration":1}`
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body)), player)
	w := httptest.NewRecorder()

	handler.Create(w, req, httprouter.Params{})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if received == nil || received.TimeSlot.Start != "18:00" || received.Duration != 1 {
		t.Errorf("unexpected request reached the service: %+v", received)
	}
	if !strings.Contains(w.Body.String(), `"totalPrice":500`) {
		t.Errorf("expected total price in body, got %s", w.Body.String())
	}
}

func TestCreate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectCode int
		expectBody string
	}{
		{name: "slot taken", err: apperrors.Conflict("Slot already booked"), expectCode: http.StatusConflict, expectBody: apperrors.CodeConflict},
		{name: "venue pending", err: apperrors.NotApproved("Venue"), expectCode: http.StatusNotFound, expectBody: apperrors.CodeNotApproved},
		{name: "court inactive", err: apperrors.Inactive("Court"), expectCode: http.StatusNotFound, expectBody: apperrors.CodeInactive},
		{name: "anonymous", err: apperrors.Unauthorized("Authentication required"), expectCode: http.StatusUnauthorized, expectBody: apperrors.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewBookingHandler(&mockBookingService{
				reserveFunc: func(ctx context.Context, p *auth.Principal, req *model.BookingRequest) (*model.BookingView, error) {
					return nil, tt.err
				},
			}, logger.Discard())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{"venueId":"x"}`))
			w := httptest.NewRecorder()
			handler.Create(w, req, httprouter.Params{})

			if w.Code != tt.expectCode {
				t.Fatalf("expected status %d, got %d", tt.expectCode, w.Code)
			}
			if code := decodeCode(t, w); code != tt.expectBody {
				t.Errorf("expected code %s, got %v", tt.expectBody, code)
			}
		})
	}
}

func TestCreate_BadBody(t *testing.T) {
	handler := NewBookingHandler(&mockBookingService{}, logger.Discard())

	for _, body := range []string{``, `{"venueId":`, `{"status":"completed"}`} {
		w := httptest.NewRecorder()
		handler.Create(w, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body)), httprouter.Params{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected status %d, got %d", body, http.StatusBadRequest, w.Code)
		}
	}
}

func TestCancel_OptionalBody(t *testing.T) {
	var reasons []string
	handler := NewBookingHandler(&mockBookingService{
		cancelFunc: func(ctx context.Context, p *auth.Principal, id string, req *model.CancelRequest) (*model.Booking, error) {
			reasons = append(reasons, req.CancellationReason)
			return &model.Booking{ID: id, Status: model.BookingStatusCancelled, PaymentStatus: model.PaymentStatusRefunded}, nil
		},
	}, logger.Discard())
	ps := httprouter.Params{{Key: "id", Value: "65f0000000000000000000b1"}}

	w := httptest.NewRecorder()
	handler.Cancel(w, withPrincipal(httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/65f0000000000000000000b1/cancel", nil), player), ps)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	body := strings.NewReader(`{"cancellationReason":"rain"}`)
	handler.Cancel(w, withPrincipal(httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/65f0000000000000000000b1/cancel", body), player), ps)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	if len(reasons) != 2 || reasons[0] != "" || reasons[1] != "rain" {
		t.Errorf("unexpected reasons: %v", reasons)
	}
}

func TestCancel_SlotStarted(t *testing.T) {
	handler := NewBookingHandler(&mockBookingService{
		cancelFunc: func(ctx context.Context, p *auth.Principal, id string, req *model.CancelRequest) (*model.Booking, error) {
			return nil, apperrors.InvalidState("Cannot cancel a booking whose slot has already started")
		},
	}, logger.Discard())

	w := httptest.NewRecorder()
	handler.Cancel(w, httptest.NewRequest(http.MethodPatch, "/", nil), httprouter.Params{{Key: "id", Value: "b1"}})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if code := decodeCode(t, w); code != apperrors.CodeInvalidState {
		t.Errorf("expected code %s, got %v", apperrors.CodeInvalidState, code)
	}
}

func TestListForVenue_QueryParameters(t *testing.T) {
	var receivedVenue string
	var receivedFilter model.BookingFilter
	handler := NewBookingHandler(&mockBookingService{
		listForVenueFunc: func(ctx context.Context, p *auth.Principal, venueID string, filter model.BookingFilter, limit int, offset int64) ([]*model.BookingView, int64, error) {
			receivedVenue = venueID
			receivedFilter = filter
			return []*model.BookingView{}, 0, nil
		},
	}, logger.Discard())
	ps := httprouter.Params{{Key: "id", Value: "65f000000000000000000001"}}

	w := httptest.NewRecorder()
	handler.ListForVenue(w, httptest.NewRequest(http.MethodGet, "/api/v1/venues/65f000000000000000000001/bookings?status=confirmed&date=2025-03-01", nil), ps)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if receivedVenue != "65f000000000000000000001" || receivedFilter.Status != model.BookingStatusConfirmed {
		t.Errorf("unexpected venue %q or filter %+v", receivedVenue, receivedFilter)
	}
	if receivedFilter.Date == nil || !receivedFilter.Date.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date filter: %v", receivedFilter.Date)
	}

	w = httptest.NewRecorder()
	handler.ListForVenue(w, httptest.NewRequest(http.MethodGet, "/api/v1/venues/x/bookings?date=yesterday", nil), ps)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestAnalytics_Period(t *testing.T) {
	var receivedPeriod int
	handler := NewBookingHandler(&mockBookingService{
		venueAnalyticsFunc: func(ctx context.Context, p *auth.Principal, venueID string, periodDays int) (*model.VenueAnalytics, error) {
			receivedPeriod = periodDays
			return &model.VenueAnalytics{VenueID: venueID, PeriodDays: periodDays}, nil
		},
	}, logger.Discard())
	ps := httprouter.Params{{Key: "id", Value: "65f000000000000000000001"}}

	tests := []struct {
		query        string
		expectCode   int
		expectPeriod int
	}{
		{query: "", expectCode: http.StatusOK, expectPeriod: 0},
		{query: "?period=7", expectCode: http.StatusOK, expectPeriod: 7},
		{query: "?period=week", expectCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			receivedPeriod = -1
			w := httptest.NewRecorder()
			handler.Analytics(w, httptest.NewRequest(http.MethodGet, "/api/v1/venues/65f000000000000000000001/analytics"+tt.query, nil), ps)

			if w.Code != tt.expectCode {
				t.Fatalf("expected status %d, got %d", tt.expectCode, w.Code)
			}
			if tt.expectCode == http.StatusOK && receivedPeriod != tt.expectPeriod {
				t.Errorf("expected period %d, got %d", tt.expectPeriod, receivedPeriod)
			}
		})
	}
}

func TestRegisterRoutes(t *testing.T) {
	router := httprouter.New()
	NewBookingHandler(&mockBookingService{}, logger.Discard()).RegisterRoutes(router)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/bookings/65f0000000000000000000b1"},
		{http.MethodPatch, "/api/v1/bookings/65f0000000000000000000b1/complete"},
		{http.MethodGet, "/api/v1/me/bookings"},
		{http.MethodGet, "/api/v1/venues/65f000000000000000000001/bookings"},
		{http.MethodGet, "/api/v1/venues/65f000000000000000000001/analytics"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, http.StatusOK, w.Code)
		}
	}
}
