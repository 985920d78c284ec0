package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "quickcourt/internal/bookings/errors"
	"quickcourt/internal/bookings/events"
	"quickcourt/internal/bookings/repository"
	"quickcourt/internal/bookings/validator"
	venueserrors "quickcourt/internal/venues/errors"
	"quickcourt/pkg/auth"
	"quickcourt/pkg/config"
	apperrors "quickcourt/pkg/errors"
	"quickcourt/pkg/model"
	"quickcourt/pkg/sanitizer"
)

const (
	DefaultAnalyticsPeriodDays = 30
	MaxAnalyticsPeriodDays     = 365

	lockRetryInterval    = 20 * time.Millisecond
	maxLockRetryInterval = 200 * time.Millisecond
)

type BookingService interface {
	Reserve(ctx context.Context, p *auth.Principal, req *model.BookingRequest) (*model.BookingView, error)
	GetByID(ctx context.Context, p *auth.Principal, id string) (*model.BookingView, error)
	Cancel(ctx context.Context, p *auth.Principal, id string, req *model.CancelRequest) (*model.Booking, error)
	Complete(ctx context.Context, p *auth.Principal, id string) (*model.Booking, error)
	ListMine(ctx context.Context, p *auth.Principal, status string, limit int, offset int64) ([]*model.BookingView, int64, error)
	ListForVenue(ctx context.Context, p *auth.Principal, venueID string, filter model.BookingFilter, limit int, offset int64) ([]*model.BookingView, int64, error)
	VenueAnalytics(ctx context.Context, p *auth.Principal, venueID string, periodDays int) (*model.VenueAnalytics, error)
}

// VenueLookup is the read side of the venue catalog.
type VenueLookup interface {
	FindByID(ctx context.Context, id string) (*model.Venue, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Venue, error)
}

type UserDirectory interface {
	FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	locker    repository.SlotLocker
	venues    VenueLookup
	users     UserDirectory
	publisher events.Publisher
	validator *validator.BookingValidator
	cfg       *config.Config
	loc       *time.Location
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	locker repository.SlotLocker,
	venues VenueLookup,
	users UserDirectory,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		locker:    locker,
		venues:    venues,
		users:     users,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
		loc:       cfg.Location(),
		now:       time.Now,
	}
}

// Reserve books a court for a time slot. Every check that can fail runs
// before the insert. The overlap check and the insert share a slot lock and
// a transaction, and the partial unique index on confirmed slot starts
// backs them up at the storage layer.
func (s *bookingService) Reserve(ctx context.Context, p *auth.Principal, req *model.BookingRequest) (*model.BookingView, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "user", p.UserID, "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	slot, err := model.NewTimeSlot(req.TimeSlot.Start, req.TimeSlot.End)
	if err != nil {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	venue, err := s.findVenue(ctx, req.VenueID)
	if err != nil {
		return nil, err
	}
	if !venue.IsApproved() {
		return nil, apperrors.NotApproved("Venue")
	}
	court, ok := venue.CourtByID(req.CourtID)
	if !ok {
		return nil, apperrors.NotFoundWithID("Court", req.CourtID)
	}
	if !court.IsActive {
		return nil, apperrors.Inactive("Court")
	}

	booking := &model.Booking{
		UserID:  p.UserID,
		VenueID: venue.ID,
		Court: model.CourtSnapshot{
			CourtID:   court.ID,
			Name:      court.Name,
			SportType: court.SportType,
		},
		Date:          date,
		TimeSlot:      slot,
		Duration:      req.Duration,
		TotalPrice:    court.PricePerHour * float64(req.Duration),
		Status:        model.BookingStatusConfirmed,
		PaymentStatus: model.PaymentStatusCompleted,
	}

	key := booking.SlotKey()
	token, err := s.acquireSlotLock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer s.releaseSlotLock(ctx, key, token)

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifySlotFree(sessCtx, booking); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			if errors.Is(err, bookingserrors.ErrDuplicateSlot) {
				return apperrors.Conflict("Slot already booked")
			}
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			s.cfg.Log.Info("Booking rejected, slot taken", "slot", key, "start", slot.Start, "end", slot.End)
		} else {
			s.cfg.Log.Error("Failed to create booking", "slot", key, "error", err)
		}
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"venue", booking.VenueID,
		"court", booking.Court.CourtID,
		"date", booking.Date.Format(model.DateLayout),
		"start", booking.TimeSlot.Start,
		"end", booking.TimeSlot.End,
	)
	s.publisher.Publish(ctx, events.TypeBookingCreated, booking)

	return &model.BookingView{
		Booking:      booking,
		VenueDetails: venue.Summary(),
		UserDetails:  s.userSummary(ctx, booking.UserID),
	}, nil
}

func (s *bookingService) GetByID(ctx context.Context, p *auth.Principal, id string) (*model.BookingView, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	venue, err := s.findVenue(ctx, booking.VenueID)
	if err != nil && !apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, err
	}

	allowed := auth.OwnsBooking(p, booking.UserID) || auth.IsAdmin(p)
	if venue != nil {
		allowed = allowed || auth.OwnsVenue(p, venue.OwnerID)
	}
	if !allowed {
		return nil, apperrors.Forbidden("You do not have access to this booking")
	}

	view := &model.BookingView{
		Booking:     booking,
		UserDetails: s.userSummary(ctx, booking.UserID),
	}
	if venue != nil {
		view.VenueDetails = venue.Summary()
	}
	return view, nil
}

// Cancel refunds and cancels a booking whose slot has not started yet.
// A started slot is rejected before anything else, whoever asks.
func (s *bookingService) Cancel(ctx context.Context, p *auth.Principal, id string, req *model.CancelRequest) (*model.Booking, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if req == nil {
		req = &model.CancelRequest{}
	}
	req.CancellationReason = sanitizer.SanitizeText(req.CancellationReason)
	if err := s.validator.ValidateCancel(req); err != nil {
		return nil, apperrors.Validation("Invalid cancellation", map[string]any{"error": err.Error()})
	}

	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	startsAt, err := model.StartsAt(booking.Date, booking.TimeSlot.Start, s.loc)
	if err != nil {
		return nil, apperrors.Internal("Booking has an invalid start time", err)
	}
	if !s.now().Before(startsAt) {
		return nil, apperrors.InvalidState("Cannot cancel a booking whose slot has already started")
	}
	if !auth.OwnsBooking(p, booking.UserID) {
		return nil, apperrors.Forbidden("Only the user who made the booking can cancel it")
	}
	if !booking.IsConfirmed() {
		return nil, apperrors.InvalidState(fmt.Sprintf("Cannot cancel a booking that is %s", booking.Status))
	}

	updated, err := s.repo.Cancel(ctx, id, req.CancellationReason)
	if err != nil {
		return nil, s.mapTransitionError(err, id, "cancel")
	}

	s.cfg.Log.Info("Booking cancelled", "id", id, "user", p.UserID)
	s.publisher.Publish(ctx, events.TypeBookingCancelled, updated)
	return updated, nil
}

// Complete closes a confirmed booking. The booking's user and the venue
// owner may do this.
func (s *bookingService) Complete(ctx context.Context, p *auth.Principal, id string) (*model.Booking, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsConfirmed() {
		return nil, apperrors.InvalidState(fmt.Sprintf("Cannot complete a booking that is %s", booking.Status))
	}

	if !auth.OwnsBooking(p, booking.UserID) {
		venue, err := s.findVenue(ctx, booking.VenueID)
		if err != nil && !apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, err
		}
		if venue == nil || !auth.OwnsVenue(p, venue.OwnerID) {
			return nil, apperrors.Forbidden("Only the booking's user or the venue owner can complete it")
		}
	}

	updated, err := s.repo.Complete(ctx, id)
	if err != nil {
		return nil, s.mapTransitionError(err, id, "complete")
	}

	s.cfg.Log.Info("Booking completed", "id", id, "by", p.UserID)
	s.publisher.Publish(ctx, events.TypeBookingCompleted, updated)
	return updated, nil
}

func (s *bookingService) ListMine(ctx context.Context, p *auth.Principal, status string, limit int, offset int64) ([]*model.BookingView, int64, error) {
	if p == nil {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	if err := validateStatusFilter(status); err != nil {
		return nil, 0, err
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByUser(ctx, p.UserID, status)
		if err != nil {
			s.cfg.Log.Error("Failed to count user bookings", "user", p.UserID, "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindByUser(ctx, p.UserID, status, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list user bookings", "user", p.UserID, "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return s.withVenueDetails(ctx, bookings), count, nil
}

func (s *bookingService) ListForVenue(ctx context.Context, p *auth.Principal, venueID string, filter model.BookingFilter, limit int, offset int64) ([]*model.BookingView, int64, error) {
	if p == nil {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	if err := validateStatusFilter(filter.Status); err != nil {
		return nil, 0, err
	}
	if _, err := s.managedVenue(ctx, p, venueID); err != nil {
		return nil, 0, err
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByVenue(ctx, venueID, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count venue bookings", "venue", venueID, "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindByVenue(ctx, venueID, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list venue bookings", "venue", venueID, "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return s.withUserDetails(ctx, bookings), count, nil
}

func (s *bookingService) VenueAnalytics(ctx context.Context, p *auth.Principal, venueID string, periodDays int) (*model.VenueAnalytics, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if periodDays == 0 {
		periodDays = DefaultAnalyticsPeriodDays
	}
	if periodDays < 0 || periodDays > MaxAnalyticsPeriodDays {
		return nil, apperrors.InvalidInput(fmt.Sprintf("period must be between 1 and %d days", MaxAnalyticsPeriodDays))
	}

	venue, err := s.managedVenue(ctx, p, venueID)
	if err != nil {
		return nil, err
	}

	since := model.TruncateDay(s.now().UTC().AddDate(0, 0, -periodDays))
	analytics, err := s.repo.Analytics(ctx, venueID, since)
	if err != nil {
		s.cfg.Log.Error("Failed to compute venue analytics", "venue", venueID, "error", err)
		return nil, apperrors.Internal("Failed to compute analytics", err)
	}

	analytics.VenueID = venueID
	analytics.PeriodDays = periodDays
	analytics.ActiveCourts = venue.ActiveCourts()
	return analytics, nil
}

// --- Helpers ---

func (s *bookingService) find(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) findVenue(ctx context.Context, id string) (*model.Venue, error) {
	venue, err := s.venues.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, venueserrors.ErrNotFound) || errors.Is(err, venueserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Venue", id)
		}
		s.cfg.Log.Error("Failed to look up venue", "venue", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve venue", err)
	}
	return venue, nil
}

// managedVenue loads a venue the caller owns, or any venue for admins.
func (s *bookingService) managedVenue(ctx context.Context, p *auth.Principal, venueID string) (*model.Venue, error) {
	venue, err := s.findVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if !auth.CanManageVenue(p, venue.OwnerID) {
		return nil, apperrors.Forbidden("Only the venue owner can view its bookings")
	}
	return venue, nil
}

func (s *bookingService) verifySlotFree(ctx context.Context, booking *model.Booking) error {
	existing, err := s.repo.FindOverlapping(ctx, booking.VenueID, booking.Court.CourtID, booking.Date, booking.TimeSlot)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	for _, b := range existing {
		if b.TimeSlot.Overlaps(booking.TimeSlot) {
			return apperrors.Conflict(fmt.Sprintf(
				"Slot already booked (%s - %s)",
				b.TimeSlot.Start,
				b.TimeSlot.End,
			))
		}
	}
	return nil
}

// acquireSlotLock retries until LockWaitTimeout. Running out of patience is
// reported as a conflict; the caller going away is reported as a timeout.
func (s *bookingService) acquireSlotLock(ctx context.Context, key string) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.LockWaitTimeout)
	defer cancel()

	interval := lockRetryInterval
	for {
		token, err := s.locker.TryAcquire(ctx, key, s.cfg.LockTTL)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			s.cfg.Log.Error("Failed to acquire slot lock", "slot", key, "error", err)
			return "", apperrors.Internal("Failed to acquire slot lock", err)
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return "", apperrors.Timeout("Request ended while waiting for the slot")
			}
			return "", apperrors.Conflict("This slot is currently being booked by another request. Please try again.")
		case <-time.After(interval):
		}
		interval = min(interval*2, maxLockRetryInterval)
	}
}

func (s *bookingService) releaseSlotLock(ctx context.Context, key, token string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	if err := s.locker.Release(releaseCtx, key, token); err != nil {
		s.cfg.Log.Warn("Failed to release slot lock", "slot", key, "error", err)
	}
}

func (s *bookingService) mapTransitionError(err error, id, action string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrStatusChanged):
		return apperrors.InvalidState("Booking is no longer confirmed")
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		s.cfg.Log.Error("Failed to update booking", "id", id, "action", action, "error", err)
		return apperrors.Internal("Failed to "+action+" booking", err)
	}
}

// userSummary decorates a response. A failed lookup only drops the decoration.
func (s *bookingService) userSummary(ctx context.Context, userID string) *model.UserSummary {
	users, err := s.users.FindSummaries(ctx, []string{userID})
	if err != nil {
		s.cfg.Log.Warn("Failed to load user details", "user", userID, "error", err)
		return nil
	}
	return users[userID]
}

func (s *bookingService) withVenueDetails(ctx context.Context, bookings []*model.Booking) []*model.BookingView {
	views := make([]*model.BookingView, 0, len(bookings))
	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, &model.BookingView{Booking: b})
		ids = append(ids, b.VenueID)
	}
	if len(ids) == 0 {
		return views
	}

	venues, err := s.venues.FindByIDs(ctx, ids)
	if err != nil {
		s.cfg.Log.Warn("Failed to load venue details", "error", err)
		return views
	}
	byID := make(map[string]*model.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}
	for _, view := range views {
		if v, ok := byID[view.VenueID]; ok {
			view.VenueDetails = v.Summary()
		}
	}
	return views
}

func (s *bookingService) withUserDetails(ctx context.Context, bookings []*model.Booking) []*model.BookingView {
	views := make([]*model.BookingView, 0, len(bookings))
	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, &model.BookingView{Booking: b})
		ids = append(ids, b.UserID)
	}
	if len(ids) == 0 {
		return views
	}

	users, err := s.users.FindSummaries(ctx, ids)
	if err != nil {
		s.cfg.Log.Warn("Failed to load user details", "error", err)
		return views
	}
	for _, view := range views {
		view.UserDetails = users[view.UserID]
	}
	return views
}

func validateStatusFilter(status string) error {
	switch status {
	case "", model.BookingStatusConfirmed, model.BookingStatusCancelled, model.BookingStatusCompleted:
		return nil
	default:
		return apperrors.InvalidInput(fmt.Sprintf("invalid status filter: %s", status))
	}
}
