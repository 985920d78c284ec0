package service

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	venueserrors "quickcourt/internal/venues/errors"
	"quickcourt/internal/venues/repository"
	"quickcourt/internal/venues/validator"
	"quickcourt/pkg/auth"
	"quickcourt/pkg/config"
	apperrors "quickcourt/pkg/errors"
	"quickcourt/pkg/model"
	"quickcourt/pkg/sanitizer"
)

type VenueService interface {
	ListApproved(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, int64, error)
	GetByID(ctx context.Context, p *auth.Principal, id string) (*model.Venue, error)
	Create(ctx context.Context, p *auth.Principal, input *model.VenueInput) (*model.Venue, error)
	Update(ctx context.Context, p *auth.Principal, id string, update *model.VenueUpdate) (*model.Venue, error)
	ListMine(ctx context.Context, p *auth.Principal) ([]*model.Venue, error)
	ListPending(ctx context.Context, p *auth.Principal, limit int, offset int64) ([]*model.Venue, int64, error)
	SetStatus(ctx context.Context, p *auth.Principal, id string, update *model.VenueStatusUpdate) (*model.Venue, error)
	AddReview(ctx context.Context, p *auth.Principal, venueID string, req *model.ReviewRequest) (*model.Review, error)
	ListReviews(ctx context.Context, p *auth.Principal, venueID string, limit int, offset int64) ([]*model.Review, int64, error)
	Popular(ctx context.Context) (*model.PopularResponse, error)
}

// BookingHistory is the part of the booking store venues read: proof of a
// completed visit before a review, and booking volume for the rankings.
type BookingHistory interface {
	FindCompleted(ctx context.Context, id, userID, venueID string) (*model.Booking, error)
	Popularity(ctx context.Context, venueLimit, sportLimit int) (*model.Popularity, error)
}

type venueService struct {
	repo      repository.VenueRepository
	reviews   repository.ReviewRepository
	bookings  BookingHistory
	validator *validator.VenueValidator
	cfg       *config.Config
}

func NewVenueService(
	repo repository.VenueRepository,
	reviews repository.ReviewRepository,
	bookings BookingHistory,
	validator *validator.VenueValidator,
	cfg *config.Config,
) VenueService {
	return &venueService{
		repo:      repo,
		reviews:   reviews,
		bookings:  bookings,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *venueService) ListApproved(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, int64, error) {
	filter.Sport = sanitizer.SanitizeTag(filter.Sport)
	filter.City = sanitizer.NormalizeCity(filter.City)
	filter.Search = sanitizer.SanitizeText(filter.Search)
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, 0, apperrors.InvalidInput("minPrice cannot exceed maxPrice")
	}

	var count int64
	var venues []*model.Venue
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountApproved(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count venues", "error", err)
			errCount = apperrors.Internal("Failed to count venues", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		venues, err = s.repo.FindApproved(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list venues", "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to retrieve venues", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return venues, count, nil
}

// GetByID shows approved venues to everyone. Pending and rejected venues
// are only visible to their owner and to admins.
func (s *venueService) GetByID(ctx context.Context, p *auth.Principal, id string) (*model.Venue, error) {
	venue, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !venue.IsApproved() && !auth.CanManageVenue(p, venue.OwnerID) {
		return nil, apperrors.NotFoundWithID("Venue", id)
	}
	return venue, nil
}

func (s *venueService) Create(ctx context.Context, p *auth.Principal, input *model.VenueInput) (*model.Venue, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if !auth.IsOwner(p) {
		return nil, apperrors.Forbidden("Only facility owners can create venues")
	}

	venue := &model.Venue{
		Name:        input.Name,
		Description: input.Description,
		Address:     input.Address,
		OwnerID:     p.UserID,
		Sports:      input.Sports,
		Amenities:   input.Amenities,
		Photos:      input.Photos,
		Courts:      buildCourts(nil, input.Courts),
		Status:      model.VenueStatusPending,
	}
	s.sanitize(venue)
	if err := s.validate(venue); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, venue); err != nil {
		s.cfg.Log.Error("Failed to create venue", "owner", p.UserID, "error", err)
		return nil, apperrors.Internal("Failed to create venue", err)
	}

	s.cfg.Log.Info("Venue created successfully", "id", venue.ID, "owner", venue.OwnerID, "courts", len(venue.Courts))
	return venue, nil
}

func (s *venueService) Update(ctx context.Context, p *auth.Principal, id string, update *model.VenueUpdate) (*model.Venue, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanManageVenue(p, existing.OwnerID) {
		return nil, apperrors.Forbidden("Only the venue owner or an admin can update this venue")
	}
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Venue update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := mergeVenueUpdates(existing, update)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, venueserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Venue", id)
		}
		s.cfg.Log.Error("Failed to update venue", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update venue", err)
	}

	s.cfg.Log.Info("Venue updated successfully", "id", id)
	return merged, nil
}

func (s *venueService) ListMine(ctx context.Context, p *auth.Principal) ([]*model.Venue, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if !auth.IsOwner(p) {
		return nil, apperrors.Forbidden("Only facility owners have venues")
	}

	venues, err := s.repo.FindByOwner(ctx, p.UserID)
	if err != nil {
		s.cfg.Log.Error("Failed to list owner venues", "owner", p.UserID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve venues", err)
	}
	return venues, nil
}

func (s *venueService) ListPending(ctx context.Context, p *auth.Principal, limit int, offset int64) ([]*model.Venue, int64, error) {
	if p == nil {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	if !auth.IsAdmin(p) {
		return nil, 0, apperrors.Forbidden("Admin access required")
	}

	venues, err := s.repo.FindByStatus(ctx, model.VenueStatusPending, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list pending venues", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve venues", err)
	}
	count, err := s.repo.CountByStatus(ctx, model.VenueStatusPending)
	if err != nil {
		s.cfg.Log.Error("Failed to count pending venues", "error", err)
		return nil, 0, apperrors.Internal("Failed to count venues", err)
	}
	return venues, count, nil
}

func (s *venueService) SetStatus(ctx context.Context, p *auth.Principal, id string, update *model.VenueStatusUpdate) (*model.Venue, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if !auth.IsAdmin(p) {
		return nil, apperrors.Forbidden("Admin access required")
	}
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		return nil, apperrors.Validation("Invalid status update", map[string]any{"error": err.Error()})
	}

	reason := sanitizer.SanitizeText(update.RejectionReason)
	venue, err := s.repo.SetStatus(ctx, id, update.Status, reason)
	if err != nil {
		return nil, mapRepoError(err, id, "Failed to update venue status")
	}

	s.cfg.Log.Info("Venue status changed", "id", id, "status", update.Status, "admin", p.UserID)
	return venue, nil
}

// --- Helpers ---

func (s *venueService) find(ctx context.Context, id string) (*model.Venue, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Venue ID cannot be empty")
	}
	venue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id, "Failed to retrieve venue")
	}
	return venue, nil
}

func mapRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, venueserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Venue", id)
	case errors.Is(err, venueserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid venue ID format")
	default:
		return apperrors.Internal(message, err)
	}
}

func (s *venueService) sanitize(v *model.Venue) {
	v.Name = sanitizer.SanitizeText(v.Name)
	v.Description = sanitizer.SanitizeText(v.Description)
	v.Address.Street = sanitizer.SanitizeText(v.Address.Street)
	v.Address.City = sanitizer.NormalizeCity(v.Address.City)
	v.Address.State = sanitizer.SanitizeText(v.Address.State)
	v.Address.ZipCode = sanitizer.SanitizeText(v.Address.ZipCode)
	v.Sports = sanitizer.SanitizeSlice(v.Sports, sanitizer.SanitizeTag)
	v.Amenities = sanitizer.SanitizeSlice(v.Amenities, sanitizer.SanitizeTag)
	v.Photos = sanitizer.SanitizeURLs(v.Photos)
	for i := range v.Courts {
		c := &v.Courts[i]
		c.Name = sanitizer.SanitizeText(c.Name)
		c.SportType = sanitizer.SanitizeTag(c.SportType)
		if start, _, err := model.ParseClock(c.OperatingHours.Start); err == nil {
			c.OperatingHours.Start = start
		}
		if end, _, err := model.ParseClock(c.OperatingHours.End); err == nil {
			c.OperatingHours.End = end
		}
	}
}

func (s *venueService) validate(venue *model.Venue) error {
	if err := s.validator.Validate(venue); err != nil {
		s.cfg.Log.Warn("Venue validation failed", "error", err)
		return apperrors.Validation("Venue validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func mergeVenueUpdates(existing *model.Venue, updates *model.VenueUpdate) *model.Venue {
	merged := *existing

	if updates.Name != nil {
		merged.Name = *updates.Name
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Address != nil {
		merged.Address = *updates.Address
	}
	if updates.Sports != nil {
		merged.Sports = *updates.Sports
	}
	if updates.Amenities != nil {
		merged.Amenities = *updates.Amenities
	}
	if updates.Photos != nil {
		merged.Photos = *updates.Photos
	}
	if updates.Courts != nil {
		merged.Courts = buildCourts(existing.Courts, *updates.Courts)
	}

	return &merged
}

// buildCourts turns submitted courts into stored ones. A court that names
// an existing id keeps it the first time it appears; repeats and unknown ids
// get a fresh id. Courts are active unless the input says otherwise.
func buildCourts(existing []model.Court, inputs []model.CourtInput) []model.Court {
	known := make(map[string]bool, len(existing))
	for _, c := range existing {
		known[c.ID] = true
	}

	used := make(map[string]bool, len(inputs))
	courts := make([]model.Court, 0, len(inputs))
	for _, in := range inputs {
		id := in.ID
		if !known[id] || used[id] {
			id = primitive.NewObjectID().Hex()
		}
		used[id] = true
		active := true
		if in.IsActive != nil {
			active = *in.IsActive
		}
		courts = append(courts, model.Court{
			ID:             id,
			Name:           in.Name,
			SportType:      in.SportType,
			PricePerHour:   in.PricePerHour,
			OperatingHours: in.OperatingHours,
			IsActive:       active,
		})
	}
	return courts
}
