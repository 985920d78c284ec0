package service

import (
	"context"
	"errors"

	bookingserrors "quickcourt/internal/bookings/errors"
	venueserrors "quickcourt/internal/venues/errors"
	"quickcourt/pkg/auth"
	apperrors "quickcourt/pkg/errors"
	"quickcourt/pkg/model"
	"quickcourt/pkg/sanitizer"
)

const (
	PopularVenueLimit = 6
	PopularSportLimit = 8
)

// AddReview lets a player rate a venue once per completed booking there,
// then refreshes the venue's rating summary from all of its reviews.
func (s *venueService) AddReview(ctx context.Context, p *auth.Principal, venueID string, req *model.ReviewRequest) (*model.Review, error) {
	if p == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if p.Role != auth.RoleUser {
		return nil, apperrors.Forbidden("Only players can leave reviews")
	}

	req.Comment = sanitizer.SanitizeText(req.Comment)
	if err := s.validator.ValidateReview(req); err != nil {
		s.cfg.Log.Warn("Review validation failed", "venue", venueID, "error", err)
		return nil, apperrors.Validation("Invalid review", map[string]any{"error": err.Error()})
	}

	if _, err := s.find(ctx, venueID); err != nil {
		return nil, err
	}

	if _, err := s.bookings.FindCompleted(ctx, req.BookingID, p.UserID, venueID); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidState("You can only review venues you have played at")
		}
		s.cfg.Log.Error("Failed to look up reviewed booking", "booking", req.BookingID, "error", err)
		return nil, apperrors.Internal("Failed to create review", err)
	}

	review := &model.Review{
		UserID:    p.UserID,
		VenueID:   venueID,
		BookingID: req.BookingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, venueserrors.ErrAlreadyReviewed) {
			return nil, apperrors.Conflict("You have already reviewed this booking")
		}
		s.cfg.Log.Error("Failed to create review", "venue", venueID, "user", p.UserID, "error", err)
		return nil, apperrors.Internal("Failed to create review", err)
	}

	s.refreshRating(ctx, venueID)
	s.cfg.Log.Info("Review created", "id", review.ID, "venue", venueID, "rating", review.Rating)
	return review, nil
}

// refreshRating recomputes from scratch, so a failed refresh is repaired by
// the next review and only logged here.
func (s *venueService) refreshRating(ctx context.Context, venueID string) {
	rating, err := s.reviews.Summarize(ctx, venueID)
	if err == nil {
		err = s.repo.SetRating(ctx, venueID, rating)
	}
	if err != nil {
		s.cfg.Log.Warn("Failed to refresh venue rating", "venue", venueID, "error", err)
	}
}

func (s *venueService) ListReviews(ctx context.Context, p *auth.Principal, venueID string, limit int, offset int64) ([]*model.Review, int64, error) {
	if _, err := s.GetByID(ctx, p, venueID); err != nil {
		return nil, 0, err
	}

	reviews, err := s.reviews.FindByVenue(ctx, venueID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list reviews", "venue", venueID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve reviews", err)
	}
	count, err := s.reviews.CountByVenue(ctx, venueID)
	if err != nil {
		s.cfg.Log.Error("Failed to count reviews", "venue", venueID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count reviews", err)
	}
	return reviews, count, nil
}

// Popular ranks approved venues and sports by booking volume. Venues that
// are no longer approved drop out of the ranking rather than being replaced.
func (s *venueService) Popular(ctx context.Context) (*model.PopularResponse, error) {
	popularity, err := s.bookings.Popularity(ctx, PopularVenueLimit, PopularSportLimit)
	if err != nil {
		s.cfg.Log.Error("Failed to rank venues", "error", err)
		return nil, apperrors.Internal("Failed to retrieve popular venues", err)
	}

	ids := make([]string, 0, len(popularity.Venues))
	for _, row := range popularity.Venues {
		ids = append(ids, row.VenueID)
	}
	venues, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		s.cfg.Log.Error("Failed to load popular venues", "error", err)
		return nil, apperrors.Internal("Failed to retrieve popular venues", err)
	}
	byID := make(map[string]*model.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}

	resp := &model.PopularResponse{
		Venues: []model.PopularVenue{},
		Sports: popularity.Sports,
	}
	if resp.Sports == nil {
		resp.Sports = []model.SportBookingCount{}
	}
	for _, row := range popularity.Venues {
		venue, ok := byID[row.VenueID]
		if !ok || !venue.IsApproved() {
			continue
		}
		resp.Venues = append(resp.Venues, model.PopularVenue{Venue: venue, BookingCount: row.Bookings})
	}
	return resp, nil
}
