package model

import "time"

const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

// Review is one player's rating of a venue, tied to the completed booking
// that entitles them to leave it. A booking can be reviewed once.
type Review struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string    `json:"user" bson:"user"`
	VenueID   string    `json:"venue" bson:"venue"`
	BookingID string    `json:"booking" bson:"booking"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

type ReviewRequest struct {
	BookingID string `json:"bookingId" validate:"required,mongodb"`
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	Comment   string `json:"comment" validate:"min=5,max=1000"`
}

// VenueBookingCount and SportBookingCount are rows of the popularity
// rankings, decoded straight from the aggregation output.
type VenueBookingCount struct {
	VenueID  string `json:"venueId" bson:"_id"`
	Bookings int64  `json:"bookings" bson:"bookings"`
}

type SportBookingCount struct {
	Sport    string `json:"sport" bson:"_id"`
	Bookings int64  `json:"bookings" bson:"bookings"`
}

type Popularity struct {
	Venues []VenueBookingCount
	Sports []SportBookingCount
}

type PopularVenue struct {
	*Venue
	BookingCount int64 `json:"bookingCount"`
}

type PopularResponse struct {
	Venues []PopularVenue       `json:"popularVenues"`
	Sports []SportBookingCount `json:"popularSports"`
}
