package model

import (
	"time"
)

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"

	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"

	MinBookingHours = 1
	MaxBookingHours = 8
)

// TimeSlot is a half-open [Start, End) interval of zero-padded HH:MM strings.
type TimeSlot struct {
	Start string `json:"start" bson:"start" validate:"required,hhmm"`
	End   string `json:"end" bson:"end" validate:"required,hhmm"`
}

// CourtSnapshot copies the court's identity at booking time so later edits
// to the venue do not rewrite history.
type CourtSnapshot struct {
	CourtID   string `json:"courtId" bson:"court_id"`
	Name      string `json:"name" bson:"name"`
	SportType string `json:"sportType" bson:"sport_type"`
}

type Booking struct {
	ID                 string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID             string        `json:"user" bson:"user" validate:"required,mongodb"`
	VenueID            string        `json:"venue" bson:"venue" validate:"required,mongodb"`
	Court              CourtSnapshot `json:"court" bson:"court"`
	Date               time.Time     `json:"date" bson:"date" validate:"required"`
	TimeSlot           TimeSlot      `json:"timeSlot" bson:"time_slot"`
	Duration           int           `json:"duration" bson:"duration" validate:"min=1,max=8"`
	TotalPrice         float64       `json:"totalPrice" bson:"total_price" validate:"min=0"`
	Status             string        `json:"status" bson:"status" validate:"required,oneof=confirmed cancelled completed"`
	PaymentStatus      string        `json:"paymentStatus" bson:"payment_status" validate:"required,oneof=pending completed refunded"`
	CancellationReason string        `json:"cancellationReason,omitempty" bson:"cancellation_reason,omitempty"`
	CreatedAt          time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt          time.Time     `json:"updatedAt" bson:"updated_at"`
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// SlotKey identifies the (venue, court, day) partition a booking competes in.
func (b *Booking) SlotKey() string {
	return SlotKey(b.VenueID, b.Court.CourtID, b.Date)
}

type BookingRequest struct {
	VenueID  string   `json:"venueId" validate:"required,mongodb"`
	CourtID  string   `json:"courtId" validate:"required,mongodb"`
	Date     string   `json:"date" validate:"required"`
	TimeSlot TimeSlot `json:"timeSlot"`
	Duration int      `json:"duration" validate:"required,min=1,max=8"`
}

type CancelRequest struct {
	CancellationReason string `json:"cancellationReason" validate:"omitempty,max=500"`
}

// BookingView is a booking enriched with the display data clients render.
type BookingView struct {
	*Booking
	VenueDetails *VenueSummary `json:"venueDetails,omitempty"`
	UserDetails  *UserSummary  `json:"userDetails,omitempty"`
}

type BookingFilter struct {
	Status string
	Date   *time.Time
}

type DailyBookingTrend struct {
	Date     string  `json:"date" bson:"_id"`
	Bookings int64   `json:"bookings" bson:"bookings"`
	Earnings float64 `json:"earnings" bson:"earnings"`
}

type PeakHour struct {
	Start    string `json:"start" bson:"_id"`
	Bookings int64  `json:"bookings" bson:"count"`
}

type VenueAnalytics struct {
	VenueID       string              `json:"venueId"`
	PeriodDays    int                 `json:"periodDays"`
	TotalBookings int64               `json:"totalBookings"`
	TotalEarnings float64             `json:"totalEarnings"`
	ActiveCourts  int                 `json:"activeCourts"`
	BookingTrends []DailyBookingTrend `json:"bookingTrends"`
	PeakHours     []PeakHour          `json:"peakHours"`
}
