package model

import "time"

const (
	VenueStatusPending  = "pending"
	VenueStatusApproved = "approved"
	VenueStatusRejected = "rejected"
)

type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" bson:"lng" validate:"min=-180,max=180"`
}

type Address struct {
	Street      string       `json:"street" bson:"street" validate:"required,min=2,max=200"`
	City        string       `json:"city" bson:"city" validate:"required,min=2,max=100"`
	State       string       `json:"state" bson:"state" validate:"required,min=2,max=100"`
	ZipCode     string       `json:"zipCode" bson:"zip_code" validate:"required,min=3,max=12"`
	Coordinates *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty" validate:"omitempty"`
}

type OperatingHours struct {
	Start string `json:"start" bson:"start" validate:"required,hhmm"`
	End   string `json:"end" bson:"end" validate:"required,hhmm"`
}

type Court struct {
	ID             string         `json:"id" bson:"_id" validate:"omitempty,mongodb"`
	Name           string         `json:"name" bson:"name" validate:"required,min=1,max=100"`
	SportType      string         `json:"sportType" bson:"sport_type" validate:"required,min=2,max=50"`
	PricePerHour   float64        `json:"pricePerHour" bson:"price_per_hour" validate:"gt=0"`
	OperatingHours OperatingHours `json:"operatingHours" bson:"operating_hours"`
	IsActive       bool           `json:"isActive" bson:"is_active"`
}

type Rating struct {
	Average float64 `json:"average" bson:"average"`
	Count   int     `json:"count" bson:"count"`
}

type Venue struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name            string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description     string    `json:"description" bson:"description" validate:"required,min=2,max=2000"`
	Address         Address   `json:"address" bson:"address"`
	OwnerID         string    `json:"owner" bson:"owner" validate:"required,mongodb"`
	Sports          []string  `json:"sports" bson:"sports" validate:"required,min=1,max=20,dive,required,max=50"`
	Amenities       []string  `json:"amenities" bson:"amenities" validate:"omitempty,max=50,dive,required,max=50"`
	Photos          []string  `json:"photos" bson:"photos" validate:"omitempty,max=20,dive,url"`
	Courts          []Court   `json:"courts" bson:"courts" validate:"omitempty,max=50,dive"`
	Rating          Rating    `json:"rating" bson:"rating"`
	Status          string    `json:"status" bson:"status" validate:"required,oneof=pending approved rejected"`
	RejectionReason string    `json:"rejectionReason,omitempty" bson:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updated_at"`
}

func (v *Venue) IsApproved() bool {
	return v.Status == VenueStatusApproved
}

// CourtByID returns the embedded court with the given id.
func (v *Venue) CourtByID(id string) (*Court, bool) {
	for i := range v.Courts {
		if v.Courts[i].ID == id {
			return &v.Courts[i], true
		}
	}
	return nil, false
}

func (v *Venue) ActiveCourts() int {
	n := 0
	for _, c := range v.Courts {
		if c.IsActive {
			n++
		}
	}
	return n
}

// Summary is the slice of a venue shown next to a booking.
func (v *Venue) Summary() *VenueSummary {
	return &VenueSummary{ID: v.ID, Name: v.Name, Address: v.Address}
}

type VenueSummary struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address Address `json:"address"`
}

// CourtInput is a court as submitted by an owner. IsActive defaults to true.
type CourtInput struct {
	ID             string         `json:"id,omitempty" validate:"omitempty,mongodb"`
	Name           string         `json:"name" validate:"required,min=1,max=100"`
	SportType      string         `json:"sportType" validate:"required,min=2,max=50"`
	PricePerHour   float64        `json:"pricePerHour" validate:"gt=0"`
	OperatingHours OperatingHours `json:"operatingHours"`
	IsActive       *bool          `json:"isActive,omitempty"`
}

type VenueInput struct {
	Name        string       `json:"name" validate:"required,min=2,max=100"`
	Description string       `json:"description" validate:"required,min=2,max=2000"`
	Address     Address      `json:"address"`
	Sports      []string     `json:"sports" validate:"required,min=1,max=20,dive,required,max=50"`
	Amenities   []string     `json:"amenities" validate:"omitempty,max=50,dive,required,max=50"`
	Photos      []string     `json:"photos" validate:"omitempty,max=20,dive,url"`
	Courts      []CourtInput `json:"courts" validate:"omitempty,max=50,dive"`
}

// VenueUpdate carries a partial update; nil fields are left untouched.
type VenueUpdate struct {
	Name        *string       `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string       `json:"description,omitempty" validate:"omitempty,min=2,max=2000"`
	Address     *Address      `json:"address,omitempty" validate:"omitempty"`
	Sports      *[]string     `json:"sports,omitempty" validate:"omitempty,min=1,max=20,dive,required,max=50"`
	Amenities   *[]string     `json:"amenities,omitempty" validate:"omitempty,max=50,dive,required,max=50"`
	Photos      *[]string     `json:"photos,omitempty" validate:"omitempty,max=20,dive,url"`
	Courts      *[]CourtInput `json:"courts,omitempty" validate:"omitempty,max=50,dive"`
}

type VenueStatusUpdate struct {
	Status          string `json:"status" validate:"required,oneof=approved rejected"`
	RejectionReason string `json:"rejectionReason" validate:"omitempty,max=500"`
}

type VenueFilter struct {
	Sport    string
	City     string
	MinPrice *float64
	MaxPrice *float64
	Search   string
}
