package validator

import (
	"errors"
	"strings"
	"testing"

	"quickcourt/pkg/logger"
	"quickcourt/pkg/model"
)

func validVenue() *model.Venue {
	return &model.Venue{
		Name:        "Smash Arena",
		Description: "Four wooden badminton courts",
		Address: model.Address{
			Street:  "12 Ring Road",
			City:    "Ahmedabad",
			State:   "Gujarat",
			ZipCode: "380015",
		},
		OwnerID: "65f0000000000000000000d1",
		Sports:  []string{"badminton"},
		Photos:  []string{"https://cdn.example.com/a.png"},
		Courts: []model.Court{
			{
				ID:             "65f0000000000000000000c1",
				Name:           "Court 1",
				SportType:      "badminton",
				PricePerHour:   500,
				OperatingHours: model.OperatingHours{Start: "06:00", End: "23:00"},
				IsActive:       true,
			},
		},
		Status: model.VenueStatusPending,
	}
}

func TestValidate(t *testing.T) {
	v := NewVenueValidator(logger.Discard())

	tests := []struct {
		name      string
		mutate    func(*model.Venue)
		wantErr   bool
		wantField string
	}{
		{name: "valid", mutate: func(*model.Venue) {}},
		{name: "no courts yet", mutate: func(venue *model.Venue) { venue.Courts = nil }},
		{name: "short name", mutate: func(venue *model.Venue) { venue.Name = "A" }, wantErr: true, wantField: "Name"},
		{name: "missing city", mutate: func(venue *model.Venue) { venue.Address.City = "" }, wantErr: true, wantField: "City"},
		{name: "no sports", mutate: func(venue *model.Venue) { venue.Sports = []string{} }, wantErr: true, wantField: "Sports"},
		{name: "bad photo", mutate: func(venue *model.Venue) { venue.Photos = []string{"not a url"} }, wantErr: true, wantField: "Photos"},
		{name: "free court", mutate: func(venue *model.Venue) { venue.Courts[0].PricePerHour = 0 }, wantErr: true, wantField: "PricePerHour"},
		{name: "bad opening hour", mutate: func(venue *model.Venue) { venue.Courts[0].OperatingHours.Start = "6am" }, wantErr: true, wantField: "Start"},
		{name: "closes before it opens", mutate: func(venue *model.Venue) {
			venue.Courts[0].OperatingHours = model.OperatingHours{Start: "22:00", End: "06:00"}
		}, wantErr: true, wantField: "OperatingHours"},
		{name: "unknown status", mutate: func(venue *model.Venue) { venue.Status = "archived" }, wantErr: true, wantField: "Status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			venue := validVenue()
			tt.mutate(venue)

			err := v.Validate(venue)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			found := false
			for _, e := range verrs {
				if strings.Contains(e.Field, tt.wantField) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error mentioning %s, got %v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidateStatusUpdate(t *testing.T) {
	v := NewVenueValidator(logger.Discard())

	if err := v.ValidateStatusUpdate(&model.VenueStatusUpdate{Status: model.VenueStatusApproved}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.ValidateStatusUpdate(&model.VenueStatusUpdate{Status: model.VenueStatusPending}); err == nil {
		t.Error("expected pending to be rejected as a target status")
	}
}

func TestValidateUpdate(t *testing.T) {
	v := NewVenueValidator(logger.Discard())

	name := "X"
	if err := v.ValidateUpdate(&model.VenueUpdate{Name: &name}); err == nil {
		t.Error("expected a short name to be rejected")
	}
	if err := v.ValidateUpdate(&model.VenueUpdate{}); err != nil {
		t.Errorf("empty update should be valid, got %v", err)
	}
}

func TestValidateReview(t *testing.T) {
	v := NewVenueValidator(logger.Discard())

	tests := []struct {
		name    string
		req     model.ReviewRequest
		wantErr bool
	}{
		{"valid", model.ReviewRequest{BookingID: "65f0000000000000000000b1", Rating: 5, Comment: "Great lighting"}, false},
		{"rating too low", model.ReviewRequest{BookingID: "65f0000000000000000000b1", Rating: 0, Comment: "Great lighting"}, true},
		{"rating too high", model.ReviewRequest{BookingID: "65f0000000000000000000b1", Rating: 6, Comment: "Great lighting"}, true},
		{"short comment", model.ReviewRequest{BookingID: "65f0000000000000000000b1", Rating: 4, Comment: "ok"}, true},
		{"bad booking id", model.ReviewRequest{BookingID: "b1", Rating: 4, Comment: "Great lighting"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateReview(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateReview() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
