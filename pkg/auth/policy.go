package auth

func IsAdmin(p *Principal) bool {
	return p != nil && p.Role == RoleAdmin
}

// IsOwner reports whether the caller may manage venues at all.
func IsOwner(p *Principal) bool {
	return p != nil && p.Role == RoleOwner
}

// OwnsVenue reports whether the caller is the owner of record of a venue.
func OwnsVenue(p *Principal, venueOwnerID string) bool {
	return p != nil && venueOwnerID != "" && p.UserID == venueOwnerID
}

// OwnsBooking reports whether the caller made the booking.
func OwnsBooking(p *Principal, bookingUserID string) bool {
	return p != nil && bookingUserID != "" && p.UserID == bookingUserID
}

// CanManageVenue allows the venue owner and admins.
func CanManageVenue(p *Principal, venueOwnerID string) bool {
	return OwnsVenue(p, venueOwnerID) || IsAdmin(p)
}
