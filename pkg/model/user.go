package model

// UserSummary is the read-only projection of an account used to decorate
// bookings. Accounts are owned by the auth service.
type UserSummary struct {
	ID       string `json:"id" bson:"_id"`
	FullName string `json:"fullName" bson:"fullName"`
	Email    string `json:"email" bson:"email"`
}
