package model

import "time"

// SlotLock is an advisory lock document held while a reservation checks for
// overlaps and inserts. ExpiresAt drives a TTL index so abandoned locks vanish.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
