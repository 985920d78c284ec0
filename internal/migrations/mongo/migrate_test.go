package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestConfirmedSlotIndex(t *testing.T) {
	idx := BookingsIndexes[0]
	if idx.Options == nil || idx.Options.Name == nil || *idx.Options.Name != ConfirmedSlotIndex {
		t.Fatalf("expected first Bookings index to be %s", ConfirmedSlotIndex)
	}
	if idx.Options.Unique == nil || !*idx.Options.Unique {
		t.Error("confirmed slot index must be unique")
	}

	partial, ok := idx.Options.PartialFilterExpression.(bson.M)
	if !ok || partial["status"] != "confirmed" {
		t.Errorf("expected partial filter on confirmed status, got %v", idx.Options.PartialFilterExpression)
	}

	keys := idx.Keys.(bson.D)
	want := []string{"venue", "court.court_id", "date", "time_slot.start"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i, k := range want {
		if keys[i].Key != k {
			t.Errorf("key %d: expected %s, got %s", i, k, keys[i].Key)
		}
	}
}

func TestBookingLocksExpire(t *testing.T) {
	idx := BookingLocksIndexes[0]
	if idx.Options == nil || idx.Options.ExpireAfterSeconds == nil || *idx.Options.ExpireAfterSeconds != 0 {
		t.Error("lock documents must expire at expires_at")
	}
}

func TestReviewedBookingIndex(t *testing.T) {
	idx := ReviewsIndexes[0]
	if idx.Options == nil || idx.Options.Name == nil || *idx.Options.Name != ReviewedBookingIndex {
		t.Fatalf("expected first Reviews index to be %s", ReviewedBookingIndex)
	}
	if idx.Options.Unique == nil || !*idx.Options.Unique {
		t.Error("a booking may only be reviewed once")
	}
	keys := idx.Keys.(bson.D)
	if len(keys) != 1 || keys[0].Key != "booking" {
		t.Errorf("expected unique key on booking, got %v", keys)
	}
}
