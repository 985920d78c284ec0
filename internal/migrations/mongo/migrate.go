package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickcourt/internal/migrations/mongo/validators"
)

const (
	VenuesCollection       = "Venues"
	BookingsCollection     = "Bookings"
	BookingLocksCollection = "Booking_locks"
	ReviewsCollection      = "Reviews"

	// ConfirmedSlotIndex rejects a second confirmed booking that starts at
	// the same time on the same court and day.
	ConfirmedSlotIndex = "uniq_confirmed_slot_start"

	// ReviewedBookingIndex allows one review per booking.
	ReviewedBookingIndex = "uniq_review_booking"
)

var (
	VenuesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "address.city", Value: 1},
			{Key: "sports", Value: 1},
		}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "venue", Value: 1},
				{Key: "court.court_id", Value: 1},
				{Key: "date", Value: 1},
				{Key: "time_slot.start", Value: 1},
			},
			Options: options.Index().
				SetName(ConfirmedSlotIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "confirmed"}),
		},
		{Keys: bson.D{
			{Key: "user", Value: 1},
			{Key: "date", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "venue", Value: 1},
			{Key: "date", Value: 1},
			{Key: "status", Value: 1},
		}},
	}

	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	ReviewsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking", Value: 1}},
			Options: options.Index().SetName(ReviewedBookingIndex).SetUnique(true),
		},
		{Keys: bson.D{
			{Key: "venue", Value: 1},
			{Key: "created_at", Value: -1},
		}},
	}
)

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("🚀 Running QuickCourt Mongo migrations on database: %s\n", dbName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		VenuesCollection: {
			Indexes:   VenuesIndexes,
			Validator: validators.VenueValidator,
		},
		BookingsCollection: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		BookingLocksCollection: {
			Indexes:   BookingLocksIndexes,
			Validator: validators.BookingLockValidator,
		},
		ReviewsCollection: {
			Indexes:   ReviewsIndexes,
			Validator: validators.ReviewValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else {
		fmt.Printf("ℹ️ Collection %s already exists, updating validator if needed\n", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}
