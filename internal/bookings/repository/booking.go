package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "quickcourt/internal/bookings/errors"
	"quickcourt/pkg/config"
	mongotx "quickcourt/pkg/db/mongo"
	"quickcourt/pkg/model"
)

const (
	CollectionName = "Bookings"
)

var earningStatuses = []string{model.BookingStatusConfirmed, model.BookingStatusCompleted}

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindOverlapping(ctx context.Context, venueID, courtID string, date time.Time, slot model.TimeSlot) ([]*model.Booking, error)
	Cancel(ctx context.Context, id string, reason string) (*model.Booking, error)
	Complete(ctx context.Context, id string) (*model.Booking, error)
	FindByUser(ctx context.Context, userID string, status string, limit int, offset int64) ([]*model.Booking, error)
	CountByUser(ctx context.Context, userID string, status string) (int64, error)
	FindByVenue(ctx context.Context, venueID string, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	CountByVenue(ctx context.Context, venueID string, filter model.BookingFilter) (int64, error)
	Analytics(ctx context.Context, venueID string, since time.Time) (*model.VenueAnalytics, error)
	FindCompleted(ctx context.Context, id, userID, venueID string) (*model.Booking, error)
	Popularity(ctx context.Context, venueLimit, sportLimit int) (*model.Popularity, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// Create inserts a booking. A confirmed booking that starts in an already
// taken slot trips the partial unique index and yields ErrDuplicateSlot.
func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrDuplicateSlot
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

// FindOverlapping returns confirmed bookings on the same court and day whose
// [start, end) intersects slot. HH:MM strings compare in time order.
func (r *mongoBookingRepository) FindOverlapping(ctx context.Context, venueID, courtID string, date time.Time, slot model.TimeSlot) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"venue":           venueID,
		"court.court_id":  courtID,
		"date":            model.TruncateDay(date),
		"status":          model.BookingStatusConfirmed,
		"time_slot.start": bson.M{"$lt": slot.End},
		"time_slot.end":   bson.M{"$gt": slot.Start},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Cancel(ctx context.Context, id string, reason string) (*model.Booking, error) {
	set := bson.M{
		"status":         model.BookingStatusCancelled,
		"payment_status": model.PaymentStatusRefunded,
	}
	if reason != "" {
		set["cancellation_reason"] = reason
	}
	return r.transition(ctx, id, set)
}

func (r *mongoBookingRepository) Complete(ctx context.Context, id string) (*model.Booking, error) {
	return r.transition(ctx, id, bson.M{"status": model.BookingStatusCompleted})
}

// transition moves a confirmed booking to a terminal state. The status guard
// sits in the filter so a concurrent transition is never overwritten.
func (r *mongoBookingRepository) transition(ctx context.Context, id string, set bson.M) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	set["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"_id": objectID, "status": model.BookingStatusConfirmed}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrStatusChanged
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindByUser(ctx context.Context, userID string, status string, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "time_slot.start", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, userFilter(userID, status), opts)
}

func (r *mongoBookingRepository) CountByUser(ctx context.Context, userID string, status string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, userFilter(userID, status))
	if err != nil {
		return 0, fmt.Errorf("failed to count user bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) FindByVenue(ctx context.Context, venueID string, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time_slot.start", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, venueFilter(venueID, filter), opts)
}

func (r *mongoBookingRepository) CountByVenue(ctx context.Context, venueID string, filter model.BookingFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, venueFilter(venueID, filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count venue bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// Analytics fills the booking-derived parts of a venue report: all-time
// totals and peak start hours over confirmed and completed bookings, plus a
// per-day trend for bookings dated on or after since.
func (r *mongoBookingRepository) Analytics(ctx context.Context, venueID string, since time.Time) (*model.VenueAnalytics, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	match := bson.M{"venue": venueID, "status": bson.M{"$in": earningStatuses}}

	var totals []struct {
		Count    int64   `bson:"count"`
		Earnings float64 `bson:"earnings"`
	}
	if err := r.aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"count":    bson.M{"$sum": 1},
			"earnings": bson.M{"$sum": "$total_price"},
		}}},
	}, &totals); err != nil {
		return nil, fmt.Errorf("failed to aggregate booking totals: %w", err)
	}

	trendMatch := bson.M{"venue": venueID, "status": bson.M{"$in": earningStatuses}, "date": bson.M{"$gte": since}}
	trends := []model.DailyBookingTrend{}
	if err := r.aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: trendMatch}},
		{{Key: "$group", Value: bson.M{
			"_id":      bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date"}},
			"bookings": bson.M{"$sum": 1},
			"earnings": bson.M{"$sum": "$total_price"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}, &trends); err != nil {
		return nil, fmt.Errorf("failed to aggregate booking trends: %w", err)
	}

	peaks := []model.PeakHour{}
	if err := r.aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$time_slot.start",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}, &peaks); err != nil {
		return nil, fmt.Errorf("failed to aggregate peak hours: %w", err)
	}

	analytics := &model.VenueAnalytics{
		VenueID:       venueID,
		BookingTrends: trends,
		PeakHours:     peaks,
	}
	if len(totals) > 0 {
		analytics.TotalBookings = totals[0].Count
		analytics.TotalEarnings = totals[0].Earnings
	}
	return analytics, nil
}

// FindCompleted returns the booking only if userID played it at venueID
// and it has been completed.
func (r *mongoBookingRepository) FindCompleted(ctx context.Context, id, userID, venueID string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":    objectID,
		"user":   userID,
		"venue":  venueID,
		"status": model.BookingStatusCompleted,
	}
	var booking model.Booking
	if err = r.collection.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find completed booking: %w", err)
	}
	return &booking, nil
}

// Popularity ranks venues and sports by the number of confirmed and
// completed bookings they have taken.
func (r *mongoBookingRepository) Popularity(ctx context.Context, venueLimit, sportLimit int) (*model.Popularity, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	match := bson.M{"status": bson.M{"$in": earningStatuses}}
	ranking := func(field string, limit int) mongo.Pipeline {
		return mongo.Pipeline{
			{{Key: "$match", Value: match}},
			{{Key: "$group", Value: bson.M{"_id": field, "bookings": bson.M{"$sum": 1}}}},
			{{Key: "$sort", Value: bson.D{{Key: "bookings", Value: -1}, {Key: "_id", Value: 1}}}},
			{{Key: "$limit", Value: limit}},
		}
	}

	popularity := &model.Popularity{
		Venues: []model.VenueBookingCount{},
		Sports: []model.SportBookingCount{},
	}
	if err := r.aggregate(ctx, ranking("$venue", venueLimit), &popularity.Venues); err != nil {
		return nil, fmt.Errorf("failed to rank venues: %w", err)
	}
	if err := r.aggregate(ctx, ranking("$court.sport_type", sportLimit), &popularity.Sports); err != nil {
		return nil, fmt.Errorf("failed to rank sports: %w", err)
	}
	return popularity, nil
}

func (r *mongoBookingRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func userFilter(userID, status string) bson.M {
	filter := bson.M{"user": userID}
	if status != "" {
		filter["status"] = status
	}
	return filter
}

func venueFilter(venueID string, f model.BookingFilter) bson.M {
	filter := bson.M{"venue": venueID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Date != nil {
		day := model.TruncateDay(*f.Date)
		filter["date"] = bson.M{"$gte": day, "$lt": day.AddDate(0, 0, 1)}
	}
	return filter
}
