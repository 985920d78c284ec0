package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	venueserrors "quickcourt/internal/venues/errors"
	"quickcourt/pkg/config"
	mongotx "quickcourt/pkg/db/mongo"
	"quickcourt/pkg/model"
)

const (
	CollectionName = "Venues"
)

type VenueRepository interface {
	Create(ctx context.Context, venue *model.Venue) error
	FindByID(ctx context.Context, id string) (*model.Venue, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Venue, error)
	FindApproved(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, error)
	CountApproved(ctx context.Context, filter model.VenueFilter) (int64, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*model.Venue, error)
	FindByStatus(ctx context.Context, status string, limit int, offset int64) ([]*model.Venue, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	Update(ctx context.Context, id string, venue *model.Venue) error
	SetStatus(ctx context.Context, id string, status string, rejectionReason string) (*model.Venue, error)
	SetRating(ctx context.Context, id string, rating model.Rating) error
}

type mongoVenueRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoVenueRepository(cfg *config.Config) VenueRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVenueRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoVenueRepository) Create(ctx context.Context, venue *model.Venue) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	venue.CreatedAt = now
	venue.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, venue)
	if err != nil {
		return fmt.Errorf("failed to create venue: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		venue.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVenueRepository) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	var venue model.Venue
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&venue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, venueserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find venue: %w", err)
	}

	return &venue, nil
}

// FindByIDs skips malformed ids rather than failing the whole lookup.
func (r *mongoVenueRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			objectIDs = append(objectIDs, oid)
		}
	}
	if len(objectIDs) == 0 {
		return []*model.Venue{}, nil
	}

	return r.find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}}, options.Find())
}

func (r *mongoVenueRepository) FindApproved(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, buildSearchFilter(filter), opts)
}

func (r *mongoVenueRepository) CountApproved(ctx context.Context, filter model.VenueFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count venues: %w", err)
	}
	return count, nil
}

func (r *mongoVenueRepository) FindByOwner(ctx context.Context, ownerID string) ([]*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"owner": ownerID}, opts)
}

func (r *mongoVenueRepository) FindByStatus(ctx context.Context, status string, limit int, offset int64) ([]*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, bson.M{"status": status}, opts)
}

func (r *mongoVenueRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count venues by status: %w", err)
	}
	return count, nil
}

// Update rewrites the owner-editable fields. Status, owner and rating are
// never touched here.
func (r *mongoVenueRepository) Update(ctx context.Context, id string, venue *model.Venue) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	venue.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"name":        venue.Name,
			"description": venue.Description,
			"address":     venue.Address,
			"sports":      venue.Sports,
			"amenities":   venue.Amenities,
			"photos":      venue.Photos,
			"courts":      venue.Courts,
			"updated_at":  venue.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	if result.MatchedCount == 0 {
		return venueserrors.ErrNotFound
	}
	return nil
}

func (r *mongoVenueRepository) SetStatus(ctx context.Context, id string, status string, rejectionReason string) (*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}
	if status == model.VenueStatusRejected && rejectionReason != "" {
		update["$set"].(bson.M)["rejection_reason"] = rejectionReason
	} else {
		update["$unset"] = bson.M{"rejection_reason": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var venue model.Venue
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&venue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, venueserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update venue status: %w", err)
	}
	return &venue, nil
}

// SetRating overwrites the stored rating summary with a freshly computed one.
func (r *mongoVenueRepository) SetRating(ctx context.Context, id string, rating model.Rating) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{
		"rating.average": rating.Average,
		"rating.count":   rating.Count,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update venue rating: %w", err)
	}
	if result.MatchedCount == 0 {
		return venueserrors.ErrNotFound
	}
	return nil
}

func (r *mongoVenueRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Venue, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find venues: %w", err)
	}
	defer cursor.Close(ctx)

	venues := []*model.Venue{}
	if err = cursor.All(ctx, &venues); err != nil {
		return nil, fmt.Errorf("failed to decode venues: %w", err)
	}
	return venues, nil
}

// buildSearchFilter matches approved venues. Free text is matched literally,
// case-insensitive, against name and description.
func buildSearchFilter(f model.VenueFilter) bson.M {
	filter := bson.M{"status": model.VenueStatusApproved}

	if f.Sport != "" {
		filter["sports"] = f.Sport
	}
	if f.City != "" {
		filter["address.city"] = caseInsensitive(f.City)
	}
	if f.Search != "" {
		filter["$or"] = []bson.M{
			{"name": caseInsensitive(f.Search)},
			{"description": caseInsensitive(f.Search)},
		}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["courts"] = bson.M{"$elemMatch": bson.M{"price_per_hour": price}}
	}

	return filter
}

func caseInsensitive(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
