package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickcourt/pkg/config"
	mongotx "quickcourt/pkg/db/mongo"
	"quickcourt/pkg/model"
)

// CollectionName is owned by the auth service; this package only reads it.
const CollectionName = "Users"

type UserRepository interface {
	FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error)
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// FindSummaries loads display data for the given account ids. Ids that are
// malformed or unknown are absent from the result.
func (r *mongoUserRepository) FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if _, dup := seen[oid]; dup {
			continue
		}
		seen[oid] = struct{}{}
		objectIDs = append(objectIDs, oid)
	}

	result := make(map[string]*model.UserSummary, len(objectIDs))
	if len(objectIDs) == 0 {
		return result, nil
	}

	opts := options.Find().SetProjection(bson.M{"fullName": 1, "email": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*model.UserSummary
	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}
