package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "quickcourt/internal/bookings/errors"
	"quickcourt/pkg/config"
	mongotx "quickcourt/pkg/db/mongo"
	"quickcourt/pkg/model"
)

const LockCollectionName = "Booking_locks"

// SlotLocker guards the overlap check and insert for one (venue, court, day).
// TryAcquire never blocks: it either takes the lock and returns the holder
// token, or returns ErrLockHeld. Locks expire after their TTL on their own.
type SlotLocker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	Release(ctx context.Context, key, token string) error
}

type mongoSlotLocker struct {
	cfg        *config.Config
	collection *mongo.Collection
	newToken   func() string
	now        func() time.Time
}

func NewMongoSlotLocker(cfg *config.Config) SlotLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLocker{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
		newToken:   uuid.NewString,
		now:        time.Now,
	}
}

// TryAcquire inserts the lock document. If one exists but has expired and
// the TTL monitor has not removed it yet, it is taken over in place.
func (l *mongoSlotLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	now := l.now().UTC()
	token := l.newToken()
	lock := &model.SlotLock{
		ID:        key,
		Owner:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := l.collection.InsertOne(ctx, lock)
	if err == nil {
		return token, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("failed to create slot lock: %w", err)
	}

	result, err := l.collection.UpdateOne(ctx,
		bson.M{"_id": key, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"owner": token, "expires_at": lock.ExpiresAt, "created_at": now}},
	)
	if err != nil {
		return "", fmt.Errorf("failed to take over expired slot lock: %w", err)
	}
	if result.ModifiedCount == 0 {
		return "", bookingserrors.ErrLockHeld
	}
	return token, nil
}

// Release deletes the lock only while token still owns it.
func (l *mongoSlotLocker) Release(ctx context.Context, key, token string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	result, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": token})
	if err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingserrors.ErrLockLost
	}
	return nil
}
